package auth

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/mwork/authweb/internal/middleware"
	"github.com/mwork/authweb/internal/pkg/authclient"
	"github.com/mwork/authweb/internal/pkg/errorhandler"
	"github.com/mwork/authweb/internal/pkg/logger"
	"github.com/mwork/authweb/internal/pkg/metrics"
	"github.com/mwork/authweb/internal/pkg/notify"
	"github.com/mwork/authweb/internal/pkg/response"
	"github.com/mwork/authweb/internal/pkg/roles"
	"github.com/mwork/authweb/internal/pkg/validator"
)

const maxFormBytes = 64 << 10

// Handler serves the login and registration pages.
type Handler struct {
	svc       Service
	roles     roles.Source
	flashes   notify.FlashStore
	publisher notify.Publisher
	guards    *SessionGuard
	views     *views
	duration  time.Duration
}

// HandlerConfig carries the Handler collaborators. Flashes and Publisher may be nil.
type HandlerConfig struct {
	Service   Service
	Roles     roles.Source
	Flashes   notify.FlashStore
	Publisher notify.Publisher
	Duration  time.Duration
}

// NewHandler creates auth handler
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Service == nil {
		return nil, errors.New("auth handler: service is required")
	}
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	if cfg.Duration <= 0 {
		cfg.Duration = notify.DefaultDuration
	}
	return &Handler{
		svc:       cfg.Service,
		roles:     cfg.Roles,
		flashes:   cfg.Flashes,
		publisher: cfg.Publisher,
		guards:    NewSessionGuard(),
		views:     v,
		duration:  cfg.Duration,
	}, nil
}

// submitView is the JSON answer of a form post.
type submitView struct {
	Notification *notify.Notification `json:"notification,omitempty"`
	Redirect     string               `json:"redirect,omitempty"`
	FieldErrors  map[string]string    `json:"field_errors,omitempty"`
	FormErrors   []string             `json:"form_errors,omitempty"`
	Errors       []ValidationError    `json:"errors,omitempty"`
}

// checkView is the answer of a live validation call.
type checkView struct {
	Valid       bool              `json:"valid"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	FormErrors  []string          `json:"form_errors,omitempty"`
}

// HomePage handles GET /
func (h *Handler) HomePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home", page{Title: "Home"})
}

// LoginPage handles GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, Credentials{}, nil)
}

// RegisterPage handles GET /register
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderRegister(w, r, http.StatusOK, RegistrationInput{}, nil, nil)
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in Credentials
	if err := decodeInput(r, &in, func(get func(string) string, _ func(string) []string) {
		in.Email = get("email")
		in.Password = get("password")
	}); err != nil {
		badBody(w, r, err)
		return
	}

	ctx := r.Context()
	sid := middleware.GetSessionID(ctx)
	asJSON := wantsJSON(r)
	shown, notifier := h.notifier(sid, asJSON)
	var redirect string
	nav := NavigatorFunc(func(_ context.Context, path string) { redirect = path })

	form := NewLoginForm(h.svc, notifier, nav,
		WithGuard(h.guards.For(sid+":login")),
		WithDuration(h.duration),
	)
	form.Set(in)

	res, err := form.Submit(ctx)
	if err != nil {
		h.submitError(w, r, "login", err, asJSON, func(status int, errs *validator.Errors) {
			h.renderLogin(w, r, status, in, errs)
		})
		return
	}

	metrics.RecordSubmission("login", string(res.Outcome))
	status := statusFor(res)
	if asJSON {
		response.JSON(w, status, submitView{
			Notification: shown.last(),
			Redirect:     redirect,
		})
		return
	}
	if redirect != "" {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, status, in, nil)
}

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	in, err := readRegistration(r)
	if err != nil {
		badBody(w, r, err)
		return
	}

	ctx := r.Context()
	sid := middleware.GetSessionID(ctx)
	asJSON := wantsJSON(r)
	shown, notifier := h.notifier(sid, asJSON)
	var redirect string
	nav := NavigatorFunc(func(_ context.Context, path string) { redirect = path })

	form := NewRegisterForm(h.svc, notifier, nav,
		WithGuard(h.guards.For(sid+":register")),
		WithDuration(h.duration),
	)
	form.Set(in)

	res, err := form.Submit(ctx)
	if err != nil {
		h.submitError(w, r, "register", err, asJSON, func(status int, errs *validator.Errors) {
			h.renderRegister(w, r, status, in, errs, form.Errors())
		})
		return
	}

	metrics.RecordSubmission("register", string(res.Outcome))
	if res.Outcome == OutcomeFieldErrors {
		metrics.RecordReconciledErrors(len(res.Errors))
	}

	status := statusFor(res)
	if asJSON {
		response.JSON(w, status, submitView{
			Notification: shown.last(),
			Redirect:     redirect,
			Errors:       form.Errors(),
		})
		return
	}
	if redirect != "" {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	h.renderRegister(w, r, status, in, nil, form.Errors())
}

// CheckRegistration handles POST /register/check
func (h *Handler) CheckRegistration(w http.ResponseWriter, r *http.Request) {
	in, err := readRegistration(r)
	if err != nil {
		badBody(w, r, err)
		return
	}

	errs := in.Validate()
	out := checkView{Valid: errs == nil}
	if errs != nil {
		out.FieldErrors = fieldMessages(errs)
		out.FormErrors = errs.Form
	}
	response.OK(w, out)
}

func (h *Handler) submitError(w http.ResponseWriter, r *http.Request, form string, err error, asJSON bool, render func(int, *validator.Errors)) {
	var invalid *InvalidFormError
	switch {
	case errors.Is(err, ErrSubmitInFlight):
		metrics.RecordSubmission(form, "in_flight")
		if asJSON {
			response.Error(w, http.StatusConflict, "SUBMIT_IN_FLIGHT", "A submission is already in progress")
			return
		}
		render(http.StatusConflict, nil)
	case errors.As(err, &invalid):
		metrics.RecordSubmission(form, "invalid")
		errorhandler.LogValidationError(r.Context(), form, fieldMessages(invalid.Fields), invalid.Fields.Form)
		if asJSON {
			response.JSON(w, http.StatusUnprocessableEntity, submitView{
				FieldErrors: fieldMessages(invalid.Fields),
				FormErrors:  invalid.Fields.Form,
			})
			return
		}
		render(http.StatusUnprocessableEntity, invalid.Fields)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}

func badBody(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("Invalid request body")
	response.BadRequest(w, "Invalid request body")
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, in Credentials, errs *validator.Errors) {
	in.Password = ""
	h.render(w, r, status, "login", page{
		Title:         "Login",
		FieldMessages: errs.Messages(),
		Login:         in,
	})
}

func (h *Handler) renderRegister(w http.ResponseWriter, r *http.Request, status int, in RegistrationInput, errs *validator.Errors, server []ValidationError) {
	in.Password = ""
	in.ConfirmPassword = ""
	h.render(w, r, status, "register", page{
		Title:         "Register",
		FieldMessages: errs.Messages(),
		Register:      in,
		ServerErrors:  server,
		Roles:         h.loadRoles(r.Context()),
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	data.Notifications = h.popFlashes(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.views.render(w, name, data); err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Str("page", name).Msg("Failed to render page")
	}
}

func (h *Handler) loadRoles(ctx context.Context) []roles.Role {
	if h.roles == nil {
		return nil
	}
	list, err := roles.Collect(h.roles.Roles(ctx))
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("Failed to load roles")
		return nil
	}
	return list
}

func (h *Handler) popFlashes(ctx context.Context) []notify.Notification {
	if h.flashes == nil {
		return nil
	}
	sid := middleware.GetSessionID(ctx)
	if sid == "" {
		return nil
	}
	list, err := h.flashes.Pop(ctx, sid)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("Failed to read flash notifications")
		return nil
	}
	return list
}

// notifier builds the notifier of one submit. Page posts store a flash for the next
// rendered page. JSON callers get the notification in the response body and it is pushed
// to the session's sockets; pages never open a socket, so each notification is shown once.
func (h *Handler) notifier(sid string, asJSON bool) (*shownNotifications, notify.Notifier) {
	shown := &shownNotifications{}
	if sid == "" {
		return shown, shown
	}
	if asJSON {
		return shown, notify.Multi{shown, notify.ForSession(sid, nil, h.publisher)}
	}
	return shown, notify.Multi{shown, notify.ForSession(sid, h.flashes, nil)}
}

type shownNotifications struct {
	list []notify.Notification
}

func (s *shownNotifications) Notify(_ context.Context, n notify.Notification) {
	s.list = append(s.list, n)
}

func (s *shownNotifications) last() *notify.Notification {
	if len(s.list) == 0 {
		return nil
	}
	n := s.list[len(s.list)-1]
	return &n
}

func statusFor(res *Result) int {
	switch res.Outcome {
	case OutcomeSucceeded:
		return http.StatusOK
	case OutcomeFieldErrors:
		return http.StatusBadRequest
	}
	if apiErr, ok := authclient.AsError(res.Err); ok && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func fieldMessages(errs *validator.Errors) map[string]string {
	msgs := errs.Messages()
	for _, c := range errs.Form {
		delete(msgs, c)
	}
	return msgs
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func isJSONBody(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// decodeInput fills dst from a JSON body, or calls fromForm with the parsed form values.
func decodeInput(r *http.Request, dst interface{}, fromForm func(get func(string) string, all func(string) []string)) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxFormBytes)
	if isJSONBody(r) {
		return json.NewDecoder(r.Body).Decode(dst)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	fromForm(r.PostForm.Get, func(key string) []string { return r.PostForm[key] })
	return nil
}

func readRegistration(r *http.Request) (RegistrationInput, error) {
	var in RegistrationInput
	err := decodeInput(r, &in, func(get func(string) string, all func(string) []string) {
		in.Email = get("email")
		in.Password = get("password")
		in.ConfirmPassword = get("confirmPassword")
		in.FullName = get("fullName")
		in.Roles = all("roles")
	})
	return in, err
}
