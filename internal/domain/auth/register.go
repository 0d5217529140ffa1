package auth

import (
	"context"
	"sync"

	"github.com/mwork/authweb/internal/pkg/authclient"
	"github.com/mwork/authweb/internal/pkg/logger"
	"github.com/mwork/authweb/internal/pkg/notify"
	"github.com/mwork/authweb/internal/pkg/validator"
)

// RegisterForm holds registration input, submits it and keeps the server field errors of the
// last submit.
type RegisterForm struct {
	svc       Service
	notifier  notify.Notifier
	navigator Navigator
	opts      options

	mu     sync.Mutex
	values RegistrationInput
	errors []ValidationError
}

// NewRegisterForm creates an empty registration form.
func NewRegisterForm(svc Service, notifier notify.Notifier, navigator Navigator, opts ...Option) *RegisterForm {
	return &RegisterForm{
		svc:       svc,
		notifier:  notifier,
		navigator: navigator,
		opts:      buildOptions(opts),
		errors:    []ValidationError{},
	}
}

// Set replaces the form values.
func (f *RegisterForm) Set(in RegistrationInput) {
	f.mu.Lock()
	f.values = in
	f.mu.Unlock()
}

// Values returns the current form values.
func (f *RegisterForm) Values() RegistrationInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Validate checks the current values, including the password match rule, without submitting.
func (f *RegisterForm) Validate() *validator.Errors {
	return f.Values().Validate()
}

// Errors returns a copy of the server field errors of the last submit.
func (f *RegisterForm) Errors() []ValidationError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ValidationError{}, f.errors...)
}

func (f *RegisterForm) setErrors(errs []ValidationError) {
	f.mu.Lock()
	f.errors = errs
	f.mu.Unlock()
}

// Submit validates and, when valid, registers once. The error list is cleared before every
// attempt and rebuilt from a 400 response. Local rule failures return *InvalidFormError and
// a concurrent submit returns ErrSubmitInFlight; in both cases nothing is sent.
func (f *RegisterForm) Submit(ctx context.Context) (*Result, error) {
	release, ok := f.opts.guard.TryAcquire()
	if !ok {
		return nil, ErrSubmitInFlight
	}
	defer release()

	f.setErrors([]ValidationError{})

	values := f.Values()
	if errs := values.Validate(); errs != nil {
		return nil, &InvalidFormError{Fields: errs}
	}

	resp, err := f.svc.Register(ctx, authclient.RegisterRequest{
		EmailAddress: values.Email,
		Password:     values.Password,
		FullName:     values.FullName,
		Roles:        roleSet(values.Roles),
	})
	if err == nil {
		f.notify(ctx, resp.Message)
		if f.navigator != nil {
			f.navigator.Navigate(ctx, LoginPath)
		}
		return &Result{Outcome: OutcomeSucceeded, Message: resp.Message, Redirect: LoginPath}, nil
	}

	if authclient.IsValidationFailure(err) {
		apiErr, _ := authclient.AsError(err)
		errs := ReconcileServerErrors(apiErr.Body)
		f.setErrors(errs)
		logger.FromContext(ctx).Info().Int("field_errors", len(errs)).Msg("registration rejected by validation")
		f.notify(ctx, MsgValidationErrors)
		return &Result{Outcome: OutcomeFieldErrors, Message: MsgValidationErrors, Errors: errs, Err: err}, nil
	}

	msg := failureMessage(err, MsgRegistrationFailed)
	logger.FromContext(ctx).Warn().Err(err).Msg("registration failed")
	f.notify(ctx, msg)
	return &Result{Outcome: OutcomeRejected, Message: msg, Err: err}, nil
}

func (f *RegisterForm) notify(ctx context.Context, msg string) {
	if f.notifier != nil {
		f.notifier.Notify(ctx, notify.New(msg, f.opts.duration))
	}
}
