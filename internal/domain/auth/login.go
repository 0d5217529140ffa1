package auth

import (
	"context"
	"sync"

	"github.com/mwork/authweb/internal/pkg/authclient"
	"github.com/mwork/authweb/internal/pkg/logger"
	"github.com/mwork/authweb/internal/pkg/notify"
	"github.com/mwork/authweb/internal/pkg/validator"
)

// LoginForm holds login input and submits it.
type LoginForm struct {
	svc       Service
	notifier  notify.Notifier
	navigator Navigator
	opts      options

	mu     sync.Mutex
	values Credentials
}

// NewLoginForm creates an empty login form.
func NewLoginForm(svc Service, notifier notify.Notifier, navigator Navigator, opts ...Option) *LoginForm {
	return &LoginForm{
		svc:       svc,
		notifier:  notifier,
		navigator: navigator,
		opts:      buildOptions(opts),
	}
}

// Set replaces the form values.
func (f *LoginForm) Set(c Credentials) {
	f.mu.Lock()
	f.values = c
	f.mu.Unlock()
}

// Values returns the current form values.
func (f *LoginForm) Values() Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Validate checks the current values without submitting.
func (f *LoginForm) Validate() *validator.Errors {
	return f.Values().Validate()
}

// Submit validates and, when valid, logs in once. Local rule failures return
// *InvalidFormError and a concurrent submit returns ErrSubmitInFlight; in both cases nothing
// is sent. Remote failures are reported through the Result.
func (f *LoginForm) Submit(ctx context.Context) (*Result, error) {
	release, ok := f.opts.guard.TryAcquire()
	if !ok {
		return nil, ErrSubmitInFlight
	}
	defer release()

	values := f.Values()
	if errs := values.Validate(); errs != nil {
		return nil, &InvalidFormError{Fields: errs}
	}

	resp, err := f.svc.Login(ctx, authclient.LoginRequest{
		Email:    values.Email,
		Password: values.Password,
	})
	if err != nil {
		msg := failureMessage(err, MsgLoginFailed)
		logger.FromContext(ctx).Info().Err(err).Msg("login rejected")
		f.notify(ctx, msg)
		return &Result{Outcome: OutcomeRejected, Message: msg, Err: err}, nil
	}

	f.notify(ctx, resp.Message)
	if f.navigator != nil {
		f.navigator.Navigate(ctx, HomePath)
	}
	return &Result{Outcome: OutcomeSucceeded, Message: resp.Message, Redirect: HomePath}, nil
}

func (f *LoginForm) notify(ctx context.Context, msg string) {
	if f.notifier != nil {
		f.notifier.Notify(ctx, notify.New(msg, f.opts.duration))
	}
}
