package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/mwork/authweb/internal/pkg/authclient"
	"github.com/mwork/authweb/internal/pkg/notify"
	"github.com/mwork/authweb/internal/pkg/validator"
)

const (
	HomePath  = "/"
	LoginPath = "/login"

	MsgValidationErrors   = "Validation errors"
	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "Registration failed"
)

// Navigator moves the user to another page. Fire-and-forget.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) Navigate(ctx context.Context, path string) { f(ctx, path) }

// Service is the remote authentication service.
type Service interface {
	Login(ctx context.Context, p authclient.LoginRequest) (*authclient.MessageResponse, error)
	Register(ctx context.Context, p authclient.RegisterRequest) (*authclient.MessageResponse, error)
}

// Outcome names how a submit ended.
type Outcome string

const (
	OutcomeSucceeded   Outcome = "succeeded"
	OutcomeRejected    Outcome = "rejected"     // remote failure shown as one message
	OutcomeFieldErrors Outcome = "field_errors" // remote 400 reconciled into Errors
)

// Result describes a dispatched submit.
type Result struct {
	Outcome  Outcome
	Message  string            // notification text shown to the user
	Redirect string            // navigation target, empty when the user stays
	Errors   []ValidationError // registration only, reconciled server errors
	Err      error             // remote failure cause, nil on success
}

// InvalidFormError carries the local rule failures that blocked a submit.
type InvalidFormError struct {
	Fields *validator.Errors
}

func (e *InvalidFormError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInvalidForm, e.Fields)
}

func (e *InvalidFormError) Unwrap() error { return ErrInvalidForm }

type options struct {
	guard    Guard
	duration time.Duration
}

// Option configures a form.
type Option func(*options)

// WithGuard replaces the per-instance in-flight flag.
func WithGuard(g Guard) Option {
	return func(o *options) {
		if g != nil {
			o.guard = g
		}
	}
}

// WithDuration sets how long notifications stay visible.
func WithDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.duration = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{guard: &flagGuard{}, duration: notify.DefaultDuration}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func failureMessage(err error, fallback string) string {
	if apiErr, ok := authclient.AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
