package errorhandler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mwork/authweb/internal/pkg/logger"
	"github.com/mwork/authweb/internal/pkg/response"
)

// HandleError logs err with the request logger and sends the error envelope.
// Server errors are logged at error level, client errors at warn level.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := levelFor(logger.FromContext(ctx), status).
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)

	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Request error")

	response.Error(w, status, code, message)
}

// LogValidationError logs the local rule failures that blocked a form submit.
func LogValidationError(ctx context.Context, form string, fieldErrors map[string]string, formErrors []string) {
	logger.FromContext(ctx).Info().
		Str("form", form).
		Interface("validation_errors", fieldErrors).
		Strs("form_errors", formErrors).
		Msg("Validation error")
}

// LogExternalServiceError logs a non-2xx answer of an external service.
func LogExternalServiceError(ctx context.Context, service, operation string, statusCode int, err error, body string) {
	levelFor(logger.FromContext(ctx), statusCode).
		Str("external_service", service).
		Str("operation", operation).
		Int("status_code", statusCode).
		Err(err).
		Str("response_body", truncateString(body, 1000)).
		Msg("External service error")
}

func levelFor(l *zerolog.Logger, status int) *zerolog.Event {
	if status >= http.StatusInternalServerError || status == 0 {
		return l.Error()
	}
	return l.Warn()
}

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "...<truncated>"
	}
	return s
}
