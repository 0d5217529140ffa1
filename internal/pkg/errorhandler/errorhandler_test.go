package errorhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mwork/authweb/internal/pkg/logger"
	"github.com/mwork/authweb/internal/pkg/response"
)

func captureContext() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	return logger.WithContext(context.Background(), &l), &buf
}

func TestHandleErrorWritesEnvelopeAndLogs(t *testing.T) {
	ctx, logs := captureContext()
	rr := httptest.NewRecorder()

	HandleError(ctx, rr, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", errors.New("unexpected EOF"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var out response.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Success || out.Error == nil || out.Error.Code != "BAD_REQUEST" {
		t.Fatalf("unexpected envelope: %+v", out)
	}

	line := logs.String()
	if !strings.Contains(line, `"level":"warn"`) || !strings.Contains(line, "unexpected EOF") {
		t.Fatalf("unexpected log line: %s", line)
	}
}

func TestServerErrorsLogAtErrorLevel(t *testing.T) {
	ctx, logs := captureContext()

	LogExternalServiceError(ctx, "auth", "register", http.StatusBadGateway, nil, strings.Repeat("x", 2000))

	line := logs.String()
	if !strings.Contains(line, `"level":"error"`) {
		t.Fatalf("expected error level, got %s", line)
	}
	if !strings.Contains(line, "...<truncated>") {
		t.Fatal("expected truncated body")
	}
}

func TestLogValidationError(t *testing.T) {
	ctx, logs := captureContext()

	LogValidationError(ctx, "register", map[string]string{"email": "Invalid email format"}, []string{"passwordMismatch"})

	line := logs.String()
	if !strings.Contains(line, "passwordMismatch") || !strings.Contains(line, "Invalid email format") {
		t.Fatalf("unexpected log line: %s", line)
	}
}
