package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("User-Agent") != "MWork/1.0 authweb" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if in["email"] != "user@example.com" || in["password"] != "secret1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"message":"Welcome"}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/", time.Second, "MWork/1.0 authweb")
	resp, err := client.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Message != "Welcome" {
		t.Fatalf("expected Welcome, got %q", resp.Message)
	}
}

func TestRegisterSendsRenamedFields(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/register" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Registered"}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Second, "")
	resp, err := client.Register(context.Background(), RegisterRequest{
		EmailAddress: "new@example.com",
		Password:     "secret1",
		FullName:     "New User",
		Roles:        []string{},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Message != "Registered" {
		t.Fatalf("expected Registered, got %q", resp.Message)
	}
	for _, key := range []string{"EmailAddress", "Password", "FullName", "Roles"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("expected key %s in payload %#v", key, got)
		}
	}
	if roles, ok := got["Roles"].([]any); !ok || len(roles) != 0 {
		t.Fatalf("expected empty roles array, got %#v", got["Roles"])
	}
}

func TestRegisterValidationFailureKeepsBody(t *testing.T) {
	body := `{"errors":{"email":["Email already in use"]}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Second, "")
	_, err := client.Register(context.Background(), RegisterRequest{})
	if !IsValidationFailure(err) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	apiErr, _ := AsError(err)
	if string(apiErr.Body) != body {
		t.Fatalf("expected body preserved, got %s", apiErr.Body)
	}
	if !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestRegisterValidationFailureTruncatesOversizedBody(t *testing.T) {
	body := `{"errors":{"email":["` + strings.Repeat("x", maxErrorBody) + `"]}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Second, "")
	_, err := client.Register(context.Background(), RegisterRequest{})
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !apiErr.Truncated || len(apiErr.Body) != maxErrorBody {
		t.Fatalf("expected body cut at %d bytes, truncated=%v len=%d", maxErrorBody, apiErr.Truncated, len(apiErr.Body))
	}
	if !IsValidationFailure(err) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestRegisterValidationFailureAtLimitIsNotTruncated(t *testing.T) {
	body := strings.Repeat(" ", maxErrorBody)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Second, "")
	_, err := client.Register(context.Background(), RegisterRequest{})
	apiErr, _ := AsError(err)
	if apiErr == nil || apiErr.Truncated || len(apiErr.Body) != maxErrorBody {
		t.Fatalf("expected full body, got %#v", apiErr)
	}
}

func TestLoginFailureExtractsMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid email or password"}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Second, "")
	_, err := client.Login(context.Background(), LoginRequest{})
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Invalid email or password" {
		t.Fatalf("unexpected error %#v", apiErr)
	}
	if IsValidationFailure(err) {
		t.Fatal("401 must not be a validation failure")
	}
}

func TestLoginTimeoutClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, 20*time.Millisecond, "")
	_, err := client.Login(context.Background(), LoginRequest{})
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindTimeout {
		t.Fatalf("expected timeout classification, got %v", err)
	}
}

func TestLoginNetworkErrorClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, time.Second, "")
	_, err := client.Login(context.Background(), LoginRequest{})
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindNetwork {
		t.Fatalf("expected network classification, got %v", err)
	}
	if apiErr.Status != 0 {
		t.Fatalf("expected status 0 for transport failure, got %d", apiErr.Status)
	}
}

func TestEmptyBaseURL(t *testing.T) {
	client := NewClient("", time.Second, "")
	_, err := client.Login(context.Background(), LoginRequest{})
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindRequest {
		t.Fatalf("expected request error, got %v", err)
	}
}
