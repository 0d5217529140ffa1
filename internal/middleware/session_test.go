package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestSessionIssuesCookieWhenMissing(t *testing.T) {
	var seen string
	h := Session(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid session id in context, got %q", seen)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName || cookies[0].Value != seen {
		t.Fatalf("expected session cookie %q, got %#v", seen, cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
}

func TestSessionReusesValidCookie(t *testing.T) {
	sid := uuid.NewString()
	var seen string
	h := Session(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sid})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != sid {
		t.Fatalf("expected %s, got %s", sid, seen)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatal("expected no new cookie for a valid session")
	}
}

func TestSessionReplacesForgedCookie(t *testing.T) {
	var seen string
	h := Session(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "../../etc"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen == "../../etc" {
		t.Fatal("forged session id must not be accepted")
	}
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != "req-1" {
		t.Fatalf("expected req-1 in context, got %q", seen)
	}
	if w.Header().Get("X-Request-ID") != "req-1" {
		t.Fatalf("expected response header, got %q", w.Header().Get("X-Request-ID"))
	}
}

func TestRecoverReturns500(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
