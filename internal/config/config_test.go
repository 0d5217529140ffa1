package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_SERVICE_URL", "http://auth.internal:5000")
	t.Setenv("NOTIFY_DURATION", "not-a-duration")
	t.Setenv("RATE_LIMIT_REQUESTS", "7")

	cfg := Load()

	if cfg.AuthServiceURL != "http://auth.internal:5000" {
		t.Fatalf("expected auth service url from env, got %q", cfg.AuthServiceURL)
	}
	if cfg.NotifyDuration != 5*time.Second {
		t.Fatalf("expected 5s notify duration fallback, got %s", cfg.NotifyDuration)
	}
	if cfg.RateLimitRequests != 7 {
		t.Fatalf("expected rate limit 7, got %d", cfg.RateLimitRequests)
	}
}

func TestParseStringSlice(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: []string{}},
		{in: "http://a", want: []string{"http://a"}},
		{in: "http://a, http://b,,", want: []string{"http://a", "http://b"}},
	}

	for _, tt := range tests {
		got := parseStringSlice(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("parseStringSlice(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestSessionCookieSecureDefaultsByEnvironment(t *testing.T) {
	tests := []struct {
		env, secure string
		want        bool
	}{
		{env: "production", secure: "", want: true},
		{env: "development", secure: "", want: false},
		{env: "production", secure: "false", want: false},
		{env: "development", secure: "true", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.secure, func(t *testing.T) {
			t.Setenv("ENV", tt.env)
			t.Setenv("SESSION_COOKIE_SECURE", tt.secure)

			cfg := Load()
			if cfg.SessionCookieSecure != tt.want {
				t.Fatalf("expected secure=%v, got %v", tt.want, cfg.SessionCookieSecure)
			}
			if cfg.IsProduction() != (tt.env == "production") || cfg.IsDevelopment() != (tt.env == "development") {
				t.Fatalf("unexpected environment flags for %q", tt.env)
			}
		})
	}
}
