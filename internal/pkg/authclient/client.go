package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/mwork/authweb/internal/middleware"
	"github.com/mwork/authweb/internal/pkg/errorhandler"
	"github.com/mwork/authweb/internal/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10

	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
)

// Client represents the authentication service HTTP client.
type Client struct {
	baseURL string
	ua      string
	http    *http.Client
}

// LoginRequest is the login payload expected by the auth service.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the registration payload expected by the auth service.
type RegisterRequest struct {
	EmailAddress string   `json:"EmailAddress"`
	Password     string   `json:"Password"`
	FullName     string   `json:"FullName"`
	Roles        []string `json:"Roles"`
}

// MessageResponse is returned by the auth service on success.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewClient creates a new auth service client.
func NewClient(baseURL string, timeout time.Duration, ua string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		ua:      ua,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Login submits credentials. A rejection is returned as *Error.
func (c *Client) Login(ctx context.Context, p LoginRequest) (*MessageResponse, error) {
	return c.post(ctx, "login", loginPath, p)
}

// Register submits a registration. A rejection is returned as *Error; for status 400 its
// Body holds the structured field errors.
func (c *Client) Register(ctx context.Context, p RegisterRequest) (*MessageResponse, error) {
	return c.post(ctx, "register", registerPath, p)
}

func (c *Client) post(ctx context.Context, op, path string, p any) (*MessageResponse, error) {
	if c == nil || c.http == nil {
		return nil, &Error{Op: op, Kind: KindRequest, Err: errors.New("client is nil")}
	}
	if strings.TrimSpace(c.baseURL) == "" {
		return nil, &Error{Op: op, Kind: KindRequest, Err: errors.New("base_url is empty")}
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindRequest, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Op: op, Kind: KindRequest, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.FromContext(ctx).Warn().
			Err(err).
			Str("op", op).
			Dur("duration", time.Since(start)).
			Msg("auth service request failed")
		return nil, classifyRequestError(ctx, op, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
	truncated := len(body) > maxErrorBody
	if truncated {
		body = body[:maxErrorBody]
		logger.FromContext(ctx).Warn().
			Str("op", op).
			Int("status", resp.StatusCode).
			Int("limit", maxErrorBody).
			Msg("auth service response body exceeds limit")
	}

	logger.FromContext(ctx).Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("auth service request completed")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			return nil, &Error{Op: op, Kind: KindRequest, Status: resp.StatusCode, Err: readErr}
		}
		var out MessageResponse
		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &out); err != nil {
				return nil, &Error{Op: op, Kind: KindDecode, Status: resp.StatusCode, Body: body, Err: err}
			}
		}
		return &out, nil
	}

	apiErr := &Error{
		Op:        op,
		Kind:      KindHTTP,
		Status:    resp.StatusCode,
		Body:      body,
		Truncated: truncated,
	}
	if readErr != nil {
		apiErr.Err = fmt.Errorf("failed to read body: %w", readErr)
	}
	apiErr.Message = extractMessage(body)
	errorhandler.LogExternalServiceError(ctx, "auth", op, resp.StatusCode, apiErr.Err, string(body))
	return nil, apiErr
}

func extractMessage(body []byte) string {
	var b struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &b); err != nil {
		return ""
	}
	return b.Message
}

func classifyRequestError(ctx context.Context, op string, err error) error {
	if isTimeoutError(ctx, err) {
		return &Error{Op: op, Kind: KindTimeout, Err: err}
	}
	if isNetworkError(err) {
		return &Error{Op: op, Kind: KindNetwork, Err: err}
	}
	return &Error{Op: op, Kind: KindRequest, Err: err}
}

func isTimeoutError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}

	return false
}
