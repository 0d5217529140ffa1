// Package roles reads the role catalog offered on the registration form.
package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/mwork/authweb/internal/middleware"
)

const rolesPath = "/api/roles"

// Role is one selectable role.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Source yields the role catalog.
type Source interface {
	Roles(ctx context.Context) iter.Seq2[Role, error]
}

// Client fetches roles from the auth service.
type Client struct {
	baseURL string
	ua      string
	http    *http.Client
}

// NewClient creates a role lookup client.
func NewClient(baseURL string, timeout time.Duration, ua string) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		ua:      ua,
		http:    &http.Client{Timeout: timeout},
	}
}

// Roles returns the catalog as a sequence. Nothing is requested until iteration starts and
// every iteration issues a fresh request. A failure is yielded once as the final element.
func (c *Client) Roles(ctx context.Context) iter.Seq2[Role, error] {
	return func(yield func(Role, error) bool) {
		body, err := c.open(ctx)
		if err != nil {
			yield(Role{}, err)
			return
		}
		defer body.Close()

		dec := json.NewDecoder(body)
		if err := expectDelim(dec, '['); err != nil {
			yield(Role{}, err)
			return
		}
		for dec.More() {
			var r Role
			if err := dec.Decode(&r); err != nil {
				yield(Role{}, fmt.Errorf("roles decode error: %w", err))
				return
			}
			if !yield(r, nil) {
				return
			}
		}
		if err := expectDelim(dec, ']'); err != nil {
			yield(Role{}, err)
		}
	}
}

func (c *Client) open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+rolesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("roles request error: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("roles request error: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("roles http error: status=%d", resp.StatusCode)
	}
	return resp.Body, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("roles decode error: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("roles decode error: expected %q, got %v", want, tok)
	}
	return nil
}

// Collect drains a role sequence, stopping at the first error.
func Collect(seq iter.Seq2[Role, error]) ([]Role, error) {
	var out []Role
	for r, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}
