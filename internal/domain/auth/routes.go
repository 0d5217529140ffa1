package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/mwork/authweb/internal/pkg/response"
)

// RateLimit bounds form posts per client IP. A zero limit disables it.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Routes returns auth router
func (h *Handler) Routes(limit RateLimit) chi.Router {
	r := chi.NewRouter()

	r.Get(HomePath, h.HomePage)
	r.Get("/login", h.LoginPage)
	r.Get("/register", h.RegisterPage)

	// Form posts reach the auth service, so they are rate limited
	r.Group(func(r chi.Router) {
		if limit.Requests > 0 && limit.Window > 0 {
			r.Use(httprate.Limit(
				limit.Requests,
				limit.Window,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					response.TooManyRequests(w)
				}),
			))
		}
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
	})

	r.Post("/register/check", h.CheckRegistration)

	return r
}
