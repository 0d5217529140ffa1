package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mwork/authweb/internal/config"
	"github.com/mwork/authweb/internal/domain/auth"
	"github.com/mwork/authweb/internal/middleware"
	"github.com/mwork/authweb/internal/pkg/authclient"
	"github.com/mwork/authweb/internal/pkg/database"
	"github.com/mwork/authweb/internal/pkg/logger"
	"github.com/mwork/authweb/internal/pkg/metrics"
	"github.com/mwork/authweb/internal/pkg/notify"
	pkgresponse "github.com/mwork/authweb/internal/pkg/response"
	"github.com/mwork/authweb/internal/pkg/roles"
)

const flashSweepInterval = time.Minute

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
		LogFile:     cfg.LogFile,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("auth_service", cfg.AuthServiceURL).
		Msg("Starting auth web")

	rdb, err := database.NewRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	hub := notify.NewHub(rdb, cfg.AllowedOrigins)
	go hub.Run()
	defer hub.Stop()

	var flashes notify.FlashStore
	if rdb != nil {
		flashes = notify.NewRedisFlashStore(rdb)
	} else {
		memory := notify.NewMemoryFlashStore()
		stop := make(chan struct{})
		defer close(stop)
		go sweepFlashes(memory, stop)
		flashes = memory
	}

	authClient := authclient.NewClient(cfg.AuthServiceURL, cfg.AuthServiceTimeout, cfg.UserAgent)
	roleClient := roles.NewClient(cfg.AuthServiceURL, cfg.AuthServiceTimeout, cfg.UserAgent)

	authHandler, err := auth.NewHandler(auth.HandlerConfig{
		Service:   auth.Instrument(authClient),
		Roles:     roleClient,
		Flashes:   flashes,
		Publisher: hub,
		Duration:  cfg.NotifyDuration,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build auth handler")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, authHandler, hub, rdb),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited properly")
}

func newRouter(cfg *config.Config, authHandler *auth.Handler, hub *notify.Hub, rdb *redis.Client) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.Ping(r.Context(), rdb); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			pkgresponse.Error(w, http.StatusServiceUnavailable, "UNHEALTHY", "Redis unavailable")
			return
		}
		pkgresponse.OK(w, map[string]string{
			"status": "ok",
		})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.SessionCookieSecure))

		r.Get("/notifications/ws", func(w http.ResponseWriter, r *http.Request) {
			hub.ServeWS(w, r, middleware.GetSessionID(r.Context()))
		})

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))
			r.Mount("/", authHandler.Routes(auth.RateLimit{
				Requests: cfg.RateLimitRequests,
				Window:   cfg.RateLimitWindow,
			}))
		})
	})

	return r
}

func sweepFlashes(store *notify.MemoryFlashStore, stop <-chan struct{}) {
	ticker := time.NewTicker(flashSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			store.Sweep()
		}
	}
}
