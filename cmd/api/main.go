package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/eonlab/eon-accounts/internal/http/handlers"
	httpmw "github.com/eonlab/eon-accounts/internal/http/middleware"
	"github.com/eonlab/eon-accounts/internal/mailer"
	"github.com/eonlab/eon-accounts/internal/repo/postgres"
	"github.com/eonlab/eon-accounts/internal/service"
	"github.com/eonlab/eon-accounts/internal/session"
	"github.com/eonlab/eon-accounts/pkg/config"
	"github.com/eonlab/eon-accounts/pkg/database"
	"github.com/eonlab/eon-accounts/pkg/events"
	"github.com/eonlab/eon-accounts/pkg/logger"
	mw "github.com/eonlab/eon-accounts/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Session revocation store
	sessions, err := session.NewRedisStore(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, cfg.Auth.AccessTokenTTL)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(pool)
	codeRepo := postgres.NewCodeRepository(pool)
	rateLimitRepo := postgres.NewRateLimitRepository(pool)

	// Initialize services
	mail := selectMailer(cfg)
	codeService := service.NewCodeService(codeRepo, accountRepo, mail, cfg.Auth.VerifyCodeTTL)
	verifier := service.NewVerifier(codeService)
	profileService := service.NewProfileService(accountRepo, verifier, eventBus)
	lifecycleService := service.NewLifecycleService(accountRepo, codeRepo, sessions, eventBus)

	// Initialize handlers
	h := handlers.New(profileService, lifecycleService, codeService)

	// Setup router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("accounts"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireJWT := httpmw.RequireJWT(cfg.Auth.JWTSecret, sessions)

	r.Route("/", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireJWT)

			r.Get("/me", h.GetMe)
			r.Patch("/me", h.UpdateMe)
			r.Post("/me/verify-password", h.VerifyPassword)
			r.Put("/me/password", h.ChangePassword)
			r.Delete("/me", h.DeactivateMe)
			r.Delete("/me/hard", h.DeleteMe)

			r.Group(func(r chi.Router) {
				r.Use(httpmw.CodeRequestRateLimit(rateLimitRepo, 5, time.Minute))
				r.Post("/me/profile-verify/request", h.RequestProfileCode)
			})
			r.Post("/me/profile-verify/confirm", h.ConfirmProfileCode)
		})

		// Admin routes (role check is repeated inside the services)
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireJWT)
			r.Use(httpmw.RequireRole("admin"))
			r.Get("/accounts/states", h.ListAccountStates)
			r.Put("/accounts/{id}/state", h.SetAccountState)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting accounts service", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("Shutting down accounts service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	// Sweep expired codes and stale rate-limit windows in the background
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Auth.JanitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n, err := codeRepo.DeleteExpired(gctx); err != nil {
					logger.Warn("Expired code sweep failed", "error", err)
				} else if n > 0 {
					logger.Info("Swept expired verification codes", "deleted", n)
				}

				if _, err := rateLimitRepo.CleanupExpired(gctx); err != nil {
					logger.Warn("Rate limit cleanup failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Accounts service error", "error", err)
		os.Exit(1)
	}
}

func selectMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.Email.MailerSendKey != "" {
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	}
	return mailer.NewSMTPMailer(
		cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom,
		cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS,
	)
}
