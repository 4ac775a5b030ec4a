package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminhandler "github.com/Dak6000/ETax-Togo/internal/admin/handler"
	adminservice "github.com/Dak6000/ETax-Togo/internal/admin/service"
	authhandler "github.com/Dak6000/ETax-Togo/internal/auth/handler"
	authservice "github.com/Dak6000/ETax-Togo/internal/auth/service"
	"github.com/Dak6000/ETax-Togo/internal/config"
	"github.com/Dak6000/ETax-Togo/internal/db"
	reminderrepo "github.com/Dak6000/ETax-Togo/internal/reminder/repository"
	"github.com/Dak6000/ETax-Togo/internal/security"
	"github.com/Dak6000/ETax-Togo/internal/server"
	"github.com/Dak6000/ETax-Togo/internal/server/middleware"
	sessionrepo "github.com/Dak6000/ETax-Togo/internal/session/repository"
	taxhandler "github.com/Dak6000/ETax-Togo/internal/tax/handler"
	taxrepo "github.com/Dak6000/ETax-Togo/internal/tax/repository"
	userrepo "github.com/Dak6000/ETax-Togo/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	users := userrepo.NewPostgresRepository(database)
	sessions := sessionrepo.NewPostgresRepository(database)
	taxes := taxrepo.NewPostgresRepository(database)
	reminders := reminderrepo.NewPostgresRepository(database)

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTTL())

	authSvc := authservice.NewAuthService(users, sessions, hasher, tokens, cfg.SessionTTL())
	adminSvc := adminservice.NewAdminService(taxes, users, reminders)

	router := server.NewRouter(server.Deps{
		Auth:          authhandler.NewHandler(authSvc, logger),
		Taxes:         taxhandler.NewHandler(taxes, logger),
		Admin:         adminhandler.NewHandler(adminSvc, logger),
		Authenticator: middleware.NewAuthenticator(tokens, sessions, users, logger),
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if interval := cfg.SweepInterval(); interval > 0 {
		go sweepSessions(ctx, sessions, interval, logger)
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("http server stopped")
}

// sweepSessions periodically deletes expired sessions. The auth middleware
// already rejects and removes expired sessions lazily; the sweep keeps the
// table from accumulating rows for users who never come back.
func sweepSessions(ctx context.Context, sessions sessionrepo.Repository, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				logger.Error("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("swept expired sessions", "deleted", n)
			}
		}
	}
}
