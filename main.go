package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kube-rca/accounts/internal/client"
	"github.com/kube-rca/accounts/internal/config"
	"github.com/kube-rca/accounts/internal/db"
	"github.com/kube-rca/accounts/internal/handler"
	"github.com/kube-rca/accounts/internal/security"
	"github.com/kube-rca/accounts/internal/service"
)

// @title Accounts API
// @version 1.0
// @description User and client account management with password, reset token and Google login.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.HTTP.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	dsn, err := db.BuildPostgresURL(cfg.Postgres)
	if err != nil {
		return err
	}
	if err := db.ApplyMigrations(dsn); err != nil {
		return err
	}

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := &db.Postgres{Pool: pool}

	hasher, err := security.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	// 메일 미설정 시 nil Mailer (리셋 토큰은 발급되지만 발송되지 않음)
	var mailer service.Mailer
	if cfg.SMTP.EmailsEnabled() {
		smtp, err := client.NewSMTPMailer(cfg.SMTP)
		if err != nil {
			return err
		}
		mailer = smtp
	} else {
		slog.Warn("SMTP not configured, outgoing emails disabled")
	}

	authSvc, err := service.NewAuthService(store, hasher, mailer, cfg)
	if err != nil {
		return err
	}
	userSvc := service.NewUserService(store, hasher, mailer, cfg)
	clientSvc := service.NewClientService(store, hasher)

	if cfg.Auth.FirstSuperuser != "" {
		if err := userSvc.EnsureSuperuser(ctx, cfg.Auth.FirstSuperuser, cfg.Auth.FirstSuperuserPassword); err != nil {
			return err
		}
	}

	services := handler.Services{Auth: authSvc, Users: userSvc, Clients: clientSvc}
	if cfg.Google.Enabled() {
		google, err := client.NewGoogleClient(ctx, cfg.Google)
		if err != nil {
			return err
		}
		services.Google = service.NewGoogleAuthService(authSvc, google)
	} else {
		slog.Info("Google login disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	secureCookie := strings.HasPrefix(cfg.Google.RedirectURI, "https://")
	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           handler.NewRouter(cfg.HTTP, services, secureCookie),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "prefix", cfg.HTTP.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
