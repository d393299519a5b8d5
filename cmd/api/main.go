package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-otp-auth/internal/application/account"
	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/application/delivery"
	"github.com/go-otp-auth/internal/application/otp"
	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-otp-auth/internal/infrastructure/jwt"
	"github.com/go-otp-auth/internal/infrastructure/smtp"
	"github.com/go-otp-auth/internal/infrastructure/sns"
	"github.com/go-otp-auth/internal/pkg/identity"
	transporthttp "github.com/go-otp-auth/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	if err := run(cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("dynamo client: %w", err)
	}
	// Creates the tables if they don't exist.
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	tokens, err := jwtinfra.NewProvider(cfg.OTPTokenSecret, cfg.OTPTokenTTL)
	if err != nil {
		return fmt.Errorf("token provider: %w", err)
	}

	dispatcher, err := newDispatcher(ctx, cfg)
	if err != nil {
		return err
	}

	accountRepo := dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts, cfg.DynamoTables.AccountIdentifiers, cfg.StorageTimeout)
	otpRepo := dynamo.NewOtpRepo(dynamoClient, cfg.DynamoTables.OTPs, cfg.StorageTimeout)

	authSvc := auth.NewService(auth.ServiceDeps{
		Normalizer: identity.NewNormalizer(cfg.PhoneRegion),
		Accounts:   account.NewService(accountRepo),
		OTPs:       otp.NewService(otpRepo, cfg.OTPTTL, cfg.OTPMaxAttempts),
		Tokens:     tokens,
		Delivery:   dispatcher,
	})

	router := transporthttp.NewRouter(ctx, cfg, &transporthttp.Deps{Auth: authSvc, Tokens: tokens})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "delivery", cfg.DeliveryMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	dispatcher.Wait()
	slog.Info("server stopped")
	return nil
}

// newDispatcher wires SNS and SMTP in live mode. In log mode both channels
// stay nil and codes are only logged.
func newDispatcher(ctx context.Context, cfg *config.Config) (*delivery.Dispatcher, error) {
	if cfg.DeliveryMode != config.DeliveryModeLive {
		slog.Warn("otp delivery is in log mode, codes are not sent")
		return delivery.NewDispatcher(nil, nil, cfg.DeliveryTimeout), nil
	}
	smsSender, err := sns.NewSender(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sns sender: %w", err)
	}
	return delivery.NewDispatcher(smsSender, smtp.NewMailer(cfg), cfg.DeliveryTimeout), nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
