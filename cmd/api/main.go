package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/turo-backend/internal/config"
	"github.com/turo-backend/internal/infrastructure/brevo"
	"github.com/turo-backend/internal/infrastructure/dynamo"
	jwtinfra "github.com/turo-backend/internal/infrastructure/jwt"
	"github.com/turo-backend/internal/infrastructure/mail"
	s3infra "github.com/turo-backend/internal/infrastructure/s3"
	"github.com/turo-backend/internal/infrastructure/smtp"
	snsinfra "github.com/turo-backend/internal/infrastructure/sns"
	transporthttp "github.com/turo-backend/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		slog.Error("load aws config", "err", err)
		os.Exit(1)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		slog.Error("jwt provider not available", "err", err)
		os.Exit(1)
	}

	s3Store := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg), cfg.S3BucketName, cfg.PublicBaseURL)

	var publisher *snsinfra.ActivityPublisher
	if cfg.AuditTopicARN != "" {
		publisher = snsinfra.NewActivityPublisher(snsinfra.NewClient(awsCfg, cfg), cfg.AuditTopicARN)
	}

	deps := &transporthttp.Deps{
		OTPRepo:      dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs),
		IdentityRepo: dynamo.NewIdentityRepo(dynamoClient, cfg.DynamoTables.Identities),
		ProfileRepo:  dynamo.NewProfileRepo(dynamoClient, cfg.DynamoTables),
		ActivityRepo: dynamo.NewActivityRepo(dynamoClient, cfg.DynamoTables.Activities),
		S3Store:      s3Store,
		Mailer:       newMailer(cfg),
		Publisher:    publisher,
		JWTProvider:  jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newMailer picks the transactional mail provider named by MAIL_PROVIDER.
func newMailer(cfg *config.Config) mail.Sender {
	if cfg.MailProvider == "brevo" {
		return brevo.NewClient(cfg.BrevoAPIKey, cfg.MailFrom, cfg.MailFromName)
	}
	return smtp.NewMailer(cfg)
}
