package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/turo-backend/internal/application/admin"
	"github.com/turo-backend/internal/application/stats"
	"github.com/turo-backend/internal/application/trigger"
	"github.com/turo-backend/internal/config"
	"github.com/turo-backend/internal/infrastructure/dynamo"
	s3infra "github.com/turo-backend/internal/infrastructure/s3"
	snsinfra "github.com/turo-backend/internal/infrastructure/sns"
	"github.com/turo-backend/internal/pkg/schedule"
	"golang.org/x/sync/errgroup"
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
	loc, err := cfg.StatsResetLocation()
	if err != nil {
		slog.Error("stats reset timezone", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		slog.Error("load aws config", "err", err)
		os.Exit(1)
	}
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	profiles := dynamo.NewProfileRepo(dynamoClient, cfg.DynamoTables)

	adminDeps := admin.ServiceDeps{
		ProfileRepo:  profiles,
		IdentityRepo: dynamo.NewIdentityRepo(dynamoClient, cfg.DynamoTables.Identities),
		ActivityRepo: dynamo.NewActivityRepo(dynamoClient, cfg.DynamoTables.Activities),
		BlobStore:    s3infra.NewStore(s3infra.NewClient(awsCfg, cfg), cfg.S3BucketName, cfg.PublicBaseURL),
	}
	if cfg.AuditTopicARN != "" {
		adminDeps.Publisher = snsinfra.NewActivityPublisher(snsinfra.NewClient(awsCfg, cfg), cfg.AuditTopicARN)
	}
	statsSvc := stats.NewService(stats.ServiceDeps{
		StatsRepo: dynamo.NewStatsRepo(dynamoClient, cfg.DynamoTables.SysStats, cfg.DynamoTables.DailyStats),
	})
	dispatcher := trigger.NewDispatcher(trigger.DispatcherDeps{
		IdentitiesTable:  cfg.DynamoTables.Identities,
		UserDetailsTable: cfg.DynamoTables.UserDetails,
		Cleanup:          admin.NewService(adminDeps),
		Stats:            statsSvc,
	})

	watcher := dynamo.NewStreamWatcher(dynamoClient, dynamo.NewStreamsClient(awsCfg, cfg), cfg.StreamPollInterval)
	daily := schedule.Daily{Hour: cfg.StatsResetHour, Location: loc}

	g, gctx := errgroup.WithContext(ctx)
	for _, table := range []string{cfg.DynamoTables.Identities, cfg.DynamoTables.UserDetails} {
		g.Go(func() error { return watcher.Watch(gctx, table, dispatcher.Handle) })
	}
	g.Go(func() error {
		daily.Run(gctx, "reset-daily-stats", statsSvc.ResetDaily)
		return nil
	})

	slog.Info("worker started", "reset_timezone", loc.String(), "reset_hour", cfg.StatsResetHour)
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("worker stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
