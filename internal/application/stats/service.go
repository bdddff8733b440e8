package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/turo-backend/internal/domain"
)

type Service interface {
	// OnUserVerified counts a newly created private detail. Failures are logged only.
	OnUserVerified(ctx context.Context, userID string, detail domain.Document)
	// ResetDaily zeroes the rolling 24-hour registration counter.
	ResetDaily(ctx context.Context) error
}

type statsStore interface {
	RecordRegistration(ctx context.Context, role string, now time.Time) error
	ResetDaily(ctx context.Context, now time.Time) error
}

type service struct {
	repo statsStore
	now  func() time.Time
}

type ServiceDeps struct {
	StatsRepo statsStore
	Now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: deps.StatsRepo, now: now}
}

func (s *service) OnUserVerified(ctx context.Context, userID string, detail domain.Document) {
	role, _ := detail[domain.FieldRole].(string)
	if role == "" {
		role = domain.RoleMentee
	}
	if err := s.repo.RecordRegistration(ctx, role, s.now()); err != nil {
		slog.Error("stats aggregation failed", "user_id", userID, "role", role, "err", err)
		return
	}
	slog.Info("stats aggregated", "user_id", userID, "role", role)
}

func (s *service) ResetDaily(ctx context.Context) error {
	if err := s.repo.ResetDaily(ctx, s.now()); err != nil {
		return fmt.Errorf("reset daily stats: %w", err)
	}
	slog.Info("daily stats reset")
	return nil
}
