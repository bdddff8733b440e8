package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/turo-backend/internal/domain"
)

// BackfillResult summarises one timestamp backfill run.
type BackfillResult struct {
	DryRun       bool   `json:"dryRun"`
	Scanned      int    `json:"scanned"`
	ToUpdate     int    `json:"toUpdate"`
	CreatedAtSet int    `json:"createdAtSet"`
	UpdatedAtSet int    `json:"updatedAtSet"`
	Message      string `json:"message"`
}

type Service interface {
	// BackfillUserTimestamps fills missing created_at/updated_at on public profiles.
	BackfillUserTimestamps(ctx context.Context, dryRun bool) (*BackfillResult, error)
}

type profileStore interface {
	ScanMissingTimestamps(ctx context.Context) ([]domain.TimestampBackfill, int, error)
	BackfillTimestamps(ctx context.Context, fixes []domain.TimestampBackfill, now time.Time) error
}

type service struct {
	profiles profileStore
	now      func() time.Time
}

type ServiceDeps struct {
	ProfileRepo profileStore
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{profiles: deps.ProfileRepo, now: now}
}

func (s *service) BackfillUserTimestamps(ctx context.Context, dryRun bool) (*BackfillResult, error) {
	fixes, scanned, err := s.profiles.ScanMissingTimestamps(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}

	res := &BackfillResult{DryRun: dryRun, Scanned: scanned, ToUpdate: len(fixes)}
	for _, f := range fixes {
		if f.SetCreated {
			res.CreatedAtSet++
		}
		if f.SetUpdated {
			res.UpdatedAtSet++
		}
	}

	if dryRun {
		res.Message = "Dry run: no writes performed"
	} else {
		if err := s.profiles.BackfillTimestamps(ctx, fixes, s.now().UTC()); err != nil {
			return nil, fmt.Errorf("backfill users: %w", err)
		}
		res.Message = "Backfill completed"
	}

	slog.Info("user timestamp backfill", "dry_run", dryRun, "scanned", res.Scanned,
		"to_update", res.ToUpdate, "created_at_set", res.CreatedAtSet, "updated_at_set", res.UpdatedAtSet)
	return res, nil
}
