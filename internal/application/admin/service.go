package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/turo-backend/internal/domain"
	s3infra "github.com/turo-backend/internal/infrastructure/s3"
	"github.com/turo-backend/internal/pkg/id"
	"github.com/turo-backend/internal/pkg/validate"
)

type ToggleBanRequest struct {
	UID       string `json:"uid" validate:"required"`
	ShouldBan *bool  `json:"shouldBan" validate:"required"`
}

type DeleteAccountRequest struct {
	UID string `json:"uid" validate:"required"`
}

type Service interface {
	// ToggleBan disables or re-enables the target account. Caller must be an admin.
	ToggleBan(ctx context.Context, callerID string, req ToggleBanRequest) (string, error)
	// DeleteAccount removes the target identity; OnIdentityDeleted then cleans up.
	DeleteAccount(ctx context.Context, callerID string, req DeleteAccountRequest) error
	// OnIdentityDeleted removes every profile layer and stored blob of identityID.
	OnIdentityDeleted(ctx context.Context, identityID string) error
}

type profileStore interface {
	GetPublic(ctx context.Context, userID string) (*domain.PublicProfile, error)
	SetDetailActive(ctx context.Context, userID string, active bool) error
	SetPublicActive(ctx context.Context, userID string, active bool) error
	DeleteAll(ctx context.Context, userID string) error
}

type identityStore interface {
	SetDisabled(ctx context.Context, identityID string, disabled bool) error
	Delete(ctx context.Context, identityID string) error
}

type activityStore interface {
	Put(ctx context.Context, a *domain.Activity) error
}

type activityPublisher interface {
	Publish(ctx context.Context, a *domain.Activity) error
}

type blobStore interface {
	DeletePrefix(ctx context.Context, prefix string) (*s3infra.DeleteReport, error)
}

type service struct {
	profiles   profileStore
	identities identityStore
	activities activityStore
	publisher  activityPublisher
	blobs      blobStore
	now        func() time.Time
}

type ServiceDeps struct {
	ProfileRepo  profileStore
	IdentityRepo identityStore
	ActivityRepo activityStore
	// Publisher is optional.
	Publisher activityPublisher
	BlobStore blobStore
	Now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		profiles:   deps.ProfileRepo,
		identities: deps.IdentityRepo,
		activities: deps.ActivityRepo,
		publisher:  deps.Publisher,
		blobs:      deps.BlobStore,
		now:        now,
	}
}

// requireAdmin checks the caller's own public profile for the admin role.
func (s *service) requireAdmin(ctx context.Context, callerID string) error {
	if callerID == "" {
		return fmt.Errorf("the function must be called while authenticated: %w", domain.ErrUnauthorized)
	}
	p, err := s.profiles.GetPublic(ctx, callerID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("only admins can perform this action: %w", domain.ErrForbidden)
	}
	if err != nil {
		return fmt.Errorf("load caller profile: %w", err)
	}
	if !p.HasRole(domain.RoleAdmin) {
		return fmt.Errorf("only admins can perform this action: %w", domain.ErrForbidden)
	}
	return nil
}

// Each step below is a separate write; a failure leaves earlier steps applied.
// Step failures are reported as internal errors, so store sentinels are not wrapped.
func (s *service) ToggleBan(ctx context.Context, callerID string, req ToggleBanRequest) (string, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return "", err
	}
	if err := validate.Struct(&req); err != nil {
		return "", fmt.Errorf("uid and shouldBan are required: %w", domain.ErrBadRequest)
	}
	ban := *req.ShouldBan
	active := !ban

	if err := s.identities.SetDisabled(ctx, req.UID, ban); err != nil {
		return "", fmt.Errorf("update identity: %v", err)
	}
	if err := s.profiles.SetDetailActive(ctx, req.UID, active); err != nil {
		return "", fmt.Errorf("update private detail: %v", err)
	}
	if err := s.profiles.SetPublicActive(ctx, req.UID, active); err != nil {
		return "", fmt.Errorf("update public profile: %v", err)
	}

	event, verb := domain.EventUserUnbanned, "unbanned"
	if ban {
		event, verb = domain.EventUserBanned, "banned"
	}
	now := s.now().UTC()
	a := &domain.Activity{
		ActivityID:  id.NewAt(now),
		EventType:   event,
		Description: fmt.Sprintf("User %s was %s by admin %s", req.UID, verb, callerID),
		UserID:      req.UID,
		ActorID:     callerID,
		Timestamp:   now,
	}
	if err := s.activities.Put(ctx, a); err != nil {
		return "", fmt.Errorf("record activity: %v", err)
	}
	s.publish(ctx, a)

	slog.Info("ban toggled", "user_id", req.UID, "banned", ban, "actor_id", callerID)
	return fmt.Sprintf("User %s successfully.", verb), nil
}

func (s *service) DeleteAccount(ctx context.Context, callerID string, req DeleteAccountRequest) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("uid is required: %w", domain.ErrBadRequest)
	}
	if req.UID == callerID {
		return fmt.Errorf("admins cannot delete their own account: %w", domain.ErrBadRequest)
	}

	if err := s.identities.Delete(ctx, req.UID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("user %s: %w", req.UID, domain.ErrNotFound)
		}
		return fmt.Errorf("delete identity: %w", err)
	}

	now := s.now().UTC()
	a := &domain.Activity{
		ActivityID:  id.NewAt(now),
		EventType:   domain.EventUserDeleted,
		Description: fmt.Sprintf("User %s was deleted by admin %s", req.UID, callerID),
		UserID:      req.UID,
		ActorID:     callerID,
		Timestamp:   now,
	}
	// The identity is already gone, so a failed audit write is only logged.
	if err := s.activities.Put(ctx, a); err != nil {
		slog.Error("record delete activity failed", "user_id", req.UID, "err", err)
	} else {
		s.publish(ctx, a)
	}
	slog.Info("account deleted", "user_id", req.UID, "actor_id", callerID)
	return nil
}

func (s *service) publish(ctx context.Context, a *domain.Activity) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, a); err != nil {
		slog.Warn("publish activity failed", "activity_id", a.ActivityID, "err", err)
	}
}

func (s *service) OnIdentityDeleted(ctx context.Context, identityID string) error {
	if identityID == "" {
		return fmt.Errorf("identity id is required: %w", domain.ErrBadRequest)
	}
	slog.Info("cascading delete started", "user_id", identityID)

	if err := s.profiles.DeleteAll(ctx, identityID); err != nil {
		slog.Error("cascading delete failed", "user_id", identityID, "err", err)
		return fmt.Errorf("failed to clean up user account %s: %w", identityID, err)
	}

	prefix := fmt.Sprintf("users/%s/", identityID)
	report, err := s.blobs.DeletePrefix(ctx, prefix)
	switch {
	case err != nil:
		slog.Error("blob cleanup failed, continuing", "user_id", identityID, "prefix", prefix, "err", err)
	case len(report.Failed) > 0:
		for key, ferr := range report.Failed {
			slog.Error("blob delete failed", "user_id", identityID, "key", key, "err", ferr)
		}
	default:
		slog.Info("blobs deleted", "user_id", identityID, "count", len(report.Deleted))
	}

	slog.Info("cascading delete completed", "user_id", identityID)
	return nil
}
