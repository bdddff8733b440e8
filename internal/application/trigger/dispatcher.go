// Package trigger routes change-feed events to the handlers reacting to them.
package trigger

import (
	"context"
	"log/slog"

	"github.com/turo-backend/internal/domain"
)

type identityDeletedHandler interface {
	OnIdentityDeleted(ctx context.Context, identityID string) error
}

type userVerifiedHandler interface {
	OnUserVerified(ctx context.Context, userID string, detail domain.Document)
}

// Dispatcher maps identity removals to the account cleanup cascade and new
// private details to registration statistics. Other events are ignored.
type Dispatcher struct {
	identitiesTable string
	detailsTable    string
	cleanup         identityDeletedHandler
	stats           userVerifiedHandler
}

type DispatcherDeps struct {
	IdentitiesTable  string
	UserDetailsTable string
	Cleanup          identityDeletedHandler
	Stats            userVerifiedHandler
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	return &Dispatcher{
		identitiesTable: deps.IdentitiesTable,
		detailsTable:    deps.UserDetailsTable,
		cleanup:         deps.Cleanup,
		stats:           deps.Stats,
	}
}

func (d *Dispatcher) Handle(ctx context.Context, ev domain.ChangeEvent) error {
	switch {
	case ev.Table == d.identitiesTable && ev.Kind == domain.ChangeRemove:
		identityID, _ := ev.Keys[domain.FieldIdentityID].(string)
		if identityID == "" {
			slog.Warn("identity removal without key", "table", ev.Table)
			return nil
		}
		if domain.IsEmailClaim(identityID) {
			return nil
		}
		return d.cleanup.OnIdentityDeleted(ctx, identityID)

	case ev.Table == d.detailsTable && ev.Kind == domain.ChangeInsert:
		userID, _ := ev.Keys[domain.FieldUserID].(string)
		d.stats.OnUserVerified(ctx, userID, ev.NewImage)
	}
	return nil
}
