package trigger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/turo-backend/internal/domain"
)

type mockCleanup struct{ mock.Mock }

func (m *mockCleanup) OnIdentityDeleted(ctx context.Context, identityID string) error {
	return m.Called(ctx, identityID).Error(0)
}

type mockStats struct{ mock.Mock }

func (m *mockStats) OnUserVerified(ctx context.Context, userID string, detail domain.Document) {
	m.Called(ctx, userID, detail)
}

func newDispatcher(c *mockCleanup, s *mockStats) *Dispatcher {
	return NewDispatcher(DispatcherDeps{
		IdentitiesTable:  "identities",
		UserDetailsTable: "user_details",
		Cleanup:          c,
		Stats:            s,
	})
}

func TestHandle_IdentityRemoved(t *testing.T) {
	c, s := &mockCleanup{}, &mockStats{}
	c.On("OnIdentityDeleted", mock.Anything, "id-1").Return(nil)

	err := newDispatcher(c, s).Handle(context.Background(), domain.ChangeEvent{
		Table: "identities", Kind: domain.ChangeRemove, Keys: domain.Document{domain.FieldIdentityID: "id-1"},
	})

	assert.NoError(t, err)
	c.AssertExpectations(t)
	s.AssertNotCalled(t, "OnUserVerified", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_IdentityRemovedError(t *testing.T) {
	c, s := &mockCleanup{}, &mockStats{}
	c.On("OnIdentityDeleted", mock.Anything, "id-1").Return(errors.New("boom"))

	err := newDispatcher(c, s).Handle(context.Background(), domain.ChangeEvent{
		Table: "identities", Kind: domain.ChangeRemove, Keys: domain.Document{domain.FieldIdentityID: "id-1"},
	})
	assert.Error(t, err)
}

func TestHandle_DetailInserted(t *testing.T) {
	c, s := &mockCleanup{}, &mockStats{}
	img := domain.Document{"user_id": "u1", "role": "mentor"}
	s.On("OnUserVerified", mock.Anything, "u1", img).Return()

	err := newDispatcher(c, s).Handle(context.Background(), domain.ChangeEvent{
		Table: "user_details", Kind: domain.ChangeInsert, Keys: domain.Document{"user_id": "u1"}, NewImage: img,
	})

	assert.NoError(t, err)
	s.AssertExpectations(t)
}

func TestHandle_IgnoresOtherEvents(t *testing.T) {
	c, s := &mockCleanup{}, &mockStats{}
	d := newDispatcher(c, s)
	ctx := context.Background()

	for _, ev := range []domain.ChangeEvent{
		{Table: "user_details", Kind: domain.ChangeModify, Keys: domain.Document{"user_id": "u1"}},
		{Table: "user_details", Kind: domain.ChangeRemove, Keys: domain.Document{"user_id": "u1"}},
		{Table: "identities", Kind: domain.ChangeInsert, Keys: domain.Document{domain.FieldIdentityID: "id-1"}},
		{Table: "identities", Kind: domain.ChangeRemove, Keys: domain.Document{}},
		{Table: "identities", Kind: domain.ChangeRemove, Keys: domain.Document{domain.FieldIdentityID: domain.EmailClaimKey("a@b.c")}},
		{Table: "users", Kind: domain.ChangeInsert},
	} {
		assert.NoError(t, d.Handle(ctx, ev))
	}
	c.AssertNotCalled(t, "OnIdentityDeleted", mock.Anything, mock.Anything)
	s.AssertNotCalled(t, "OnUserVerified", mock.Anything, mock.Anything, mock.Anything)
}
