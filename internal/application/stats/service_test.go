package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/turo-backend/internal/domain"
)

type mockStatsStore struct{ mock.Mock }

func (m *mockStatsStore) RecordRegistration(ctx context.Context, role string, now time.Time) error {
	return m.Called(ctx, role, now).Error(0)
}
func (m *mockStatsStore) ResetDaily(ctx context.Context, now time.Time) error {
	return m.Called(ctx, now).Error(0)
}

var fixedNow = time.Date(2026, 5, 1, 16, 0, 0, 0, time.UTC)

func newService(repo *mockStatsStore) Service {
	return NewService(ServiceDeps{StatsRepo: repo, Now: func() time.Time { return fixedNow }})
}

func TestOnUserVerified_UsesDocumentRole(t *testing.T) {
	repo := &mockStatsStore{}
	repo.On("RecordRegistration", mock.Anything, "mentor", fixedNow).Return(nil).Once()

	newService(repo).OnUserVerified(context.Background(), "u1", domain.Document{"role": "mentor"})
	repo.AssertExpectations(t)
}

func TestOnUserVerified_DefaultsToMentee(t *testing.T) {
	for _, doc := range []domain.Document{{}, {"role": ""}, {"role": 7.0}, nil} {
		repo := &mockStatsStore{}
		repo.On("RecordRegistration", mock.Anything, "mentee", fixedNow).Return(nil).Once()

		newService(repo).OnUserVerified(context.Background(), "u1", doc)
		repo.AssertExpectations(t)
	}
}

func TestOnUserVerified_SwallowsFailure(t *testing.T) {
	repo := &mockStatsStore{}
	repo.On("RecordRegistration", mock.Anything, "mentee", fixedNow).Return(errors.New("transaction conflict"))

	assert.NotPanics(t, func() {
		newService(repo).OnUserVerified(context.Background(), "u1", domain.Document{})
	})
}

func TestResetDaily(t *testing.T) {
	repo := &mockStatsStore{}
	repo.On("ResetDaily", mock.Anything, fixedNow).Return(nil)
	assert.NoError(t, newService(repo).ResetDaily(context.Background()))
}

func TestResetDaily_PropagatesFailure(t *testing.T) {
	repo := &mockStatsStore{}
	repo.On("ResetDaily", mock.Anything, fixedNow).Return(errors.New("throttled"))
	assert.Error(t, newService(repo).ResetDaily(context.Background()))
}
