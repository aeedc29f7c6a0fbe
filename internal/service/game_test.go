package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errRedisDown = errors.New("redis down")

type mockMatchRepo struct {
	mock.Mock
}

func (that *mockMatchRepo) Save(ctx context.Context, record *entity.MatchRecord) error {
	args := that.Called(ctx, record)
	return args.Error(0)
}

func (that *mockMatchRepo) GetByID(ctx context.Context, id string) (*entity.MatchRecord, error) {
	args := that.Called(ctx, id)
	record, _ := args.Get(0).(*entity.MatchRecord)
	return record, args.Error(1)
}

func (that *mockMatchRepo) List(ctx context.Context, limit int) ([]*entity.MatchRecord, error) {
	args := that.Called(ctx, limit)
	records, _ := args.Get(0).([]*entity.MatchRecord)
	return records, args.Error(1)
}

func TestMatchService_SaveMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Passes the record to storage", func(t *testing.T) {
		// Given: a repository that accepts the record
		repo := &mockMatchRepo{}
		record := &entity.MatchRecord{ID: "m1"}
		repo.On("Save", mock.Anything, record).Return(nil).Once()

		// When: saving
		err := NewMatchService(repo, 10).SaveMatch(ctx, record)

		// Then: it is stored
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Wraps storage errors", func(t *testing.T) {
		repo := &mockMatchRepo{}
		repo.On("Save", mock.Anything, mock.AnythingOfType("*entity.MatchRecord")).Return(errRedisDown).Once()

		err := NewMatchService(repo, 10).SaveMatch(ctx, &entity.MatchRecord{ID: "m1"})

		require.ErrorIs(t, err, errRedisDown)
	})
}

func TestMatchService_GetMatchByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the stored record", func(t *testing.T) {
		repo := &mockMatchRepo{}
		record := &entity.MatchRecord{ID: "m1", Winner: entity.OutcomeTie}
		repo.On("GetByID", mock.Anything, "m1").Return(record, nil).Once()

		got, err := NewMatchService(repo, 10).GetMatchByID(ctx, "m1")

		require.NoError(t, err)
		assert.Equal(t, record, got)
	})

	t.Run("Keeps the not found error visible", func(t *testing.T) {
		repo := &mockMatchRepo{}
		repo.On("GetByID", mock.Anything, "missing").Return(nil, apperror.ErrMatchNotFound).Once()

		_, err := NewMatchService(repo, 10).GetMatchByID(ctx, "missing")

		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})
}

func TestMatchService_ListMatches(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{name: "within the cap", requested: 5, want: 5},
		{name: "above the cap", requested: 500, want: 10},
		{name: "unset", requested: 0, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a repository expecting the clamped limit
			repo := &mockMatchRepo{}
			repo.On("List", mock.Anything, tt.want).Return([]*entity.MatchRecord{}, nil).Once()

			// When: listing with the requested limit
			records, err := NewMatchService(repo, 10).ListMatches(ctx, tt.requested)

			// Then: the repository saw the clamped value
			require.NoError(t, err)
			assert.Empty(t, records)
			repo.AssertExpectations(t)
		})
	}
}
