package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
	"github.com/rocketscienceinc/gomoku-arena/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func newRecord(id string, finishedAfter time.Duration) *entity.MatchRecord {
	return &entity.MatchRecord{
		ID:        id,
		BoardSize: entity.DefaultBoardSize,
		Players:   map[entity.Mark]string{entity.PlayerX: "alpha", entity.PlayerO: "beta"},
		Winner:    entity.WinnerOutcome(entity.PlayerX),
		MoveHistory: []entity.Move{
			{Row: 7, Col: 7, Player: entity.PlayerX},
			{Row: 0, Col: 0, Player: entity.PlayerO},
		},
		FallbackMoves: 1,
		StartedAt:     baseTime,
		FinishedAt:    baseTime.Add(finishedAfter),
	}
}

// runMatchRepositoryTests checks the behaviour every archive backend shares.
func runMatchRepositoryTests(t *testing.T, ctx context.Context, newRepo func(t *testing.T) MatchRepository) {
	t.Helper()

	t.Run("Save then GetByID returns the record", func(t *testing.T) {
		repo := newRepo(t)

		// Given: a stored record
		record := newRecord("m1", time.Minute)
		require.NoError(t, repo.Save(ctx, record))

		// When: reading it back
		got, err := repo.GetByID(ctx, "m1")

		// Then: it matches what was saved
		require.NoError(t, err)
		assert.Equal(t, record, got)
	})

	t.Run("GetByID on a missing id returns ErrMatchNotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByID(ctx, "missing")

		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})

	t.Run("List returns the newest records first", func(t *testing.T) {
		repo := newRepo(t)

		// Given: three matches saved in order
		for i := range 3 {
			require.NoError(t, repo.Save(ctx, newRecord(fmt.Sprintf("m%d", i), time.Duration(i)*time.Minute)))
		}

		// When: listing two of them
		records, err := repo.List(ctx, 2)

		// Then: the two latest come back newest first
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "m2", records[0].ID)
		assert.Equal(t, "m1", records[1].ID)
	})

	t.Run("Saving the same id twice keeps one entry", func(t *testing.T) {
		repo := newRepo(t)

		record := newRecord("dup", time.Minute)
		require.NoError(t, repo.Save(ctx, record))
		record.Winner = entity.OutcomeTie
		require.NoError(t, repo.Save(ctx, record))

		records, err := repo.List(ctx, 10)

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, entity.OutcomeTie, records[0].Winner)
	})
}

func TestRedisMatchRepository(t *testing.T) {
	ctx, st := suite.NewRedis(t)

	runMatchRepositoryTests(t, ctx, func(t *testing.T) MatchRepository {
		require.NoError(t, st.Redis.FlushDB(ctx).Err())
		return NewRedisMatchRepository(st.Redis, DefaultRetention)
	})

	t.Run("Trims the id list to the retention", func(t *testing.T) {
		require.NoError(t, st.Redis.FlushDB(ctx).Err())
		repo := NewRedisMatchRepository(st.Redis, 2)

		for i := range 4 {
			require.NoError(t, repo.Save(ctx, newRecord(fmt.Sprintf("m%d", i), time.Duration(i)*time.Minute)))
		}

		length, err := st.Redis.LLen(ctx, matchListKey).Result()
		require.NoError(t, err)
		assert.EqualValues(t, 2, length)
	})
}
