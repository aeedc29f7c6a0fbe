package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
)

const (
	matchKeyPrefix = "match:"
	matchListKey   = "matches"

	// DefaultRetention is how many finished matches a store keeps.
	DefaultRetention = 100
)

type MatchRepository interface {
	Save(ctx context.Context, record *entity.MatchRecord) error

	GetByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	List(ctx context.Context, limit int) ([]*entity.MatchRecord, error)
}

type redisMatch struct {
	client    *redis.Client
	retention int
}

// NewRedisMatchRepository stores records as JSON under match:<id> and keeps the newest ids
// in the matches list, trimmed to retention entries.
func NewRedisMatchRepository(client *redis.Client, retention int) MatchRepository {
	if retention < 1 {
		retention = DefaultRetention
	}

	return &redisMatch{
		client:    client,
		retention: retention,
	}
}

func (that *redisMatch) Save(ctx context.Context, record *entity.MatchRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, matchKeyPrefix+record.ID, recordJSON, 0)
		pipe.LRem(ctx, matchListKey, 0, record.ID)
		pipe.LPush(ctx, matchListKey, record.ID)
		pipe.LTrim(ctx, matchListKey, 0, int64(that.retention-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	return nil
}

func (that *redisMatch) GetByID(ctx context.Context, id string) (*entity.MatchRecord, error) {
	response, err := that.client.Get(ctx, matchKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	var record entity.MatchRecord
	if err = json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &record, nil
}

func (that *redisMatch) List(ctx context.Context, limit int) ([]*entity.MatchRecord, error) {
	ids, err := that.client.LRange(ctx, matchListKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list match ids: %w", err)
	}

	records := make([]*entity.MatchRecord, 0, len(ids))
	for _, id := range ids {
		record, err := that.GetByID(ctx, id)
		if errors.Is(err, apperror.ErrMatchNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}
