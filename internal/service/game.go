package service

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
)

const DefaultListLimit = 20

type MatchService interface {
	SaveMatch(ctx context.Context, record *entity.MatchRecord) error

	GetMatchByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	ListMatches(ctx context.Context, limit int) ([]*entity.MatchRecord, error)
}

type matchRepo interface {
	Save(ctx context.Context, record *entity.MatchRecord) error

	GetByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	List(ctx context.Context, limit int) ([]*entity.MatchRecord, error)
}

type matchService struct {
	matchRepo matchRepo
	maxLimit  int
}

// NewMatchService wraps an archive backend. maxLimit caps how many records one listing returns.
func NewMatchService(matchRepo matchRepo, maxLimit int) MatchService {
	if maxLimit < 1 {
		maxLimit = DefaultListLimit
	}

	return &matchService{
		matchRepo: matchRepo,
		maxLimit:  maxLimit,
	}
}

func (that *matchService) SaveMatch(ctx context.Context, record *entity.MatchRecord) error {
	if err := that.matchRepo.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}
	return nil
}

func (that *matchService) GetMatchByID(ctx context.Context, id string) (*entity.MatchRecord, error) {
	record, err := that.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve match from storage: %w", err)
	}
	return record, nil
}

func (that *matchService) ListMatches(ctx context.Context, limit int) ([]*entity.MatchRecord, error) {
	if limit < 1 || limit > that.maxLimit {
		limit = that.maxLimit
	}

	records, err := that.matchRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches from storage: %w", err)
	}
	return records, nil
}
