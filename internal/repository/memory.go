package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
)

// memoryMatch keeps encoded records so callers never share memory with the store.
type memoryMatch struct {
	mu        sync.RWMutex
	records   map[string][]byte
	order     []string // newest first
	retention int
}

func NewMemoryMatchRepository(retention int) MatchRepository {
	if retention < 1 {
		retention = DefaultRetention
	}

	return &memoryMatch{
		records:   make(map[string][]byte),
		retention: retention,
	}
}

func (that *memoryMatch) Save(_ context.Context, record *entity.MatchRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.records[record.ID]; ok {
		that.order = slices.DeleteFunc(that.order, func(id string) bool { return id == record.ID })
	}

	that.records[record.ID] = recordJSON
	that.order = slices.Insert(that.order, 0, record.ID)

	for len(that.order) > that.retention {
		evicted := that.order[len(that.order)-1]
		that.order = that.order[:len(that.order)-1]
		delete(that.records, evicted)
	}

	return nil
}

func (that *memoryMatch) GetByID(_ context.Context, id string) (*entity.MatchRecord, error) {
	that.mu.RLock()
	data, ok := that.records[id]
	that.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrMatchNotFound
	}

	return decodeRecord(data)
}

func (that *memoryMatch) List(_ context.Context, limit int) ([]*entity.MatchRecord, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	count := len(that.order)
	if limit > 0 {
		count = min(limit, count)
	}

	records := make([]*entity.MatchRecord, 0, count)
	for _, id := range that.order[:count] {
		record, err := decodeRecord(that.records[id])
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}
