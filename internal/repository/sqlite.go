package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
)

type sqliteMatch struct {
	db *sql.DB
}

// NewSQLiteMatchRepository expects the matches table created by sqlite.Storage.Init.
func NewSQLiteMatchRepository(db *sql.DB) MatchRepository {
	return &sqliteMatch{
		db: db,
	}
}

func (that *sqliteMatch) Save(ctx context.Context, record *entity.MatchRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	query := `INSERT OR REPLACE INTO matches (id, finished_at, data) VALUES (?, ?, ?)`
	if _, err = that.db.ExecContext(ctx, query, record.ID, record.FinishedAt.UnixNano(), recordJSON); err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	return nil
}

func (that *sqliteMatch) GetByID(ctx context.Context, id string) (*entity.MatchRecord, error) {
	var data []byte

	err := that.db.QueryRowContext(ctx, `SELECT data FROM matches WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	return decodeRecord(data)
}

func (that *sqliteMatch) List(ctx context.Context, limit int) ([]*entity.MatchRecord, error) {
	rows, err := that.db.QueryContext(ctx, `SELECT data FROM matches ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var records []*entity.MatchRecord
	for rows.Next() {
		var data []byte
		if err = rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}

		record, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}

	return records, nil
}

func decodeRecord(data []byte) (*entity.MatchRecord, error) {
	var record entity.MatchRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &record, nil
}
