package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/felipevm/vendasbot/core/logger"
	"log/slog"
)

// ErrNotFound is returned when a record does not exist for the given owner.
var ErrNotFound = errors.New("records: not found")

// Store is the narrow document-store interface the flows and jobs consume.
type Store interface {
	Create(ctx context.Context, chatID int64, category string, fields Fields) (string, error)
	Get(ctx context.Context, chatID int64, category, id string) (*Record, error)
	Update(ctx context.Context, chatID int64, category, id string, partial Fields) error
	Delete(ctx context.Context, chatID int64, category, id string) error
	Query(ctx context.Context, chatID int64, category string, limit int) ([]Record, error)
	Chats(ctx context.Context) ([]int64, error)
}

// SQLStore implements Store on PostgreSQL, one JSONB document per record.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Create inserts a new record and returns its assigned id.
func (s *SQLStore) Create(ctx context.Context, chatID int64, category string, fields Fields) (string, error) {
	if !ValidCategory(category) {
		return "", fmt.Errorf("records: unknown category %q", category)
	}
	id := uuid.NewString()
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, chat_id, category, fields, created_at) VALUES ($1, $2, $3, $4, NOW())`,
		id, chatID, category, fields,
	)
	if err != nil {
		logger.SVCRecords.Error("create failed",
			slog.String("event", "records.create"),
			slog.String("category", category),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("records: create %s: %w", category, err)
	}
	logger.SVCRecords.Debug("record created",
		slog.String("event", "records.create"),
		slog.String("category", category),
		slog.Int64("chat_id", chatID),
		slog.String("record_id", id),
		slog.Duration("duration", logger.Took(start)),
	)
	return id, nil
}

// Get returns a single record owned by chatID, or ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, chatID int64, category, id string) (*Record, error) {
	var rec Record
	err := s.db.GetContext(ctx, &rec,
		`SELECT id, chat_id, category, fields, created_at FROM records
		 WHERE id = $1 AND chat_id = $2 AND category = $3`,
		id, chatID, category,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("records: get %s/%s: %w", category, id, err)
	}
	return &rec, nil
}

// Update merges partial fields into an existing record document.
func (s *SQLStore) Update(ctx context.Context, chatID int64, category, id string, partial Fields) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET fields = fields || $1 WHERE id = $2 AND chat_id = $3 AND category = $4`,
		partial, id, chatID, category,
	)
	if err != nil {
		return fmt.Errorf("records: update %s/%s: %w", category, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("records: update rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	logger.SVCRecords.Debug("record updated",
		slog.String("event", "records.update"),
		slog.String("category", category),
		slog.Int64("chat_id", chatID),
		slog.String("record_id", id),
	)
	return nil
}

// Delete removes a record owned by chatID.
func (s *SQLStore) Delete(ctx context.Context, chatID int64, category, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE id = $1 AND chat_id = $2 AND category = $3`,
		id, chatID, category,
	)
	if err != nil {
		return fmt.Errorf("records: delete %s/%s: %w", category, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("records: delete rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	logger.SVCRecords.Debug("record deleted",
		slog.String("event", "records.delete"),
		slog.String("category", category),
		slog.Int64("chat_id", chatID),
		slog.String("record_id", id),
	)
	return nil
}

// Query lists records of a category for one chat, newest first.
// limit <= 0 means no limit.
func (s *SQLStore) Query(ctx context.Context, chatID int64, category string, limit int) ([]Record, error) {
	q := `SELECT id, chat_id, category, fields, created_at FROM records
	      WHERE chat_id = $1 AND category = $2 ORDER BY created_at DESC`
	args := []any{chatID, category}
	if limit > 0 {
		q += ` LIMIT $3`
		args = append(args, limit)
	}
	var recs []Record
	if err := s.db.SelectContext(ctx, &recs, q, args...); err != nil {
		return nil, fmt.Errorf("records: query %s: %w", category, err)
	}
	return recs, nil
}

// Chats returns every chat identifier that owns at least one record.
func (s *SQLStore) Chats(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, `SELECT DISTINCT chat_id FROM records ORDER BY chat_id`); err != nil {
		return nil, fmt.Errorf("records: chats: %w", err)
	}
	return ids, nil
}
