package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used by tests and local development. It
// mirrors SQLStore semantics: per-chat partitioning, newest-first Query,
// merge-style Update, ErrNotFound on missing rows.
type MemStore struct {
	mu   sync.Mutex
	rows map[int64]map[string][]Record
	// now is swappable so tests can control CreatedAt ordering.
	now func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		rows: make(map[int64]map[string][]Record),
		now:  time.Now,
	}
}

func (m *MemStore) Create(_ context.Context, chatID int64, category string, fields Fields) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[chatID] == nil {
		m.rows[chatID] = make(map[string][]Record)
	}
	rec := Record{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Category:  category,
		Fields:    fields.Clone(),
		CreatedAt: m.now(),
	}
	m.rows[chatID][category] = append(m.rows[chatID][category], rec)
	return rec.ID, nil
}

func (m *MemStore) Get(_ context.Context, chatID int64, category, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.rows[chatID][category] {
		if rec.ID == id {
			out := rec
			out.Fields = rec.Fields.Clone()
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) Update(_ context.Context, chatID int64, category, id string, partial Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.rows[chatID][category]
	for i := range recs {
		if recs[i].ID == id {
			for k, v := range partial {
				recs[i].Fields[k] = v
			}
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemStore) Delete(_ context.Context, chatID int64, category, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.rows[chatID][category]
	for i := range recs {
		if recs[i].ID == id {
			m.rows[chatID][category] = append(recs[:i:i], recs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemStore) Query(_ context.Context, chatID int64, category string, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.rows[chatID][category]
	out := make([]Record, len(recs))
	for i, rec := range recs {
		out[i] = rec
		out[i].Fields = rec.Fields.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) Chats(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chats := make([]int64, 0, len(m.rows))
	for chatID := range m.rows {
		chats = append(chats, chatID)
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	return chats, nil
}
