package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipevm/vendasbot/records"
)

type fakeSender struct {
	mu   sync.Mutex
	sent map[int64][]string
}

func newFakeSender() *fakeSender { return &fakeSender{sent: make(map[int64][]string)} }

func (f *fakeSender) SendTo(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[chatID] = append(f.sent[chatID], text)
	return nil
}

func (f *fakeSender) messages(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent[chatID]))
	copy(out, f.sent[chatID])
	return out
}

func TestScheduleOnceFires(t *testing.T) {
	s := New(context.Background())
	fired := make(chan struct{})
	s.ScheduleOnce(time.Now().Add(10*time.Millisecond), func(context.Context) { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("job did not fire")
	}
}

func TestScheduleOnceCancel(t *testing.T) {
	s := New(context.Background())
	fired := make(chan struct{})
	h := s.ScheduleOnce(time.Now().Add(30*time.Millisecond), func(context.Context) { close(fired) })
	h.Cancel()
	h.Cancel() // second cancel is a no-op

	select {
	case <-fired:
		t.Fatal("cancelled job fired")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestScheduleOnceStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx)
	fired := make(chan struct{})
	s.ScheduleOnce(time.Now().Add(30*time.Millisecond), func(context.Context) { close(fired) })
	cancel()
	s.Wait()

	select {
	case <-fired:
		t.Fatal("job fired after scheduler context ended")
	default:
	}
}

func reminderFields(text string, when time.Time, sent bool) records.Fields {
	return records.Fields{
		"texto":     text,
		"data_hora": records.FormatStorageDateTime(when),
		"enviado":   sent,
	}
}

func TestReminderDeliveryMarksSent(t *testing.T) {
	ctx := context.Background()
	store := records.NewMemStore()
	sender := newFakeSender()
	r := NewReminders(store, sender, New(ctx))

	id, err := store.Create(ctx, 10, records.CategoryReminders, reminderFields("ligar para Acme", time.Now(), false))
	require.NoError(t, err)

	r.deliver(ctx, 10, id)

	msgs := sender.messages(10)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "ligar para Acme")

	rec, err := store.Get(ctx, 10, records.CategoryReminders, id)
	require.NoError(t, err)
	assert.True(t, rec.Fields.Bool("enviado"))

	// A second delivery attempt is a no-op once marked.
	r.deliver(ctx, 10, id)
	assert.Len(t, sender.messages(10), 1)
}

func TestRearmPendingSchedulesOnlyUnsent(t *testing.T) {
	ctx := context.Background()
	store := records.NewMemStore()
	sender := newFakeSender()
	sched := New(ctx)
	r := NewReminders(store, sender, sched)

	// Already delivered: must stay quiet.
	_, err := store.Create(ctx, 10, records.CategoryReminders, reminderFields("antigo", time.Now().Add(-time.Hour), true))
	require.NoError(t, err)
	// Overdue but unsent: delivered right away.
	overdueID, err := store.Create(ctx, 10, records.CategoryReminders, reminderFields("atrasado", time.Now().Add(-time.Hour), false))
	require.NoError(t, err)

	require.NoError(t, r.RearmPending(ctx))

	deadline := time.Now().Add(time.Second)
	for len(sender.messages(10)) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	msgs := sender.messages(10)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "atrasado")

	rec, err := store.Get(ctx, 10, records.CategoryReminders, overdueID)
	require.NoError(t, err)
	assert.True(t, rec.Fields.Bool("enviado"))
}

func TestDailyDigestListsTodayOnly(t *testing.T) {
	ctx := context.Background()
	store := records.NewMemStore()
	today := records.FormatStorageDate(time.Now())

	_, err := store.Create(ctx, 10, records.CategoryFollowups, records.Fields{
		"cliente": "Acme", "data_follow": today, "descricao": "ligar", "status": records.StatusPending,
	})
	require.NoError(t, err)
	_, err = store.Create(ctx, 10, records.CategoryFollowups, records.Fields{
		"cliente": "Beta", "data_follow": "2020-01-01", "descricao": "x", "status": records.StatusPending,
	})
	require.NoError(t, err)
	_, err = store.Create(ctx, 10, records.CategoryVisits, records.Fields{
		"empresa": "Gama", "data_visita": today, "motivo": "venda",
	})
	require.NoError(t, err)

	d := NewDigests(store, newFakeSender(), DigestConfig{})
	text, err := d.dailyDigest(ctx, 10)
	require.NoError(t, err)
	assert.Contains(t, text, "Acme")
	assert.NotContains(t, text, "Beta")
	assert.Contains(t, text, "Gama")
}

func TestWeeklyDigestSkipsChatsWithNothingPending(t *testing.T) {
	ctx := context.Background()
	store := records.NewMemStore()
	_, err := store.Create(ctx, 10, records.CategoryFollowups, records.Fields{
		"cliente": "Acme", "data_follow": "2025-04-10", "descricao": "x", "status": "realizado",
	})
	require.NoError(t, err)

	d := NewDigests(store, newFakeSender(), DigestConfig{})
	text, err := d.weeklyDigest(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestWeeklyDigestSummarizesPendingWork(t *testing.T) {
	ctx := context.Background()
	store := records.NewMemStore()
	_, err := store.Create(ctx, 10, records.CategoryContracts, records.Fields{
		"cliente": "Acme", "valor": 1000.0, "meses": 12.0,
		"data_inicio": "2025-04-10", "status": records.StatusPending,
	})
	require.NoError(t, err)

	d := NewDigests(store, newFakeSender(), DigestConfig{})
	text, err := d.weeklyDigest(ctx, 10)
	require.NoError(t, err)
	assert.Contains(t, text, "Contratos pendentes (1, R$ 1000.00)")
	assert.Contains(t, text, "Acme")
}
