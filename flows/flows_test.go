package flows

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/lookup"
	"github.com/felipevm/vendasbot/records"
	"github.com/felipevm/vendasbot/schedule"
)

// fakeContext stubs the slice of tele.Context the flows and engine touch.
type fakeContext struct {
	tele.Context

	chat *tele.Chat
	text string
	cb   *tele.Callback

	mu    sync.Mutex
	store map[string]any
	sent  []string
}

func newCtx(chatID int64, text string) *fakeContext {
	return &fakeContext{chat: &tele.Chat{ID: chatID}, text: text, store: make(map[string]any)}
}

func (f *fakeContext) Chat() *tele.Chat                          { return f.chat }
func (f *fakeContext) Text() string                              { return f.text }
func (f *fakeContext) Sender() *tele.User                        { return &tele.User{ID: f.chat.ID} }
func (f *fakeContext) Update() tele.Update                       { return tele.Update{ID: 1} }
func (f *fakeContext) Callback() *tele.Callback                  { return f.cb }
func (f *fakeContext) Respond(_ ...*tele.CallbackResponse) error { return nil }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func (f *fakeContext) Set(key string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = v
}

func (f *fakeContext) Get(key string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key]
}

func (f *fakeContext) allSent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.sent, "\n")
}

type fakeReminders struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeReminders) Schedule(int64, string, time.Time) schedule.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return schedule.Handle{}
}

func (f *fakeReminders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLookup struct {
	byKeyword map[string][]lookup.Place
}

func (f *fakeLookup) Geocode(context.Context, string) (lookup.LatLng, error) {
	return lookup.LatLng{Lat: -23.55, Lng: -46.63}, nil
}

func (f *fakeLookup) Nearby(_ context.Context, _ lookup.LatLng, _ int, keyword string) ([]lookup.Place, error) {
	return f.byKeyword[keyword], nil
}

func (f *fakeLookup) OptimizeRoute(_ context.Context, _ lookup.LatLng, stops []lookup.Place) (*lookup.Itinerary, error) {
	it := &lookup.Itinerary{Stops: stops}
	prev := "Origem"
	for _, s := range stops {
		it.Legs = append(it.Legs, lookup.Leg{From: prev, To: s.Name, DistanceMeters: 1200, Duration: 5 * time.Minute})
		prev = s.Name
	}
	return it, nil
}

type harness struct {
	t         *testing.T
	engine    *conversation.Engine
	store     *records.MemStore
	reminders *fakeReminders
}

func newHarness(t *testing.T, places map[string][]lookup.Place) *harness {
	t.Helper()
	store := records.NewMemStore()
	reminders := &fakeReminders{}
	engine := conversation.NewEngine(conversation.Options{})
	deps := Deps{
		Store:     store,
		Searcher:  lookup.NewSearcher(&fakeLookup{byKeyword: places}, nil),
		Reminders: reminders,
	}
	require.NoError(t, RegisterAll(engine, deps))
	return &harness{t: t, engine: engine, store: store, reminders: reminders}
}

// send routes a message the way the text/command routers would: an active
// session consumes it, otherwise a /command starts its flow.
func (h *harness) send(chatID int64, text string) *fakeContext {
	h.t.Helper()
	c := newCtx(chatID, text)
	if h.engine.InProgress(chatID) {
		require.NoError(h.t, h.engine.HandleText(c))
		return c
	}
	if strings.HasPrefix(text, "/") {
		require.NoError(h.t, h.engine.EntryHandler(strings.TrimPrefix(text, "/"))(c))
		return c
	}
	h.t.Fatalf("message %q has no active session and is not a command", text)
	return nil
}

func (h *harness) press(chatID int64, action, payload string) *fakeContext {
	h.t.Helper()
	c := newCtx(chatID, "")
	c.cb = &tele.Callback{Data: action + "|" + payload}
	require.NoError(h.t, h.engine.CallbackHandler(action)(c))
	return c
}

func (h *harness) query(chatID int64, category string) []records.Record {
	h.t.Helper()
	recs, err := h.store.Query(context.Background(), chatID, category, 0)
	require.NoError(h.t, err)
	return recs
}

func TestFollowupHappyPath(t *testing.T) {
	h := newHarness(t, nil)

	h.send(10, "/followup")
	h.send(10, "Acme Corp")
	h.send(10, "10/04/2025")
	done := h.send(10, "Negotiate pricing")

	assert.Contains(t, done.allSent(), "✅")
	assert.False(t, h.engine.InProgress(10))

	recs := h.query(10, records.CategoryFollowups)
	require.Len(t, recs, 1)
	f := recs[0].Fields
	assert.Equal(t, "Acme Corp", f.String("cliente"))
	assert.Equal(t, "2025-04-10", f.String("data_follow"))
	assert.Equal(t, "Negotiate pricing", f.String("descricao"))
	assert.Equal(t, records.StatusPending, f.String("status"))
}

func TestBadDateKeepsStepAndPersistsNothing(t *testing.T) {
	h := newHarness(t, nil)

	h.send(10, "/followup")
	h.send(10, "Acme Corp")
	bad := h.send(10, "31/02/2025")
	assert.Contains(t, bad.allSent(), "DD/MM/AAAA")
	assert.True(t, h.engine.InProgress(10))
	assert.Empty(t, h.query(10, records.CategoryFollowups))

	// Recovery with a valid date continues from the same step.
	h.send(10, "10/04/2025")
	h.send(10, "ok")
	assert.Len(t, h.query(10, records.CategoryFollowups), 1)
}

func TestCancelClearsScratch(t *testing.T) {
	h := newHarness(t, nil)

	h.send(10, "/followup")
	h.send(10, "Cliente Abandonado")
	cancelled := h.send(10, "cancelar")
	assert.Contains(t, cancelled.allSent(), "cancelada")
	assert.Empty(t, h.query(10, records.CategoryFollowups))

	h.send(10, "/followup")
	h.send(10, "Cliente Novo")
	h.send(10, "10/04/2025")
	h.send(10, "retomar conversa")

	recs := h.query(10, records.CategoryFollowups)
	require.Len(t, recs, 1)
	assert.Equal(t, "Cliente Novo", recs[0].Fields.String("cliente"))
}

func TestVisitaDeclinedFollowUp(t *testing.T) {
	h := newHarness(t, nil)

	h.send(10, "/visita")
	h.send(10, "Beta Ltd")
	h.send(10, "12/04/2025")
	offer := h.send(10, "venda")
	assert.Contains(t, offer.allSent(), "follow-up")

	h.press(10, "visita_follow", "nao")
	assert.False(t, h.engine.InProgress(10))

	assert.Len(t, h.query(10, records.CategoryVisits), 1)
	assert.Empty(t, h.query(10, records.CategoryFollowups))
}

func TestVisitaAcceptedFollowUpCreatesSecondRecord(t *testing.T) {
	h := newHarness(t, nil)

	h.send(10, "/visita")
	h.send(10, "Beta Ltd")
	h.send(10, "12/04/2025")
	h.send(10, "venda")
	h.press(10, "visita_follow", "sim")
	h.send(10, "20/04/2025")
	h.send(10, "retorno da proposta")

	assert.Len(t, h.query(10, records.CategoryVisits), 1)
	recs := h.query(10, records.CategoryFollowups)
	require.Len(t, recs, 1)
	assert.Equal(t, "Beta Ltd", recs[0].Fields.String("cliente"))
	assert.Equal(t, "2025-04-20", recs[0].Fields.String("data_follow"))
}

func TestFollowUpOfferAcceptsTypedAnswer(t *testing.T) {
	h := newHarness(t, nil)

	h.send(10, "/interacao")
	h.send(10, "Acme Corp")
	h.send(10, "ligação")
	h.send(10, "apresentação do produto")
	h.send(10, "não")

	assert.False(t, h.engine.InProgress(10))
	assert.Len(t, h.query(10, records.CategoryInteractions), 1)
	assert.Empty(t, h.query(10, records.CategoryFollowups))
}

func TestFilterStatusIsAccentAndCaseInsensitive(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.store.Create(ctx, 10, records.CategoryFollowups, records.Fields{
		"cliente": "Acme", "data_follow": "2025-04-10", "descricao": "x", "status": "Pendente",
	})
	require.NoError(t, err)
	_, err = h.store.Create(ctx, 10, records.CategoryFollowups, records.Fields{
		"cliente": "Beta", "data_follow": "2025-04-12", "descricao": "y", "status": "realizado",
	})
	require.NoError(t, err)

	h.send(10, "/filtrar")
	h.send(10, "followups")
	h.send(10, "status")
	out := h.send(10, "PENDENTE")

	assert.Contains(t, out.allSent(), "Acme")
	assert.NotContains(t, out.allSent(), "Beta")
	assert.False(t, h.engine.InProgress(10))
}

func TestFilterDateAcceptsUnpaddedInput(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.store.Create(ctx, 10, records.CategoryFollowups, records.Fields{
		"cliente": "Acme", "data_follow": "2025-04-01", "descricao": "x", "status": records.StatusPending,
	})
	require.NoError(t, err)

	h.send(10, "/filtrar")
	h.send(10, "followups")
	h.send(10, "data")
	out := h.send(10, "1/04/2025")

	assert.Contains(t, out.allSent(), "Acme", "unpadded day must match the stored date")
	assert.False(t, h.engine.InProgress(10))
}

func TestReminderRejectsPastAndSchedulesFuture(t *testing.T) {
	h := newHarness(t, nil)

	h.send(10, "/lembrete")
	h.send(10, "ligar para Acme")
	past := h.send(10, "10/04/2020 09:00")
	assert.Contains(t, past.allSent(), "já passou")
	assert.True(t, h.engine.InProgress(10))
	assert.Empty(t, h.query(10, records.CategoryReminders))
	assert.Zero(t, h.reminders.count())

	future := time.Now().Add(48 * time.Hour).Format("02/01/2006 15:04")
	h.send(10, future)
	assert.False(t, h.engine.InProgress(10))

	recs := h.query(10, records.CategoryReminders)
	require.Len(t, recs, 1)
	assert.Equal(t, "ligar para Acme", recs[0].Fields.String("texto"))
	assert.False(t, recs[0].Fields.Bool("enviado"))
	assert.Equal(t, 1, h.reminders.count(), "exactly one delivery job per reminder")
}

func TestEditFlowUpdatesSingleField(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	id, err := h.store.Create(ctx, 10, records.CategoryFollowups, records.Fields{
		"cliente": "Acme", "data_follow": "2025-04-10", "descricao": "x", "status": records.StatusPending,
	})
	require.NoError(t, err)

	h.send(10, "/editar")
	h.send(10, "followups")
	h.send(10, "1")
	h.press(10, "edit_field", "data_follow")
	h.send(10, "15/04/2025")

	rec, err := h.store.Get(ctx, 10, records.CategoryFollowups, id)
	require.NoError(t, err)
	assert.Equal(t, "2025-04-15", rec.Fields.String("data_follow"))
	assert.Equal(t, "Acme", rec.Fields.String("cliente"), "other fields untouched")
}

func TestEditRejectsFieldOutsideAllowedSet(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.store.Create(ctx, 10, records.CategoryReminders, records.Fields{
		"texto": "ligar", "data_hora": records.FormatStorageDateTime(time.Now().Add(time.Hour)), "enviado": false,
	})
	require.NoError(t, err)

	h.send(10, "/editar")
	h.send(10, "lembretes")
	h.send(10, "1")
	bad := h.send(10, "data_hora")
	assert.Contains(t, bad.allSent(), "Campo inválido")
	assert.True(t, h.engine.InProgress(10))
}

func TestDeleteFlowRequiresConfirmation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	id, err := h.store.Create(ctx, 10, records.CategoryFollowups, records.Fields{
		"cliente": "Acme", "data_follow": "2025-04-10", "descricao": "x", "status": records.StatusPending,
	})
	require.NoError(t, err)

	// Declined: record stays.
	h.send(10, "/excluir")
	h.send(10, "followups")
	h.press(10, "del_pick", id)
	h.press(10, "del_confirm", "nao")
	assert.Len(t, h.query(10, records.CategoryFollowups), 1)

	// Confirmed: record goes.
	h.send(10, "/excluir")
	h.send(10, "followups")
	h.press(10, "del_pick", id)
	h.press(10, "del_confirm", "sim")
	assert.Empty(t, h.query(10, records.CategoryFollowups))
}

func TestDeleteConfirmationEscapesMarkdown(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	id, err := h.store.Create(ctx, 10, records.CategoryFollowups, records.Fields{
		"cliente": "Acme_Vendas", "data_follow": "2025-04-10", "descricao": "ligar", "status": records.StatusPending,
	})
	require.NoError(t, err)

	h.send(10, "/excluir")
	h.send(10, "followups")
	out := h.press(10, "del_pick", id)

	// The confirmation goes out as Markdown, so the client name's
	// underscore must arrive escaped or Telegram rejects the message.
	assert.Contains(t, out.allSent(), "Confirma a exclusão?")
	assert.Contains(t, out.allSent(), `Acme\_Vendas`)
}

func TestBuscaFormatsResults(t *testing.T) {
	h := newHarness(t, map[string][]lookup.Place{
		"padaria": {
			{Name: "Padoca do Zé", Address: "Rua A, 10", Rating: 4.5},
			{Name: "Pão Quente", Address: "Rua B, 20"},
		},
	})

	h.send(10, "/busca")
	h.send(10, "padaria")
	h.send(10, "Centro, São Paulo")
	h.send(10, "2")
	out := h.send(10, "5")

	assert.Contains(t, out.allSent(), "1. Padoca do Zé — Rua A, 10 (⭐ 4.5)")
	assert.Contains(t, out.allSent(), "2. Pão Quente — Rua B, 20")
	assert.False(t, h.engine.InProgress(10))
}

func TestBuscaNoResults(t *testing.T) {
	h := newHarness(t, map[string][]lookup.Place{})

	h.send(10, "/busca")
	h.send(10, "padaria")
	h.send(10, "Centro")
	h.send(10, "2")
	out := h.send(10, "5")

	assert.Contains(t, out.allSent(), "Nenhum estabelecimento encontrado")
	assert.False(t, h.engine.InProgress(10))
}

func TestRotaAppendsItinerary(t *testing.T) {
	h := newHarness(t, map[string][]lookup.Place{
		"mercado": {
			{Name: "Mercado Azul", Address: "Rua A, 10"},
			{Name: "Empório Sul", Address: "Rua B, 20"},
		},
	})

	h.send(10, "/rota")
	h.send(10, "mercado")
	h.send(10, "Centro")
	h.send(10, "3")
	out := h.send(10, "5")

	assert.Contains(t, out.allSent(), "🗺 Roteiro otimizado:")
	assert.Contains(t, out.allSent(), "Origem → Mercado Azul: 1.2 km, 5 min")
	assert.False(t, h.engine.InProgress(10))
}

func TestRelatorioValidatesPeriod(t *testing.T) {
	h := newHarness(t, nil)

	h.send(10, "/relatorio")
	h.send(10, "followups")
	bad := h.send(10, "30/04/2025 a 01/04/2025")
	assert.Contains(t, bad.allSent(), "Período inválido")
	assert.True(t, h.engine.InProgress(10))

	out := h.send(10, "01/04/2025 a 30/04/2025")
	assert.Contains(t, out.allSent(), "Total no período: 0")
	assert.False(t, h.engine.InProgress(10))
}
