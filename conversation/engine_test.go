package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the slice of tele.Context the engine touches.
// Everything else panics via the embedded nil interface, which is what we
// want: a test reaching an unstubbed method is a test with a wiring bug.
type fakeContext struct {
	tele.Context

	chat *tele.Chat
	text string
	cb   *tele.Callback

	mu    sync.Mutex
	store map[string]any
	sent  []string
}

func newFakeContext(chatID int64, text string) *fakeContext {
	return &fakeContext{
		chat:  &tele.Chat{ID: chatID},
		text:  text,
		store: make(map[string]any),
	}
}

func (f *fakeContext) Chat() *tele.Chat         { return f.chat }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Sender() *tele.User       { return &tele.User{ID: f.chat.ID} }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }

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

func (f *fakeContext) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

// twoStepFlow asks for a name, then a note, then confirms.
func twoStepFlow(id string) *Flow {
	return &Flow{
		ID:    id,
		Entry: "await_name",
		Start: func(c tele.Context, _ *Session) error {
			return c.Send("Qual o nome?")
		},
		Steps: map[State]StepFunc{
			"await_name": func(c tele.Context, s *Session) (Transition, error) {
				if c.Text() == "" {
					_ = c.Send("Nome inválido. Informe novamente.")
					return Stay(), nil
				}
				s.Put("nome", c.Text())
				_ = c.Send("Qual a observação?")
				return Goto("await_note"), nil
			},
			"await_note": func(c tele.Context, s *Session) (Transition, error) {
				s.Put("nota", c.Text())
				_ = c.Send("Registrado.")
				return End(), nil
			},
		},
	}
}

func TestRegisterRejectsBadFlows(t *testing.T) {
	e := NewEngine(Options{})

	err := e.Register(&Flow{ID: "broken", Entry: "x", Start: func(tele.Context, *Session) error { return nil }})
	require.Error(t, err, "entry step without handler must be rejected")

	require.NoError(t, e.Register(twoStepFlow("followup")))
	require.Error(t, e.Register(twoStepFlow("followup")), "duplicate flow id must be rejected")
}

func TestRegisterRejectsDuplicateActions(t *testing.T) {
	e := NewEngine(Options{})
	cb := func(tele.Context, *Session, string) (Transition, error) { return End(), nil }

	a := twoStepFlow("a")
	a.Callbacks = map[string]CallbackFunc{"pick": cb}
	b := twoStepFlow("b")
	b.Callbacks = map[string]CallbackFunc{"pick": cb}

	require.NoError(t, e.Register(a))
	require.Error(t, e.Register(b))
}

func TestFlowRunsToCompletion(t *testing.T) {
	e := NewEngine(Options{})
	require.NoError(t, e.Register(twoStepFlow("followup")))

	start := newFakeContext(10, "/followup")
	require.NoError(t, e.EntryHandler("followup")(start))
	assert.True(t, e.InProgress(10))
	assert.Equal(t, []string{"Qual o nome?"}, start.sentMessages())

	require.NoError(t, e.HandleText(newFakeContext(10, "Acme Corp")))
	assert.True(t, e.InProgress(10))

	require.NoError(t, e.HandleText(newFakeContext(10, "ligar sexta")))
	assert.False(t, e.InProgress(10), "terminal transition must destroy the session")
}

func TestValidationFailureKeepsStep(t *testing.T) {
	e := NewEngine(Options{})
	require.NoError(t, e.Register(twoStepFlow("followup")))
	require.NoError(t, e.EntryHandler("followup")(newFakeContext(10, "/followup")))

	bad := newFakeContext(10, "")
	require.NoError(t, e.HandleText(bad))
	assert.Contains(t, bad.sentMessages(), "Nome inválido. Informe novamente.")
	assert.True(t, e.InProgress(10))

	// A valid answer still lands on the same step afterwards.
	require.NoError(t, e.HandleText(newFakeContext(10, "Acme Corp")))
	require.NoError(t, e.HandleText(newFakeContext(10, "ok")))
	assert.False(t, e.InProgress(10))
}

func TestStartingFlowReplacesActiveOne(t *testing.T) {
	e := NewEngine(Options{})
	require.NoError(t, e.Register(twoStepFlow("followup")))
	require.NoError(t, e.Register(twoStepFlow("visita")))

	require.NoError(t, e.EntryHandler("followup")(newFakeContext(10, "/followup")))
	require.NoError(t, e.HandleText(newFakeContext(10, "Acme Corp")))

	second := newFakeContext(10, "/visita")
	require.NoError(t, e.EntryHandler("visita")(second))
	assert.Contains(t, second.sentMessages(), msgFlowReplaced)

	// The new session starts from its own entry step.
	require.NoError(t, e.HandleText(newFakeContext(10, "Beta Ltda")))
	require.NoError(t, e.HandleText(newFakeContext(10, "visita técnica")))
	assert.False(t, e.InProgress(10))
}

func TestCancelWordEndsFlow(t *testing.T) {
	e := NewEngine(Options{})
	require.NoError(t, e.Register(twoStepFlow("followup")))
	require.NoError(t, e.EntryHandler("followup")(newFakeContext(10, "/followup")))

	for _, word := range []string{"cancelar", "CANCELAR", "/cancelar"} {
		require.NoError(t, e.EntryHandler("followup")(newFakeContext(10, "/followup")))
		cancel := newFakeContext(10, word)
		require.NoError(t, e.HandleText(cancel))
		assert.Contains(t, cancel.sentMessages(), msgCancelled, "word %q", word)
		assert.False(t, e.InProgress(10), "word %q", word)
	}
}

func TestCancelHandlerWithoutSession(t *testing.T) {
	e := NewEngine(Options{})
	c := newFakeContext(10, "/cancelar")
	require.NoError(t, e.CancelHandler()(c))
	assert.Contains(t, c.sentMessages(), "Nenhuma operação em andamento.")
}

func TestCollaboratorErrorTearsDown(t *testing.T) {
	e := NewEngine(Options{})
	f := twoStepFlow("followup")
	f.Steps["await_note"] = func(tele.Context, *Session) (Transition, error) {
		return Stay(), assert.AnError
	}
	require.NoError(t, e.Register(f))

	require.NoError(t, e.EntryHandler("followup")(newFakeContext(10, "/followup")))
	require.NoError(t, e.HandleText(newFakeContext(10, "Acme Corp")))

	boom := newFakeContext(10, "qualquer coisa")
	require.NoError(t, e.HandleText(boom))
	assert.Contains(t, boom.sentMessages(), msgInternalErr)
	assert.False(t, e.InProgress(10), "failed session must not linger")
}

func TestCallbackDispatchAndStaleButton(t *testing.T) {
	e := NewEngine(Options{})

	var gotPayload string
	f := twoStepFlow("excluir")
	f.Callbacks = map[string]CallbackFunc{
		"confirm_delete": func(c tele.Context, _ *Session, payload string) (Transition, error) {
			gotPayload = payload
			_ = c.Send("Excluído.")
			return End(), nil
		},
	}
	require.NoError(t, e.Register(f))
	handler := e.CallbackHandler("confirm_delete")

	// Press without any live session.
	stale := newFakeContext(10, "")
	stale.cb = &tele.Callback{Data: "confirm_delete|rec-1"}
	require.NoError(t, handler(stale))
	assert.Contains(t, stale.sentMessages(), msgStaleButton)

	// Press with the owning flow active.
	require.NoError(t, e.EntryHandler("excluir")(newFakeContext(10, "/excluir")))
	press := newFakeContext(10, "")
	press.cb = &tele.Callback{Data: "confirm_delete|rec-1"}
	require.NoError(t, handler(press))
	assert.Equal(t, "rec-1", gotPayload)
	assert.False(t, e.InProgress(10))
}

func TestCallbackFromOtherFlowIsStale(t *testing.T) {
	e := NewEngine(Options{})
	f := twoStepFlow("excluir")
	f.Callbacks = map[string]CallbackFunc{
		"confirm_delete": func(tele.Context, *Session, string) (Transition, error) { return End(), nil },
	}
	require.NoError(t, e.Register(f))
	require.NoError(t, e.Register(twoStepFlow("followup")))

	// Session belongs to "followup"; the button belongs to "excluir".
	require.NoError(t, e.EntryHandler("followup")(newFakeContext(10, "/followup")))
	press := newFakeContext(10, "")
	press.cb = &tele.Callback{Data: "confirm_delete|rec-1"}
	require.NoError(t, e.CallbackHandler("confirm_delete")(press))
	assert.Contains(t, press.sentMessages(), msgStaleButton)
	assert.True(t, e.InProgress(10), "foreign button must not kill the active flow")
}

func TestSweepDiscardsStaleSessionsSilently(t *testing.T) {
	e := NewEngine(Options{SessionTimeout: 20 * time.Millisecond, SweepInterval: 5 * time.Millisecond})
	require.NoError(t, e.Register(twoStepFlow("followup")))

	start := newFakeContext(10, "/followup")
	require.NoError(t, e.EntryHandler("followup")(start))
	require.True(t, e.InProgress(10))

	time.Sleep(40 * time.Millisecond)
	e.sweepStale(context.Background())
	assert.False(t, e.InProgress(10))
	// Silent discard: nothing beyond the original prompt was sent.
	assert.Equal(t, []string{"Qual o nome?"}, start.sentMessages())
}

func TestChatsDoNotShareSessions(t *testing.T) {
	e := NewEngine(Options{})
	require.NoError(t, e.Register(twoStepFlow("followup")))

	require.NoError(t, e.EntryHandler("followup")(newFakeContext(10, "/followup")))
	require.NoError(t, e.EntryHandler("followup")(newFakeContext(20, "/followup")))

	require.NoError(t, e.HandleText(newFakeContext(10, "Acme Corp")))
	require.NoError(t, e.HandleText(newFakeContext(10, "nota")))
	assert.False(t, e.InProgress(10))
	assert.True(t, e.InProgress(20), "ending one chat's flow must not touch another's")
}

func TestScratchSurvivesAcrossSteps(t *testing.T) {
	e := NewEngine(Options{})

	var nome, nota string
	f := twoStepFlow("followup")
	inner := f.Steps["await_note"]
	f.Steps["await_note"] = func(c tele.Context, s *Session) (Transition, error) {
		tr, err := inner(c, s)
		nome = s.StringVal("nome")
		nota = s.StringVal("nota")
		return tr, err
	}
	require.NoError(t, e.Register(f))

	require.NoError(t, e.EntryHandler("followup")(newFakeContext(10, "/followup")))
	require.NoError(t, e.HandleText(newFakeContext(10, "Acme Corp")))
	require.NoError(t, e.HandleText(newFakeContext(10, "ligar sexta")))
	assert.Equal(t, "Acme Corp", nome)
	assert.Equal(t, "ligar sexta", nota)
}
