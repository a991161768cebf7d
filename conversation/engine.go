package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/core/logger"
	"github.com/felipevm/vendasbot/core/telegram/callbacks"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
)

// Reply texts shared by every flow. User-facing copy is Portuguese.
const (
	msgCancelled    = "Operação cancelada."
	msgInternalErr  = "Ocorreu um erro ao processar sua solicitação. Tente novamente mais tarde."
	msgStaleButton  = "Essa opção não está mais ativa. Use um comando para começar de novo."
	msgFlowReplaced = "A operação anterior foi descartada."
)

const defaultSessionTimeout = 300 * time.Second

// cancelWords end any active flow when received as a text message, in any
// letter case. "/cancelar" also works mid-flow because active sessions
// consume command-shaped text before the command router sees it.
var cancelWords = map[string]struct{}{
	"/cancelar": {},
	"cancelar":  {},
}

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	// SessionTimeout discards sessions silent for longer than this.
	SessionTimeout time.Duration
	// SweepInterval is how often the janitor scans for stale sessions.
	SweepInterval time.Duration
}

type actionBinding struct {
	flow *Flow
	fn   CallbackFunc
}

// Engine runs registered flows: it owns the per-chat sessions, feeds text
// messages to the current step, dispatches button presses by action key,
// and reaps abandoned sessions. One instance serves the whole bot.
type Engine struct {
	mu       sync.RWMutex
	flows    map[string]*Flow
	actions  map[string]actionBinding
	sessions map[int64]*Session

	timeout time.Duration
	sweep   time.Duration
}

func NewEngine(opts Options) *Engine {
	timeout := opts.SessionTimeout
	if timeout <= 0 {
		timeout = defaultSessionTimeout
	}
	sweep := opts.SweepInterval
	if sweep <= 0 {
		sweep = timeout / 10
		if sweep < time.Second {
			sweep = time.Second
		}
	}
	return &Engine{
		flows:    make(map[string]*Flow),
		actions:  make(map[string]actionBinding),
		sessions: make(map[int64]*Session),
		timeout:  timeout,
		sweep:    sweep,
	}
}

// Register adds a flow. It fails on duplicate flow IDs, duplicate action
// keys across flows, or a flow whose Entry step has no handler.
func (e *Engine) Register(f *Flow) error {
	if f == nil || f.ID == "" {
		return fmt.Errorf("conversation: flow without id")
	}
	if f.Start == nil {
		return fmt.Errorf("conversation: flow %q has no start prompt", f.ID)
	}
	if _, ok := f.Steps[f.Entry]; !ok {
		return fmt.Errorf("conversation: flow %q entry step %q has no handler", f.ID, f.Entry)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.flows[f.ID]; exists {
		return fmt.Errorf("conversation: flow %q already registered", f.ID)
	}
	for key := range f.Callbacks {
		if prev, exists := e.actions[key]; exists {
			return fmt.Errorf("conversation: action %q claimed by both %q and %q", key, prev.flow.ID, f.ID)
		}
	}
	e.flows[f.ID] = f
	for key, fn := range f.Callbacks {
		e.actions[key] = actionBinding{flow: f, fn: fn}
	}
	return nil
}

// Actions lists every registered callback action key, sorted. The app
// layer uses it to bind each key in the callback registry.
func (e *Engine) Actions() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.actions))
	for key := range e.actions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// InProgress reports whether the chat has an active session. The text
// router uses it to decide between the engine and the command table.
func (e *Engine) InProgress(chatID int64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.sessions[chatID]
	return ok
}

// EntryHandler returns the command handler that starts the given flow.
// Starting a flow while another is active discards the old one first.
func (e *Engine) EntryHandler(flowID string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return e.start(c, flowID)
	}
}

func (e *Engine) start(c tele.Context, flowID string) error {
	e.mu.RLock()
	flow := e.flows[flowID]
	e.mu.RUnlock()
	if flow == nil {
		return fmt.Errorf("conversation: unknown flow %q", flowID)
	}

	chatID := c.Chat().ID
	s := newSession(chatID, flowID, flow.Entry)

	s.mu.Lock()
	defer s.mu.Unlock()
	e.mu.Lock()
	replaced, had := e.sessions[chatID]
	e.sessions[chatID] = s
	e.mu.Unlock()

	ctx := helpers.BuildContext(c)
	if had {
		logger.Info(ctx, "conv", "session.replaced",
			slog.String("old_flow", replaced.FlowID),
			slog.String("new_flow", flowID))
		_ = helpers.SendText(c, msgFlowReplaced)
	}
	logger.Debug(ctx, "conv", "session.start",
		slog.String("flow", flowID),
		slog.String("step", string(flow.Entry)))

	if err := flow.Start(c, s); err != nil {
		return e.fail(c, s, "start", err)
	}
	return nil
}

// HandleText feeds one text message to the chat's active session. The text
// router guarantees it is only called while InProgress is true, but a
// session may still vanish in between (janitor, concurrent cancel); in
// that case the message is dropped and the router's fallback never runs,
// which matches how users experience an expired conversation.
func (e *Engine) HandleText(c tele.Context) error {
	chatID := c.Chat().ID
	e.mu.RLock()
	s := e.sessions[chatID]
	e.mu.RUnlock()
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !e.alive(s) {
		return nil
	}

	text := strings.TrimSpace(c.Text())
	if _, cancel := cancelWords[strings.ToLower(text)]; cancel {
		return e.cancelLocked(c, s)
	}

	flow := e.flowOf(s)
	step, ok := flow.Steps[s.Step]
	if !ok {
		// A session pointing at an unknown step means a flow wiring bug.
		logger.Error(helpers.BuildContext(c), "conv", "session.step_missing",
			slog.String("flow", s.FlowID),
			slog.String("step", string(s.Step)))
		e.remove(s)
		return helpers.SendText(c, msgInternalErr)
	}

	tr, err := step(c, s)
	if err != nil {
		return e.fail(c, s, string(s.Step), err)
	}
	e.apply(c, s, tr)
	return nil
}

// CallbackHandler returns the handler the callback registry dispatches to
// for one action key. A press arriving without a matching live session is
// answered with a stale-button notice instead of starting anything.
func (e *Engine) CallbackHandler(action string) tele.HandlerFunc {
	return func(c tele.Context) error {
		e.mu.RLock()
		binding, ok := e.actions[action]
		e.mu.RUnlock()
		if !ok {
			return fmt.Errorf("conversation: action %q not registered", action)
		}

		chatID := c.Chat().ID
		e.mu.RLock()
		s := e.sessions[chatID]
		e.mu.RUnlock()
		if s == nil || s.FlowID != binding.flow.ID {
			logger.Warn(helpers.BuildContext(c), "conv", "callback.stale",
				slog.String("action", action))
			_ = c.Respond(&tele.CallbackResponse{})
			return helpers.SendText(c, msgStaleButton)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !e.alive(s) {
			_ = c.Respond(&tele.CallbackResponse{})
			return helpers.SendText(c, msgStaleButton)
		}

		tr, err := binding.fn(c, s, callbacks.Payload(c))
		if err != nil {
			return e.fail(c, s, action, err)
		}
		e.apply(c, s, tr)
		return nil
	}
}

// CancelHandler ends whatever flow is active. It backs both the /cancelar
// command (when no session is consuming text) and the shared cancel button.
func (e *Engine) CancelHandler() tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			_ = c.Respond(&tele.CallbackResponse{})
		}
		chatID := c.Chat().ID
		e.mu.RLock()
		s := e.sessions[chatID]
		e.mu.RUnlock()
		if s == nil {
			return helpers.SendText(c, "Nenhuma operação em andamento.")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if !e.alive(s) {
			return helpers.SendText(c, "Nenhuma operação em andamento.")
		}
		return e.cancelLocked(c, s)
	}
}

// Run owns the janitor: stale sessions are discarded without notifying the
// chat, so an abandoned flow simply stops reacting. Blocks until ctx ends.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepStale(ctx)
		}
	}
}

func (e *Engine) sweepStale(ctx context.Context) {
	now := time.Now()
	var stale []*Session
	e.mu.Lock()
	for chatID, s := range e.sessions {
		timeout := e.timeout
		if f := e.flows[s.FlowID]; f != nil && f.Timeout > 0 {
			timeout = f.Timeout
		}
		if now.Sub(s.UpdatedAt) > timeout {
			delete(e.sessions, chatID)
			stale = append(stale, s)
		}
	}
	e.mu.Unlock()
	for _, s := range stale {
		logger.Info(ctx, "conv", "session.expired",
			slog.String("flow", s.FlowID),
			slog.String("step", string(s.Step)),
			slog.Int64("chat_id", s.ChatID),
			slog.Int64("idle_s", int64(now.Sub(s.UpdatedAt).Seconds())))
	}
}

func (e *Engine) flowOf(s *Session) *Flow {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.flows[s.FlowID]
}

// alive reports whether s is still the chat's registered session. A
// handler that dequeued s before the janitor or a replacement removed it
// must not act on the detached copy.
func (e *Engine) alive(s *Session) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sessions[s.ChatID] == s
}

func (e *Engine) remove(s *Session) {
	e.mu.Lock()
	if e.sessions[s.ChatID] == s {
		delete(e.sessions, s.ChatID)
	}
	e.mu.Unlock()
}

func (e *Engine) apply(c tele.Context, s *Session, tr Transition) {
	switch tr.kind {
	case transitionStay:
		s.touch()
	case transitionGoto:
		logger.Debug(helpers.BuildContext(c), "conv", "session.step",
			slog.String("flow", s.FlowID),
			slog.String("from", string(s.Step)),
			slog.String("to", string(tr.next)))
		s.Step = tr.next
		s.touch()
	case transitionEnd:
		logger.Debug(helpers.BuildContext(c), "conv", "session.end",
			slog.String("flow", s.FlowID),
			slog.String("step", string(s.Step)))
		e.remove(s)
	}
}

func (e *Engine) cancelLocked(c tele.Context, s *Session) error {
	logger.Info(helpers.BuildContext(c), "conv", "session.cancelled",
		slog.String("flow", s.FlowID),
		slog.String("step", string(s.Step)))
	e.remove(s)
	return helpers.SendText(c, msgCancelled)
}

// fail tears the session down after a collaborator error: the user gets a
// generic apology, the log gets the detail, partial scratch is dropped.
func (e *Engine) fail(c tele.Context, s *Session, where string, err error) error {
	logger.Error(helpers.BuildContext(c), "conv", "session.failed",
		slog.String("flow", s.FlowID),
		slog.String("at", where),
		slog.String("err", err.Error()))
	e.remove(s)
	return helpers.SendText(c, msgInternalErr)
}
