package conversation

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// State names one step of a flow. Values are short snake_case strings so
// they read well in logs ("await_client", "confirm_delete").
type State string

type transitionKind int

const (
	transitionStay transitionKind = iota
	transitionGoto
	transitionEnd
)

// Transition is the outcome of a step handler: remain on the current step
// (re-prompt), advance to another step, or finish the flow.
type Transition struct {
	kind transitionKind
	next State
}

// Stay keeps the session on its current step, typically after a validation
// failure where the handler re-prompted the user.
func Stay() Transition { return Transition{kind: transitionStay} }

// Goto advances the session to the given step.
func Goto(next State) Transition { return Transition{kind: transitionGoto, next: next} }

// End finishes the flow and destroys the session.
func End() Transition { return Transition{kind: transitionEnd} }

// StepFunc handles one text message while the session sits on its step.
// It sends any replies itself and returns where the session goes next.
type StepFunc func(c tele.Context, s *Session) (Transition, error)

// CallbackFunc handles one inline-button press bound to an action key.
// payload is the portion of the callback data after the action key.
type CallbackFunc func(c tele.Context, s *Session, payload string) (Transition, error)

// Flow is a declarative multi-turn conversation: an entry prompt, a set of
// named steps consuming text, and a set of named actions consuming button
// presses. Flows are registered once at startup and shared by all chats;
// per-chat state lives in the Session.
type Flow struct {
	// ID identifies the flow in sessions and logs ("followup", "rota").
	ID string

	// Entry is the step the session starts on after Start runs.
	Entry State

	// Start sends the flow's opening prompt. The session already exists
	// when it runs, so it may seed Scratch.
	Start func(c tele.Context, s *Session) error

	// Steps maps states to their text handlers.
	Steps map[State]StepFunc

	// Callbacks maps action keys to button handlers. Keys must be unique
	// across all registered flows since buttons dispatch globally.
	Callbacks map[string]CallbackFunc

	// Timeout overrides the engine's inactivity timeout when positive.
	Timeout time.Duration
}
