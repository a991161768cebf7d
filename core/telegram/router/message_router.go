package router

import (
	"time"

	tg "github.com/felipevm/vendasbot/core/telegram"
	"github.com/felipevm/vendasbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Engine is the minimal interface the text router needs from the
// conversation engine.
type Engine interface {
	InProgress(chatID int64) bool
	HandleText(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the tele.OnText route: an active conversation session wins,
// then command lookup by text, then the registry fallback.
func TextRoutes(engine Engine, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if engine != nil && c.Chat() != nil && engine.InProgress(c.Chat().ID) {
			return handleWithSummary(c, "conversation", start, "", "", func() error {
				return engine.HandleText(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}
