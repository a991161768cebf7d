// Package callbacks decodes Telebot callback data into an action key and an
// opaque payload. Inline buttons carry "\f<unique>|<payload>"; dispatching on
// the decoded key (never on the raw string) keeps button routing independent
// from whatever step a conversation has advanced to.
package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Decode parses Telebot's \f<unique>|<payload> encoding into its parts.
func Decode(cb *tele.Callback) (action, payload string) {
	if cb == nil {
		return "", ""
	}
	raw := strings.TrimPrefix(cb.Data, "\\f")
	parts := strings.SplitN(raw, "|", 2)
	action = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		payload = parts[1]
	}
	return action, payload
}

// Key returns cb.Unique when present, otherwise the action parsed from Data.
func Key(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	k, _ := Decode(cb)
	return k
}

// Payload returns the payload portion (after '|') of the callback data.
func Payload(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	// prefer cb.Data since cb.Unique may be empty in generic OnCallback
	_, payload := Decode(cb)
	return payload
}

// PayloadInt parses the callback payload as int.
func PayloadInt(c tele.Context) (int, error) {
	return strconv.Atoi(Payload(c))
}

// PayloadInt64 parses the callback payload as int64.
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(Payload(c), 10, 64)
}

// PayloadParts splits the callback payload using the given separator.
func PayloadParts(c tele.Context, sep string) ([]string, error) {
	p := Payload(c)
	if p == "" {
		return nil, strconv.ErrSyntax
	}
	return strings.Split(p, sep), nil
}
