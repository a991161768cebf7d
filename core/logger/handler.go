package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type logFormat int

const (
	formatJSON logFormat = iota
	formatKV
)

// defaultKeyOrder fixes the leading keys of every log line so that grep/awk
// pipelines and humans see a stable layout.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "msg", "status", "rid", "handler",
	"update_id", "chat_id", "user_id", "duration_ms", "err", "err_code", "cause",
}

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders records as ordered KV or JSON lines through the
// shared async writer.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if len(cfg.keyOrder) == 0 {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

// Enabled implements slog.Handler.
func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.cfg.level != nil {
		min = h.cfg.level.Level()
	}
	return level >= min
}

// WithAttrs implements slog.Handler.
func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

// WithGroup implements slog.Handler; groups flatten into dotted key prefixes.
func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

type pair struct {
	key string
	val any
}

type pairSet struct {
	pairs []pair
	index map[string]int
}

func newPairSet() *pairSet {
	return &pairSet{index: make(map[string]int, 16)}
}

func (p *pairSet) set(key string, val any) {
	if i, ok := p.index[key]; ok {
		p.pairs[i].val = val
		return
	}
	p.index[key] = len(p.pairs)
	p.pairs = append(p.pairs, pair{key: key, val: val})
}

func (p *pairSet) has(key string) bool {
	_, ok := p.index[key]
	return ok
}

func (p *pairSet) get(key string) (any, bool) {
	if i, ok := p.index[key]; ok {
		return p.pairs[i].val, true
	}
	return nil, false
}

// Handle implements slog.Handler.
func (h *structuredHandler) Handle(ctx context.Context, rec slog.Record) error {
	if h.cfg.writer == nil {
		return nil
	}

	set := newPairSet()
	ts := rec.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	set.set("ts", ts.Format(time.RFC3339Nano))
	set.set("level", rec.Level.String())

	for _, a := range h.attrs {
		appendAttr(set, "", a)
	}
	rec.Attrs(func(a slog.Attr) bool {
		appendAttr(set, h.prefix, a)
		return true
	})
	if rec.Message != "" {
		set.set("msg", rec.Message)
	}

	if rid := RIDFrom(ctx); rid != "" && !set.has("rid") {
		set.set("rid", rid)
	}
	if handler := HandlerFrom(ctx); handler != "" && !set.has("handler") {
		set.set("handler", handler)
	}
	if id := UpdateIDFrom(ctx); id != 0 && !set.has("update_id") {
		set.set("update_id", id)
	}
	if id := ChatIDFrom(ctx); id != 0 && !set.has("chat_id") {
		set.set("chat_id", id)
	}
	if id := UserIDFrom(ctx); id != 0 && !set.has("user_id") {
		set.set("user_id", id)
	}

	var line []byte
	if h.cfg.format == formatKV {
		line = renderKV(set, h.cfg.keyOrder, ts)
	} else {
		line = renderJSON(set, h.cfg.keyOrder, ts)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func appendAttr(set *pairSet, prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	val := a.Value.Resolve()
	if val.Kind() == slog.KindGroup {
		for _, ga := range val.Group() {
			appendAttr(set, prefix+a.Key+".", ga)
		}
		return
	}
	set.set(prefix+a.Key, val.Any())
}

func orderedKeys(set *pairSet, keyOrder []string) []string {
	keys := make([]string, 0, len(set.pairs))
	seen := make(map[string]struct{}, len(set.pairs))
	for _, k := range keyOrder {
		if set.has(k) {
			keys = append(keys, k)
			seen[k] = struct{}{}
		}
	}
	for _, p := range set.pairs {
		if _, ok := seen[p.key]; !ok {
			keys = append(keys, p.key)
		}
	}
	return keys
}

func renderKV(set *pairSet, keyOrder []string, _ time.Time) []byte {
	b := &strings.Builder{}
	for i, key := range orderedKeys(set, keyOrder) {
		val, _ := set.get(key)
		if key == "rid" {
			if s, ok := val.(string); ok {
				val = CompactRID(s)
			}
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(kvValue(val))
	}
	return []byte(b.String())
}

func kvValue(val any) string {
	s := ""
	switch v := val.(type) {
	case string:
		s = v
	case time.Duration:
		s = v.String()
	case error:
		s = v.Error()
	default:
		s = fmt.Sprint(v)
	}
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

func renderJSON(set *pairSet, keyOrder []string, ts time.Time) []byte {
	b := &strings.Builder{}
	b.WriteByte('{')
	first := true
	writeField := func(key string, val any) {
		data, err := json.Marshal(val)
		if err != nil {
			data, _ = json.Marshal(fmt.Sprint(val))
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		keyJSON, _ := json.Marshal(key)
		b.Write(keyJSON)
		b.WriteByte(':')
		b.Write(data)
	}
	for _, key := range orderedKeys(set, keyOrder) {
		val, _ := set.get(key)
		if key == "rid" {
			if s, ok := val.(string); ok {
				writeField("rid", CompactRID(s))
				writeField("rid_full", s)
				continue
			}
		}
		switch v := val.(type) {
		case time.Duration:
			writeField(key, v.String())
		case error:
			writeField(key, v.Error())
		default:
			writeField(key, v)
		}
	}
	writeField("ts_unix_nano", ts.UnixNano())
	b.WriteByte('}')
	return []byte(b.String())
}
