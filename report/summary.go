// Package report turns record sets into the artifacts the report flow
// sends: a text summary, a bar chart image, and a spreadsheet export.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/felipevm/vendasbot/records"
)

// Summary aggregates one category over one period.
type Summary struct {
	Category string
	From, To time.Time
	Total    int
	ByStatus map[string]int
	// TotalValue sums contract values; zero for other categories.
	TotalValue float64
	// Matched keeps the records inside the period, newest first, for the
	// spreadsheet export.
	Matched []records.Record
}

// Build filters recs to the [from, to] period (inclusive, date precision)
// and aggregates counts and contract value sums. Records whose category
// has no business date are matched on creation time.
func Build(category string, recs []records.Record, from, to time.Time) *Summary {
	s := &Summary{
		Category: category,
		From:     from,
		To:       to,
		ByStatus: make(map[string]int),
	}
	for _, rec := range recs {
		day, ok := recordDay(rec)
		if !ok || day.Before(dateOnly(from)) || day.After(dateOnly(to)) {
			continue
		}
		s.Total++
		s.Matched = append(s.Matched, rec)
		if status := rec.Fields.String("status"); status != "" {
			s.ByStatus[status]++
		}
		if category == records.CategoryContracts {
			s.TotalValue += rec.Fields.Float("valor")
		}
	}
	return s
}

// Text renders the user-facing summary in the listing style of the bot.
func (s *Summary) Text() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "📊 Relatório de %s — %s a %s\n",
		records.CategoryLabel(s.Category),
		s.From.Format(records.DisplayDateLayout),
		s.To.Format(records.DisplayDateLayout))
	fmt.Fprintf(b, "Total no período: %d\n", s.Total)
	for _, status := range sortedKeys(s.ByStatus) {
		fmt.Fprintf(b, "• %s: %d\n", status, s.ByStatus[status])
	}
	if s.Category == records.CategoryContracts {
		fmt.Fprintf(b, "Valor total: R$ %.2f\n", s.TotalValue)
	}
	return strings.TrimRight(b.String(), "\n")
}

func recordDay(rec records.Record) (time.Time, bool) {
	field := records.DateField(rec.Category)
	if field == "" {
		return dateOnly(rec.CreatedAt), true
	}
	raw := rec.Fields.String(field)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := records.ParseStorageDate(raw); err == nil {
		return dateOnly(t), true
	}
	if t, err := records.ParseStorageDateTime(raw); err == nil {
		return dateOnly(t), true
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
