package records

import (
	"fmt"
	"strings"
)

// DisplayLine renders a one-line summary of a record following the per-kind
// template used in listings (edit, delete, filter, digests).
func DisplayLine(rec Record) string {
	f := rec.Fields
	switch rec.Category {
	case CategoryFollowups:
		return fmt.Sprintf("%s — %s — %s (%s)",
			f.String("cliente"), DisplayDate(f.String("data_follow")), f.String("descricao"), f.String("status"))
	case CategoryVisits:
		return fmt.Sprintf("%s — %s — %s",
			f.String("empresa"), DisplayDate(f.String("data_visita")), f.String("motivo"))
	case CategoryInteractions:
		return fmt.Sprintf("%s — %s — %s",
			f.String("cliente"), f.String("tipo"), f.String("descricao"))
	case CategoryContracts:
		return fmt.Sprintf("%s — R$ %.2f — %d meses — %s (%s)",
			f.String("cliente"), f.Float("valor"), int(f.Float("meses")),
			DisplayDate(f.String("data_inicio")), f.String("status"))
	case CategoryReminders:
		sent := "pendente"
		if f.Bool("enviado") {
			sent = "enviado"
		}
		return fmt.Sprintf("%s — %s (%s)",
			f.String("texto"), DisplayDate(f.String("data_hora")), sent)
	}
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}

// NumberedList renders up to limit records as a numbered listing.
func NumberedList(recs []Record, limit int) string {
	if limit <= 0 || limit > len(recs) {
		limit = len(recs)
	}
	b := &strings.Builder{}
	for i := 0; i < limit; i++ {
		fmt.Fprintf(b, "%d. %s\n", i+1, DisplayLine(recs[i]))
	}
	return b.String()
}
