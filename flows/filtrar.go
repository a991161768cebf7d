package flows

import (
	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/records"
)

// Filtrar lists records matching a value on one dimension: nome (normalized
// substring), data (exact day) or status (normalized substring).
func Filtrar(d Deps) *conversation.Flow {
	const (
		stCategoria conversation.State = "await_categoria"
		stDimensao  conversation.State = "await_dimensao"
		stValor     conversation.State = "await_valor"
	)

	return &conversation.Flow{
		ID:    "filtrar",
		Entry: stCategoria,
		Start: func(c tele.Context, _ *conversation.Session) error {
			return helpers.SendText(c, "🔍 Filtrar registros. Qual a categoria? (followups, visitas, interacoes, contratos, lembretes)")
		},
		Steps: map[conversation.State]conversation.StepFunc{
			stCategoria: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				categoria, ok := parseCategory(input(c))
				if !ok {
					_ = helpers.SendText(c, msgBadCategory)
					return conversation.Stay(), nil
				}
				s.Put("categoria", categoria)
				_ = helpers.SendText(c, "Filtrar por qual campo? (nome, data, status)")
				return conversation.Goto(stDimensao), nil
			},
			stDimensao: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				switch records.Normalize(input(c)) {
				case "nome", "data", "status":
					s.Put("dimensao", records.Normalize(input(c)))
				default:
					_ = helpers.SendText(c, "Campo inválido. Escolha: nome, data ou status.")
					return conversation.Stay(), nil
				}
				if s.StringVal("dimensao") == "data" {
					_ = helpers.SendText(c, "Qual data? (DD/MM/AAAA)")
				} else {
					_ = helpers.SendText(c, "Qual valor?")
				}
				return conversation.Goto(stValor), nil
			},
			stValor: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				value := input(c)
				if value == "" {
					_ = helpers.SendText(c, msgEmptyInput)
					return conversation.Stay(), nil
				}
				categoria := s.StringVal("categoria")
				dimensao := s.StringVal("dimensao")

				if dimensao == "data" {
					day, err := ParseDate(value)
					if err != nil {
						_ = helpers.SendText(c, msgBadDate)
						return conversation.Stay(), nil
					}
					// Unpadded entries like 1/04/2025 must still match.
					value = day.Format(records.DisplayDateLayout)
				}

				recs, err := d.Store.Query(helpers.BuildContext(c), s.ChatID, categoria, 0)
				if err != nil {
					return conversation.Stay(), err
				}
				matched := filterByDimension(recs, categoria, dimensao, value)
				if len(matched) == 0 {
					_ = helpers.SendText(c, "Nenhum registro corresponde ao filtro.")
					return conversation.End(), nil
				}
				_ = helpers.SendText(c, "🔍 Registros encontrados:\n"+records.NumberedList(matched, 0))
				return conversation.End(), nil
			},
		},
	}
}

// nameField is the free-text field the nome dimension inspects.
func nameField(category string) string {
	switch category {
	case records.CategoryVisits:
		return "empresa"
	case records.CategoryReminders:
		return "texto"
	default:
		return "cliente"
	}
}

// statusOf derives the status string for filtering. Reminders have no
// stored status, so the delivery state stands in for it.
func statusOf(rec records.Record) string {
	if rec.Category == records.CategoryReminders {
		if rec.Fields.Bool("enviado") {
			return "enviado"
		}
		return records.StatusPending
	}
	return rec.Fields.String("status")
}

func filterByDimension(recs []records.Record, category, dimension, value string) []records.Record {
	var matched []records.Record
	for _, rec := range recs {
		var hit bool
		switch dimension {
		case "nome":
			hit = records.MatchesNormalized(rec.Fields.String(nameField(category)), value)
		case "status":
			hit = records.MatchesNormalized(statusOf(rec), value)
		case "data":
			hit = recordDisplayDate(rec) == value
		}
		if hit {
			matched = append(matched, rec)
		}
	}
	return matched
}

// recordDisplayDate formats the record's business date (creation time when
// the category carries none) in DD/MM/YYYY for exact comparison.
func recordDisplayDate(rec records.Record) string {
	field := records.DateField(rec.Category)
	if field == "" {
		return rec.CreatedAt.Format(records.DisplayDateLayout)
	}
	raw := rec.Fields.String(field)
	if t, err := records.ParseStorageDate(raw); err == nil {
		return t.Format(records.DisplayDateLayout)
	}
	if t, err := records.ParseStorageDateTime(raw); err == nil {
		return t.Format(records.DisplayDateLayout)
	}
	return ""
}
