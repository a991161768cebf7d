package flows

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/core/telegram/keyboard"
	"github.com/felipevm/vendasbot/records"
)

const listLimit = 10

// Editar updates a single field of an existing record: pick category, pick
// record from a numbered listing, pick a field from the category's allowed
// set, provide the new value.
func Editar(d Deps) *conversation.Flow {
	const (
		stCategoria conversation.State = "await_categoria"
		stPick      conversation.State = "await_pick"
		stField     conversation.State = "await_field"
		stValor     conversation.State = "await_valor"
	)

	pickRecord := func(c tele.Context, s *conversation.Session, id string) (conversation.Transition, error) {
		categoria := s.StringVal("categoria")
		if _, err := d.Store.Get(helpers.BuildContext(c), s.ChatID, categoria, id); err != nil {
			return conversation.Stay(), err
		}
		s.Put("record_id", id)
		fields := records.EditableFields(categoria)
		buttons := make([]keyboard.InlineBtn, len(fields))
		for i, name := range fields {
			buttons[i] = keyboard.InlineBtn{Text: name, Unique: "edit_field", Data: name}
		}
		_ = helpers.SendText(c, "Qual campo deseja alterar?",
			&tele.SendOptions{ReplyMarkup: keyboard.InlineButtonsNPerRow(buttons, 2)})
		return conversation.Goto(stField), nil
	}

	pickField := func(c tele.Context, s *conversation.Session, field string) (conversation.Transition, error) {
		categoria := s.StringVal("categoria")
		if !records.EditableField(categoria, field) {
			_ = helpers.SendText(c, "Campo inválido. Escolha um dos campos listados: "+
				strings.Join(records.EditableFields(categoria), ", "))
			return conversation.Stay(), nil
		}
		s.Put("field", field)
		switch records.KindOf(categoria, field) {
		case records.FieldDate:
			_ = helpers.SendText(c, "Novo valor (DD/MM/AAAA):")
		case records.FieldMoney, records.FieldCount:
			_ = helpers.SendText(c, "Novo valor (número):")
		default:
			_ = helpers.SendText(c, "Novo valor:")
		}
		return conversation.Goto(stValor), nil
	}

	return &conversation.Flow{
		ID:    "editar",
		Entry: stCategoria,
		Start: func(c tele.Context, _ *conversation.Session) error {
			return helpers.SendText(c, "✏️ Editar registro. Qual a categoria? (followups, visitas, interacoes, contratos, lembretes)")
		},
		Steps: map[conversation.State]conversation.StepFunc{
			stCategoria: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				categoria, ok := parseCategory(input(c))
				if !ok {
					_ = helpers.SendText(c, msgBadCategory)
					return conversation.Stay(), nil
				}
				recs, err := d.Store.Query(helpers.BuildContext(c), s.ChatID, categoria, listLimit)
				if err != nil {
					return conversation.Stay(), err
				}
				if len(recs) == 0 {
					_ = helpers.SendText(c, msgNoRecords)
					return conversation.End(), nil
				}
				s.Put("categoria", categoria)
				s.Put("ids", recordIDs(recs))
				_ = helpers.SendText(c, "Qual registro deseja editar?\n"+records.NumberedList(recs, listLimit),
					&tele.SendOptions{ReplyMarkup: pickMarkup("edit_pick", recs)})
				return conversation.Goto(stPick), nil
			},
			stPick: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				id, ok := resolvePickedID(s, input(c))
				if !ok {
					_ = helpers.SendText(c, "Escolha um número da lista.")
					return conversation.Stay(), nil
				}
				return pickRecord(c, s, id)
			},
			stField: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				return pickField(c, s, records.Normalize(input(c)))
			},
			stValor: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				categoria := s.StringVal("categoria")
				field := s.StringVal("field")
				raw := input(c)
				if raw == "" {
					_ = helpers.SendText(c, msgEmptyInput)
					return conversation.Stay(), nil
				}

				var value any
				switch records.KindOf(categoria, field) {
				case records.FieldDate:
					day, err := ParseDate(raw)
					if err != nil {
						_ = helpers.SendText(c, msgBadDate)
						return conversation.Stay(), nil
					}
					value = records.FormatStorageDate(day)
				case records.FieldMoney:
					v, err := ParsePositiveFloat(raw)
					if err != nil {
						_ = helpers.SendText(c, msgBadNumber)
						return conversation.Stay(), nil
					}
					value = v
				case records.FieldCount:
					v, err := ParsePositiveInt(raw)
					if err != nil {
						_ = helpers.SendText(c, msgBadNumber)
						return conversation.Stay(), nil
					}
					value = v
				default:
					value = raw
				}

				err := d.Store.Update(helpers.BuildContext(c), s.ChatID, categoria, s.StringVal("record_id"),
					records.Fields{field: value})
				if err != nil {
					return conversation.Stay(), err
				}
				_ = helpers.SendText(c, "✅ Registro atualizado.")
				return conversation.End(), nil
			},
		},
		Callbacks: map[string]conversation.CallbackFunc{
			"edit_pick": func(c tele.Context, s *conversation.Session, payload string) (conversation.Transition, error) {
				_ = c.Respond(&tele.CallbackResponse{})
				return pickRecord(c, s, payload)
			},
			"edit_field": func(c tele.Context, s *conversation.Session, payload string) (conversation.Transition, error) {
				_ = c.Respond(&tele.CallbackResponse{})
				return pickField(c, s, payload)
			},
		},
	}
}
