package flows

import (
	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/format"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/records"
)

// Excluir deletes a record after an explicit Sim/Não confirmation.
func Excluir(d Deps) *conversation.Flow {
	const (
		stCategoria conversation.State = "await_categoria"
		stPick      conversation.State = "await_pick"
		stConfirm   conversation.State = "await_confirm"
	)

	askConfirm := func(c tele.Context, s *conversation.Session, id string) (conversation.Transition, error) {
		rec, err := d.Store.Get(helpers.BuildContext(c), s.ChatID, s.StringVal("categoria"), id)
		if err != nil {
			return conversation.Stay(), err
		}
		s.Put("record_id", id)
		line, err := format.EscapeMarkdown(records.DisplayLine(*rec), format.MarkdownV1)
		if err != nil {
			return conversation.Stay(), err
		}
		_ = helpers.SendMD(c, "*Confirma a exclusão?*\n"+line, yesNoMarkup("del_confirm"))
		return conversation.Goto(stConfirm), nil
	}

	confirm := func(c tele.Context, s *conversation.Session, yes bool) (conversation.Transition, error) {
		if !yes {
			_ = helpers.SendText(c, "Exclusão cancelada.")
			return conversation.End(), nil
		}
		err := d.Store.Delete(helpers.BuildContext(c), s.ChatID, s.StringVal("categoria"), s.StringVal("record_id"))
		if err != nil {
			return conversation.Stay(), err
		}
		_ = helpers.SendText(c, "🗑 Registro excluído.")
		return conversation.End(), nil
	}

	return &conversation.Flow{
		ID:    "excluir",
		Entry: stCategoria,
		Start: func(c tele.Context, _ *conversation.Session) error {
			return helpers.SendText(c, "🗑 Excluir registro. Qual a categoria? (followups, visitas, interacoes, contratos, lembretes)")
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
				_ = helpers.SendText(c, "Qual registro deseja excluir?\n"+records.NumberedList(recs, listLimit),
					&tele.SendOptions{ReplyMarkup: pickMarkup("del_pick", recs)})
				return conversation.Goto(stPick), nil
			},
			stPick: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				id, ok := resolvePickedID(s, input(c))
				if !ok {
					_ = helpers.SendText(c, "Escolha um número da lista.")
					return conversation.Stay(), nil
				}
				return askConfirm(c, s, id)
			},
			stConfirm: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				yes, ok := parseYesNo(input(c))
				if !ok {
					_ = helpers.SendText(c, "Responda Sim ou Não.", &tele.SendOptions{ReplyMarkup: yesNoMarkup("del_confirm")})
					return conversation.Stay(), nil
				}
				return confirm(c, s, yes)
			},
		},
		Callbacks: map[string]conversation.CallbackFunc{
			"del_pick": func(c tele.Context, s *conversation.Session, payload string) (conversation.Transition, error) {
				_ = c.Respond(&tele.CallbackResponse{})
				return askConfirm(c, s, payload)
			},
			"del_confirm": func(c tele.Context, s *conversation.Session, payload string) (conversation.Transition, error) {
				_ = c.Respond(&tele.CallbackResponse{})
				return confirm(c, s, payload == "sim")
			},
		},
	}
}
