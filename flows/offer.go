package flows

import (
	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/records"
)

// Steps shared by every flow that offers a follow-up after saving its
// primary record.
const (
	stepFollowChoice conversation.State = "await_follow_choice"
	stepFollowData   conversation.State = "await_follow_data"
	stepFollowMotivo conversation.State = "await_follow_motivo"
)

const (
	msgOfferFollowUp  = "Deseja agendar um follow-up?"
	msgFollowDeclined = "Combinado, nada mais a fazer. ✅"
	msgAskFollowData  = "Data do follow-up (DD/MM/AAAA):"
	msgAskFollowWhy   = "Qual o motivo do follow-up?"
)

// offerFollowUp sends the Sim/Não question and parks the session on the
// choice step. The answer may arrive as a button press or typed text.
func offerFollowUp(c tele.Context, action string) conversation.Transition {
	_ = helpers.SendText(c, msgOfferFollowUp, &tele.SendOptions{ReplyMarkup: yesNoMarkup(action)})
	return conversation.Goto(stepFollowChoice)
}

// attachFollowUpOffer adds the choice/date/reason steps and the button
// callback to f. clientKey names the scratch entry holding the client or
// company the secondary follow-up record is filed under.
func attachFollowUpOffer(f *conversation.Flow, d Deps, action, clientKey string) {
	accept := func(c tele.Context) conversation.Transition {
		_ = helpers.SendText(c, msgAskFollowData)
		return conversation.Goto(stepFollowData)
	}
	decline := func(c tele.Context) conversation.Transition {
		_ = helpers.SendText(c, msgFollowDeclined)
		return conversation.End()
	}

	f.Steps[stepFollowChoice] = func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
		yes, ok := parseYesNo(input(c))
		if !ok {
			_ = helpers.SendText(c, "Responda Sim ou Não.", &tele.SendOptions{ReplyMarkup: yesNoMarkup(action)})
			return conversation.Stay(), nil
		}
		if yes {
			return accept(c), nil
		}
		return decline(c), nil
	}

	f.Steps[stepFollowData] = askDate("follow_data", msgAskFollowWhy, stepFollowMotivo)

	f.Steps[stepFollowMotivo] = func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
		motivo := input(c)
		if motivo == "" {
			_ = helpers.SendText(c, msgEmptyInput)
			return conversation.Stay(), nil
		}
		fields := records.Fields{
			"cliente":     s.StringVal(clientKey),
			"data_follow": s.StringVal("follow_data"),
			"descricao":   motivo,
			"status":      records.StatusPending,
		}
		if _, err := d.Store.Create(helpers.BuildContext(c), s.ChatID, records.CategoryFollowups, fields); err != nil {
			return conversation.Stay(), err
		}
		_ = helpers.SendText(c, "✅ Follow-up agendado para "+records.DisplayDate(s.StringVal("follow_data"))+".")
		return conversation.End(), nil
	}

	if f.Callbacks == nil {
		f.Callbacks = make(map[string]conversation.CallbackFunc)
	}
	f.Callbacks[action] = func(c tele.Context, s *conversation.Session, payload string) (conversation.Transition, error) {
		_ = c.Respond(&tele.CallbackResponse{})
		if s.Step != stepFollowChoice {
			// Late press after the user already typed an answer.
			return conversation.Stay(), nil
		}
		if payload == "sim" {
			return accept(c), nil
		}
		return decline(c), nil
	}
}
