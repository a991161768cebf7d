package flows

import (
	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/records"
)

// Visita registers a visit and then offers to schedule a follow-up.
func Visita(d Deps) *conversation.Flow {
	const (
		stEmpresa conversation.State = "await_empresa"
		stData    conversation.State = "await_data"
		stMotivo  conversation.State = "await_motivo"
	)

	f := &conversation.Flow{
		ID:    "visita",
		Entry: stEmpresa,
		Start: func(c tele.Context, _ *conversation.Session) error {
			return helpers.SendText(c, "🚗 Nova visita. Qual a empresa?")
		},
		Steps: map[conversation.State]conversation.StepFunc{
			stEmpresa: askNonEmpty("empresa", "Data da visita (DD/MM/AAAA):", stData),
			stData:    askDate("data_visita", "Qual o motivo da visita?", stMotivo),
			stMotivo: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				motivo := input(c)
				if motivo == "" {
					_ = helpers.SendText(c, msgEmptyInput)
					return conversation.Stay(), nil
				}
				fields := records.Fields{
					"empresa":     s.StringVal("empresa"),
					"data_visita": s.StringVal("data_visita"),
					"motivo":      motivo,
				}
				if _, err := d.Store.Create(helpers.BuildContext(c), s.ChatID, records.CategoryVisits, fields); err != nil {
					return conversation.Stay(), err
				}
				_ = helpers.SendText(c, "✅ Visita registrada: "+s.StringVal("empresa")+" em "+records.DisplayDate(s.StringVal("data_visita"))+".")
				return offerFollowUp(c, "visita_follow"), nil
			},
		},
	}
	attachFollowUpOffer(f, d, "visita_follow", "empresa")
	return f
}
