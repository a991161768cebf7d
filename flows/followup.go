package flows

import (
	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/records"
)

// Followup registers a stand-alone follow-up: client, date, description.
func Followup(d Deps) *conversation.Flow {
	const (
		stCliente   conversation.State = "await_cliente"
		stData      conversation.State = "await_data"
		stDescricao conversation.State = "await_descricao"
	)

	return &conversation.Flow{
		ID:    "followup",
		Entry: stCliente,
		Start: func(c tele.Context, _ *conversation.Session) error {
			return helpers.SendText(c, "🗓 Novo follow-up. Qual o cliente?")
		},
		Steps: map[conversation.State]conversation.StepFunc{
			stCliente: askNonEmpty("cliente", "Data do follow-up (DD/MM/AAAA):", stData),
			stData:    askDate("data_follow", "Qual a descrição?", stDescricao),
			stDescricao: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				descricao := input(c)
				if descricao == "" {
					_ = helpers.SendText(c, msgEmptyInput)
					return conversation.Stay(), nil
				}
				fields := records.Fields{
					"cliente":     s.StringVal("cliente"),
					"data_follow": s.StringVal("data_follow"),
					"descricao":   descricao,
					"status":      records.StatusPending,
				}
				if _, err := d.Store.Create(helpers.BuildContext(c), s.ChatID, records.CategoryFollowups, fields); err != nil {
					return conversation.Stay(), err
				}
				_ = helpers.SendText(c, "✅ Follow-up registrado: "+s.StringVal("cliente")+" em "+records.DisplayDate(s.StringVal("data_follow"))+".")
				return conversation.End(), nil
			},
		},
	}
}
