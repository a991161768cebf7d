package flows

import (
	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/records"
)

// Interacao registers a client interaction (call, email, meeting) and then
// offers a follow-up.
func Interacao(d Deps) *conversation.Flow {
	const (
		stCliente   conversation.State = "await_cliente"
		stTipo      conversation.State = "await_tipo"
		stDescricao conversation.State = "await_descricao"
	)

	f := &conversation.Flow{
		ID:    "interacao",
		Entry: stCliente,
		Start: func(c tele.Context, _ *conversation.Session) error {
			return helpers.SendText(c, "💬 Nova interação. Qual o cliente?")
		},
		Steps: map[conversation.State]conversation.StepFunc{
			stCliente: askNonEmpty("cliente", "Qual o tipo de interação? (ligação, email, reunião...)", stTipo),
			stTipo:    askNonEmpty("tipo", "Qual a descrição?", stDescricao),
			stDescricao: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				descricao := input(c)
				if descricao == "" {
					_ = helpers.SendText(c, msgEmptyInput)
					return conversation.Stay(), nil
				}
				fields := records.Fields{
					"cliente":   s.StringVal("cliente"),
					"tipo":      s.StringVal("tipo"),
					"descricao": descricao,
				}
				if _, err := d.Store.Create(helpers.BuildContext(c), s.ChatID, records.CategoryInteractions, fields); err != nil {
					return conversation.Stay(), err
				}
				_ = helpers.SendText(c, "✅ Interação registrada: "+s.StringVal("cliente")+" ("+s.StringVal("tipo")+").")
				return offerFollowUp(c, "interacao_follow"), nil
			},
		},
	}
	attachFollowUpOffer(f, d, "interacao_follow", "cliente")
	return f
}
