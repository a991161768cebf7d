package flows

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/records"
)

// Contrato registers a contract: client, monetary value, duration in
// months, start date.
func Contrato(d Deps) *conversation.Flow {
	const (
		stCliente conversation.State = "await_cliente"
		stValor   conversation.State = "await_valor"
		stMeses   conversation.State = "await_meses"
		stInicio  conversation.State = "await_inicio"
	)

	return &conversation.Flow{
		ID:    "contrato",
		Entry: stCliente,
		Start: func(c tele.Context, _ *conversation.Session) error {
			return helpers.SendText(c, "📄 Novo contrato. Qual o cliente?")
		},
		Steps: map[conversation.State]conversation.StepFunc{
			stCliente: askNonEmpty("cliente", "Qual o valor do contrato? (ex. 1500,00)", stValor),
			stValor: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				valor, err := ParsePositiveFloat(input(c))
				if err != nil {
					_ = helpers.SendText(c, msgBadNumber)
					return conversation.Stay(), nil
				}
				s.Put("valor", valor)
				_ = helpers.SendText(c, "Duração em meses?")
				return conversation.Goto(stMeses), nil
			},
			stMeses: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				meses, err := ParsePositiveInt(input(c))
				if err != nil {
					_ = helpers.SendText(c, msgBadNumber)
					return conversation.Stay(), nil
				}
				s.Put("meses", meses)
				_ = helpers.SendText(c, "Data de início (DD/MM/AAAA):")
				return conversation.Goto(stInicio), nil
			},
			stInicio: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				inicio, err := ParseDate(input(c))
				if err != nil {
					_ = helpers.SendText(c, msgBadDate)
					return conversation.Stay(), nil
				}
				fields := records.Fields{
					"cliente":     s.StringVal("cliente"),
					"valor":       s.FloatVal("valor"),
					"meses":       s.IntVal("meses"),
					"data_inicio": records.FormatStorageDate(inicio),
					"status":      records.StatusPending,
				}
				if _, err := d.Store.Create(helpers.BuildContext(c), s.ChatID, records.CategoryContracts, fields); err != nil {
					return conversation.Stay(), err
				}
				_ = helpers.SendText(c, fmt.Sprintf("✅ Contrato registrado: %s, R$ %.2f por %d meses.",
					s.StringVal("cliente"), s.FloatVal("valor"), s.IntVal("meses")))
				return conversation.End(), nil
			},
		},
	}
}
