package flows

import (
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/records"
)

// Lembrete registers a reminder and schedules exactly one delivery job.
// Past date-times are rejected at the validation step.
func Lembrete(d Deps) *conversation.Flow {
	const (
		stTexto    conversation.State = "await_texto"
		stDataHora conversation.State = "await_data_hora"
	)

	return &conversation.Flow{
		ID:    "lembrete",
		Entry: stTexto,
		Start: func(c tele.Context, _ *conversation.Session) error {
			return helpers.SendText(c, "⏰ Novo lembrete. Qual o texto?")
		},
		Steps: map[conversation.State]conversation.StepFunc{
			stTexto: askNonEmpty("texto", "Quando devo lembrar? (DD/MM/AAAA HH:MM)", stDataHora),
			stDataHora: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				when, err := ParseDateTime(input(c))
				if err != nil {
					_ = helpers.SendText(c, msgBadDateTime)
					return conversation.Stay(), nil
				}
				if !when.After(time.Now()) {
					_ = helpers.SendText(c, "Esse horário já passou. Envie uma data/hora futura.")
					return conversation.Stay(), nil
				}

				fields := records.Fields{
					"texto":     s.StringVal("texto"),
					"data_hora": records.FormatStorageDateTime(when),
					"enviado":   false,
				}
				id, err := d.Store.Create(helpers.BuildContext(c), s.ChatID, records.CategoryReminders, fields)
				if err != nil {
					return conversation.Stay(), err
				}
				d.Reminders.Schedule(s.ChatID, id, when)
				_ = helpers.SendText(c, "✅ Lembrete agendado para "+when.Format(records.DisplayDateTimeLayout)+".")
				return conversation.End(), nil
			},
		},
	}
}
