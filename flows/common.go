package flows

import (
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/core/telegram/keyboard"
	"github.com/felipevm/vendasbot/lookup"
	"github.com/felipevm/vendasbot/records"
	"github.com/felipevm/vendasbot/schedule"
)

// ReminderScheduler registers the one-shot delivery of a saved reminder.
// Satisfied by *schedule.Reminders.
type ReminderScheduler interface {
	Schedule(chatID int64, recordID string, when time.Time) schedule.Handle
}

// Deps are the collaborators flows call from their terminal steps.
type Deps struct {
	Store     records.Store
	Searcher  *lookup.Searcher
	Reminders ReminderScheduler
}

// RegisterAll wires every flow into the engine.
func RegisterAll(e *conversation.Engine, d Deps) error {
	for _, f := range []*conversation.Flow{
		Followup(d),
		Visita(d),
		Interacao(d),
		Contrato(d),
		Lembrete(d),
		Editar(d),
		Excluir(d),
		Filtrar(d),
		Relatorio(d),
		Busca(d),
		Rota(d),
	} {
		if err := e.Register(f); err != nil {
			return err
		}
	}
	return nil
}

const (
	msgEmptyInput  = "Não entendi. Envie um texto, ou \"cancelar\" para sair."
	msgBadDate     = "Data inválida. Use o formato DD/MM/AAAA, por exemplo 10/04/2025."
	msgBadDateTime = "Data/hora inválida. Use DD/MM/AAAA HH:MM, por exemplo 10/04/2025 14:30."
	msgBadNumber   = "Valor inválido. Envie um número maior que zero."
	msgBadCategory = "Categoria inválida. Escolha uma destas: followups, visitas, interacoes, contratos, lembretes."
	msgNoRecords   = "Nenhum registro encontrado nesta categoria."
)

// input returns the trimmed message text.
func input(c tele.Context) string {
	return strings.TrimSpace(c.Text())
}

// askNonEmpty stores trimmed input under key and advances, re-prompting on
// empty input. It is the building block for every free-text step.
func askNonEmpty(key, nextPrompt string, next conversation.State) conversation.StepFunc {
	return func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
		text := input(c)
		if text == "" {
			_ = helpers.SendText(c, msgEmptyInput)
			return conversation.Stay(), nil
		}
		s.Put(key, text)
		_ = helpers.SendText(c, nextPrompt)
		return conversation.Goto(next), nil
	}
}

// askDate parses a DD/MM/AAAA answer into key (stored ISO) and advances.
func askDate(key, nextPrompt string, next conversation.State) conversation.StepFunc {
	return func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
		day, err := ParseDate(input(c))
		if err != nil {
			_ = helpers.SendText(c, msgBadDate)
			return conversation.Stay(), nil
		}
		s.Put(key, records.FormatStorageDate(day))
		_ = helpers.SendText(c, nextPrompt)
		return conversation.Goto(next), nil
	}
}

// parseCategory matches user input against category keys and labels.
func parseCategory(text string) (string, bool) {
	norm := records.Normalize(text)
	for _, cat := range records.Categories {
		if norm == records.Normalize(cat) || norm == records.Normalize(records.CategoryLabel(cat)) {
			return cat, true
		}
	}
	return "", false
}

// yesNoMarkup builds the standard Sim/Não inline keyboard for an action.
func yesNoMarkup(action string) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "Sim", Unique: action, Data: "sim"},
		{Text: "Não", Unique: action, Data: "nao"},
	})
}

// parseYesNo interprets a typed Sim/Não answer.
func parseYesNo(text string) (yes, ok bool) {
	switch records.Normalize(text) {
	case "sim", "s":
		return true, true
	case "nao", "n":
		return false, true
	}
	return false, false
}

// pickMarkup builds one numbered inline button per listed record, carrying
// the record id as payload.
func pickMarkup(action string, recs []records.Record) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, len(recs))
	for i, rec := range recs {
		buttons[i] = keyboard.InlineBtn{
			Text:   numberLabel(i + 1),
			Unique: action,
			Data:   rec.ID,
		}
	}
	return keyboard.InlineButtonsNPerRow(buttons, 5)
}

func numberLabel(n int) string {
	return strconv.Itoa(n)
}

// recordIDs projects a listing into the id slice kept in scratch so typed
// numbers can be resolved alongside button presses.
func recordIDs(recs []records.Record) []string {
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids
}

// resolvePickedID resolves a typed list number against the ids stashed in
// scratch under "ids".
func resolvePickedID(s *conversation.Session, text string) (string, bool) {
	ids, _ := s.Value("ids")
	list, ok := ids.([]string)
	if !ok {
		return "", false
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > len(list) {
		return "", false
	}
	return list[n-1], true
}
