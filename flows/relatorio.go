package flows

import (
	"bytes"

	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/report"
)

// Relatorio aggregates one category over a period and sends a text
// summary, a chart image and a spreadsheet.
func Relatorio(d Deps) *conversation.Flow {
	const (
		stCategoria conversation.State = "await_categoria"
		stPeriodo   conversation.State = "await_periodo"
	)

	return &conversation.Flow{
		ID:    "relatorio",
		Entry: stCategoria,
		Start: func(c tele.Context, _ *conversation.Session) error {
			return helpers.SendText(c, "📊 Relatório. Qual a categoria? (followups, visitas, interacoes, contratos, lembretes)")
		},
		Steps: map[conversation.State]conversation.StepFunc{
			stCategoria: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				categoria, ok := parseCategory(input(c))
				if !ok {
					_ = helpers.SendText(c, msgBadCategory)
					return conversation.Stay(), nil
				}
				s.Put("categoria", categoria)
				_ = helpers.SendText(c, "Qual o período? (DD/MM/AAAA a DD/MM/AAAA)")
				return conversation.Goto(stPeriodo), nil
			},
			stPeriodo: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
				from, to, err := ParsePeriod(input(c))
				if err != nil {
					_ = helpers.SendText(c, "Período inválido. Use DD/MM/AAAA a DD/MM/AAAA, com início antes do fim.")
					return conversation.Stay(), nil
				}
				categoria := s.StringVal("categoria")

				recs, err := d.Store.Query(helpers.BuildContext(c), s.ChatID, categoria, 0)
				if err != nil {
					return conversation.Stay(), err
				}
				summary := report.Build(categoria, recs, from, to)
				_ = helpers.SendText(c, summary.Text())
				if summary.Total == 0 {
					return conversation.End(), nil
				}

				png, err := summary.Chart()
				if err != nil {
					return conversation.Stay(), err
				}
				_ = helpers.SendPhoto(c, &tele.Photo{File: tele.FromReader(bytes.NewReader(png))})

				xlsx, err := summary.Spreadsheet()
				if err != nil {
					return conversation.Stay(), err
				}
				_ = helpers.SendDocument(c, &tele.Document{
					File:     tele.FromReader(bytes.NewReader(xlsx)),
					FileName: "relatorio_" + categoria + ".xlsx",
				})
				return conversation.End(), nil
			},
		},
	}
}
