package flows

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/lookup"
)

const maxSearchResults = 20

// searchParams are the prospecting inputs both busca and rota collect.
type searchParams struct {
	Terms    []string
	Location string
	RadiusM  int
	Count    int
}

func searchParamsFrom(s *conversation.Session) searchParams {
	terms, _ := s.Value("terms")
	list, _ := terms.([]string)
	return searchParams{
		Terms:    list,
		Location: s.StringVal("localizacao"),
		RadiusM:  s.IntVal("raio_m"),
		Count:    s.IntVal("quantidade"),
	}
}

// prospectingSteps builds the shared collection sequence: tipos →
// localização → raio → quantidade, handing the gathered params to terminal.
func prospectingSteps(terminal conversation.StepFunc) (conversation.State, map[conversation.State]conversation.StepFunc) {
	const (
		stTipos       conversation.State = "await_tipos"
		stLocalizacao conversation.State = "await_localizacao"
		stRaio        conversation.State = "await_raio"
		stQuantidade  conversation.State = "await_quantidade"
	)

	steps := map[conversation.State]conversation.StepFunc{
		stTipos: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
			terms := lookup.SplitTerms(input(c))
			if len(terms) == 0 {
				_ = helpers.SendText(c, "Envie pelo menos um tipo de estabelecimento, separados por vírgula. Ex.: padaria, mercado")
				return conversation.Stay(), nil
			}
			s.Put("terms", terms)
			_ = helpers.SendText(c, "Em qual localização? (endereço ou bairro/cidade)")
			return conversation.Goto(stLocalizacao), nil
		},
		stLocalizacao: askNonEmpty("localizacao", "Qual o raio de busca em km?", stRaio),
		stRaio: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
			km, err := ParsePositiveInt(input(c))
			if err != nil {
				_ = helpers.SendText(c, msgBadNumber)
				return conversation.Stay(), nil
			}
			s.Put("raio_m", km*1000)
			_ = helpers.SendText(c, "Quantos resultados no máximo?")
			return conversation.Goto(stQuantidade), nil
		},
		stQuantidade: func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
			count, err := ParsePositiveInt(input(c))
			if err != nil {
				_ = helpers.SendText(c, msgBadNumber)
				return conversation.Stay(), nil
			}
			if count > maxSearchResults {
				count = maxSearchResults
			}
			s.Put("quantidade", count)
			return terminal(c, s)
		},
	}
	return stTipos, steps
}

func formatPlaces(places []lookup.Place) string {
	b := &strings.Builder{}
	for i, p := range places {
		fmt.Fprintf(b, "%d. %s — %s", i+1, p.Name, p.Address)
		if p.Rating > 0 {
			fmt.Fprintf(b, " (⭐ %.1f)", p.Rating)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Busca prospects for potential clients near a location.
func Busca(d Deps) *conversation.Flow {
	entry, steps := prospectingSteps(func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
		p := searchParamsFrom(s)
		places, err := d.Searcher.Search(helpers.BuildContext(c), s.ChatID, p.Location, p.Terms, p.RadiusM, p.Count)
		if errors.Is(err, lookup.ErrNoResults) {
			_ = helpers.SendText(c, "Nenhum estabelecimento encontrado para esses critérios.")
			return conversation.End(), nil
		}
		if err != nil {
			return conversation.Stay(), err
		}
		_ = helpers.SendText(c, "🔎 Clientes em potencial:\n"+formatPlaces(places))
		return conversation.End(), nil
	})

	return &conversation.Flow{
		ID:    "busca",
		Entry: entry,
		Start: func(c tele.Context, _ *conversation.Session) error {
			return helpers.SendText(c, "🔎 Buscar clientes em potencial. Quais tipos de estabelecimento? (separe por vírgula)")
		},
		Steps: steps,
	}
}
