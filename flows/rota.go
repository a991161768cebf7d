package flows

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/lookup"
)

// Rota prospects like Busca and then builds an optimized visiting route
// over the results.
func Rota(d Deps) *conversation.Flow {
	entry, steps := prospectingSteps(func(c tele.Context, s *conversation.Session) (conversation.Transition, error) {
		p := searchParamsFrom(s)
		places, it, err := d.Searcher.Route(helpers.BuildContext(c), s.ChatID, p.Location, p.Terms, p.RadiusM, p.Count)
		if errors.Is(err, lookup.ErrNoResults) {
			_ = helpers.SendText(c, "Nenhum estabelecimento encontrado para esses critérios.")
			return conversation.End(), nil
		}
		if err != nil {
			return conversation.Stay(), err
		}
		_ = helpers.SendText(c, "🔎 Clientes em potencial:\n"+formatPlaces(places))
		_ = helpers.SendText(c, formatItinerary(it))
		return conversation.End(), nil
	})

	return &conversation.Flow{
		ID:    "rota",
		Entry: entry,
		Start: func(c tele.Context, _ *conversation.Session) error {
			return helpers.SendText(c, "🗺 Montar rota de visitas. Quais tipos de estabelecimento? (separe por vírgula)")
		},
		Steps: steps,
	}
}

func formatItinerary(it *lookup.Itinerary) string {
	b := &strings.Builder{}
	b.WriteString("🗺 Roteiro otimizado:\n")
	for i, stop := range it.Stops {
		fmt.Fprintf(b, "%d. %s — %s\n", i+1, stop.Name, stop.Address)
	}
	if len(it.Legs) > 0 {
		b.WriteString("\nTrechos:\n")
		for _, leg := range it.Legs {
			fmt.Fprintf(b, "%s → %s: %s, %s\n", leg.From, leg.To, formatDistance(leg.DistanceMeters), formatDuration(leg.Duration))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", meters)
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	if h := int(d.Hours()); h > 0 {
		return fmt.Sprintf("%dh%02dmin", h, int(d.Minutes())%60)
	}
	return fmt.Sprintf("%d min", int(d.Minutes()))
}
