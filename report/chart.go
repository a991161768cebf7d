package report

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/felipevm/vendasbot/records"
)

// Chart renders the summary as a PNG bar chart: one bar per status, or a
// single total bar for categories without a status field.
func (s *Summary) Chart() ([]byte, error) {
	bars := make([]chart.Value, 0, len(s.ByStatus))
	for _, status := range sortedKeys(s.ByStatus) {
		bars = append(bars, chart.Value{Label: status, Value: float64(s.ByStatus[status])})
	}
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Label: "total", Value: float64(s.Total)})
	}

	// go-chart refuses a zero-delta value range, which is what uniform
	// counts (or a single bar) produce. Pin the axis to [0, max+1] instead.
	var maxCount float64
	for _, b := range bars {
		if b.Value > maxCount {
			maxCount = b.Value
		}
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("%s — %s a %s", records.CategoryLabel(s.Category), s.From.Format(records.DisplayDateLayout), s.To.Format(records.DisplayDateLayout)),
		Width:    800,
		Height:   450,
		BarWidth: 80,
		Bars:     bars,
		YAxis: chart.YAxis{
			ValueFormatter: chart.IntValueFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: maxCount + 1},
		},
	}

	buf := &bytes.Buffer{}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("report: render chart: %w", err)
	}
	return buf.Bytes(), nil
}
