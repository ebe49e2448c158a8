// Package report renders expense reports as images.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"moneybook/internal/ledger"
	"moneybook/internal/money"
)

// ErrNoExpenses is returned when the report has nothing to draw.
var ErrNoExpenses = errors.New("report has no expenses")

const (
	chartWidth  = 900
	chartHeight = 400
	barWidth    = 60
)

var fallbackBarColor = drawing.ColorFromHex("9ca3af")

// RenderExpenseChart renders a PNG bar chart with one bar per category of
// rep. Amounts are shown in major units of currencyCode, formatted by f.
func RenderExpenseChart(rep ledger.Report, f *money.Formatter, currencyCode string) ([]byte, error) {
	if len(rep.Rows) == 0 || rep.Total <= 0 {
		return nil, ErrNoExpenses
	}
	if f == nil {
		f = money.NewFormatter("")
	}

	bars := make([]chart.Value, 0, len(rep.Rows))
	largest := 0.0
	for _, row := range rep.Rows {
		largest = math.Max(largest, money.MajorUnits(row.Amount))
		bars = append(bars, chart.Value{
			Label: row.Category.Name,
			Value: money.MajorUnits(row.Amount),
			Style: chart.Style{
				FillColor:   barColor(row.Category.Color),
				StrokeColor: barColor(row.Category.Color),
				StrokeWidth: 1,
			},
		})
	}

	graph := chart.BarChart{
		Title:  fmt.Sprintf("Expenses %s to %s", rep.Range.From, rep.Range.To),
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarWidth: barWidth,
		YAxis: chart.YAxis{
			// Bars start at zero; a single bar or equal bars would otherwise
			// leave go-chart with an empty range.
			Range: &chart.ContinuousRange{Min: 0, Max: largest},
			ValueFormatter: func(v interface{}) string {
				if fv, ok := v.(float64); ok {
					return f.FormatFloat(fv, currencyCode)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// barColor accepts #rgb and #rrggbb; anything else is drawn grey.
func barColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 3 && len(hex) != 6 {
		return fallbackBarColor
	}
	if strings.Trim(strings.ToLower(hex), "0123456789abcdef") != "" {
		return fallbackBarColor
	}
	return drawing.ColorFromHex(hex)
}
