// Package report renders query results as a terminal markdown report.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"stock-dashboard/internal/types"
)

// NoData is shown instead of tables when the query matched no rows.
const NoData = "No data found for the selected criteria."

type Options struct {
	Title    string
	Currency string
	// LastRows is the number of trailing rows listed; 0 hides the section.
	LastRows int
	// Style is a glamour style name: "dark", "light", "notty" or "auto".
	Style    string
	WordWrap int
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Stock Dashboard"
	}
	if o.Currency == "" {
		o.Currency = "USD"
	}
	if o.Style == "" {
		o.Style = "auto"
	}
	if o.WordWrap == 0 {
		o.WordWrap = 100
	}
	return o
}

// Markdown builds the report source.
func Markdown(res *types.Result, opts Options) string {
	opts = opts.withDefaults()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", opts.Title)

	if res.Empty() {
		b.WriteString(NoData + "\n")
		return b.String()
	}

	spec := res.View.Spec
	fmt.Fprintf(&b, "**Period:** %s to %s  \n", spec.Start, spec.End)
	fmt.Fprintf(&b, "**Tickers:** %s\n\n", strings.Join(res.View.Tickers, ", "))

	b.WriteString("## Metrics\n\n")
	b.WriteString("| Ticker | Latest | Start | Change | Change % | Data Points |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|\n")
	for _, m := range res.Metrics {
		latest, start, delta, pct := "-", "-", "-", "-"
		if m.Points > 0 {
			latest = formatMoney(m.Latest, opts.Currency)
		}
		if m.Available {
			start = formatMoney(m.Start, opts.Currency)
			delta = formatMoney(m.Delta, opts.Currency)
		}
		if m.PctDefined() {
			pct = fmt.Sprintf("%+.2f%%", m.PctDelta)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %d |\n", m.Ticker, latest, start, delta, pct, m.Points)
	}

	if notes := unavailable(res.Metrics); len(notes) > 0 {
		b.WriteString("\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}

	if opts.LastRows > 0 {
		rows := res.View.Records
		if len(rows) > opts.LastRows {
			rows = rows[len(rows)-opts.LastRows:]
		}
		fmt.Fprintf(&b, "\n## Last %d rows\n\n", len(rows))
		b.WriteString("| Date | Ticker | Close |\n")
		b.WriteString("|---|---|---:|\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", r.Date, r.Ticker, formatMoney(r.Close, opts.Currency))
		}
	}
	return b.String()
}

func unavailable(ms []types.Metric) []string {
	var out []string
	for _, m := range ms {
		if m.Reason != "" {
			out = append(out, fmt.Sprintf("%s: %s", m.Ticker, m.Reason))
		}
	}
	return out
}

// Render builds the report and formats it for the terminal.
func Render(res *types.Result, opts Options) (string, error) {
	opts = opts.withDefaults()

	styleOpt := glamour.WithStandardStyle(opts.Style)
	if opts.Style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(opts.WordWrap))
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	return r.Render(Markdown(res, opts))
}
