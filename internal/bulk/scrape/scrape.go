// Package scrape reads daily price tables from HTML pages.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/shopspring/decimal"

	"stock-dashboard/internal/bulk"
	"stock-dashboard/internal/date"
	"stock-dashboard/internal/logger"
	"stock-dashboard/internal/metrics"
	"stock-dashboard/internal/types"
)

const sourceName = "scrape"

var errNoTable = errors.New("no price table found")

type Params struct {
	// URLTemplate contains "{symbol}", e.g. "https://example.com/quote/{symbol}/history".
	URLTemplate   string
	TableSelector string
	Symbols       []string
	Timeout       time.Duration
	RateLimit     time.Duration
}

type Source struct {
	p Params
}

var _ bulk.Source = (*Source)(nil)

func New(p Params) *Source {
	if p.TableSelector == "" {
		p.TableSelector = "table"
	}
	if p.Timeout == 0 {
		p.Timeout = 30 * time.Second
	}
	return &Source{p: p}
}

func (s *Source) Name() string { return sourceName }

// Fetch scrapes one page per symbol and writes its table as CSV.
func (s *Source) Fetch(ctx context.Context, dir string) ([]string, error) {
	paths := make([]string, 0, len(s.p.Symbols))
	var lastErr error

	for i, symbol := range s.p.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 && s.p.RateLimit > 0 {
			time.Sleep(s.p.RateLimit)
		}

		records, err := s.scrapeSymbol(ctx, symbol)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", symbol, err)
			logger.ErrorWithErr(ctx, "Failed to scrape symbol", err, "symbol", symbol)
			continue
		}

		path := filepath.Join(dir, bulk.FileName(symbol))
		if err := bulk.WriteCSV(path, records); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	metrics.BulkFiles(sourceName, len(paths))
	if len(paths) == 0 && lastErr != nil {
		return nil, lastErr
	}

	logger.Info(ctx, "Price table scraping completed", "symbols", len(s.p.Symbols), "files", len(paths))
	return paths, nil
}

func (s *Source) scrapeSymbol(ctx context.Context, symbol string) ([]types.Record, error) {
	var (
		records []types.Record
		found   bool
		err     error
	)

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.p.Timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(s.p.TableSelector, func(e *colly.HTMLElement) {
		if found {
			return
		}
		found = true
		records, err = parseTable(e.DOM, symbol)
	})

	c.OnError(func(r *colly.Response, e error) {
		err = fmt.Errorf("HTTP %d: %w", r.StatusCode, e)
	})

	url := strings.ReplaceAll(s.p.URLTemplate, "{symbol}", symbol)
	logger.Debug(ctx, "Scraping price table", "symbol", symbol, "url", url)

	if visitErr := c.Visit(url); visitErr != nil && err == nil {
		err = visitErr
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errNoTable
	}
	return records, nil
}

// headerAliases maps lower-cased header text to a canonical column.
var headerAliases = map[string]string{
	"date":        "date",
	"day":         "date",
	"open":        "open",
	"high":        "high",
	"low":         "low",
	"close":       "close",
	"close*":      "close",
	"price":       "close",
	"last":        "close",
	"ltp":         "close",
	"volume":      "volume",
	"vol":         "volume",
	"vol.":        "volume",
	"shares":      "volume",
	"adj close**": "adj",
}

// parseTable converts a price table into records. Rows whose date or
// close cannot be read (dividend notes, footers) are skipped.
func parseTable(table *goquery.Selection, symbol string) ([]types.Record, error) {
	cols := map[string]int{}
	table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
		key := strings.ToLower(strings.TrimSpace(cell.Text()))
		if canon, ok := headerAliases[key]; ok {
			if _, dup := cols[canon]; !dup {
				cols[canon] = i
			}
		}
	})
	if _, ok := cols["date"]; !ok {
		return nil, fmt.Errorf("%w: no date header", errNoTable)
	}
	if _, ok := cols["close"]; !ok {
		return nil, fmt.Errorf("%w: no close header", errNoTable)
	}

	records := []types.Record{}
	table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td").Map(func(_ int, c *goquery.Selection) string {
			return strings.TrimSpace(c.Text())
		})

		day, err := date.Parse(cell(cells, cols, "date"))
		if err != nil {
			return
		}
		closePrice, ok := number(cell(cells, cols, "close"))
		if !ok {
			return
		}
		open, _ := number(cell(cells, cols, "open"))
		high, _ := number(cell(cells, cols, "high"))
		low, _ := number(cell(cells, cols, "low"))
		vol, _ := number(cell(cells, cols, "volume"))

		records = append(records, types.Record{
			Ticker: symbol,
			Date:   day,
			Open:   open.InexactFloat64(),
			High:   high.InexactFloat64(),
			Low:    low.InexactFloat64(),
			Close:  closePrice.InexactFloat64(),
			Volume: vol.IntPart(),
		})
	})
	return records, nil
}

func cell(cells []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// number parses display numbers such as "1,234.50", "₹ 98.10" or "1.2M".
func number(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero, false
	}
	mult := decimal.NewFromInt(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = decimal.NewFromInt(1_000), strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = decimal.NewFromInt(1_000_000), strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "B"):
		mult, s = decimal.NewFromInt(1_000_000_000), strings.TrimSuffix(s, "B")
	}
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Mul(mult), true
}
