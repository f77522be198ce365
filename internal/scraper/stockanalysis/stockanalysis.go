// Package stockanalysis implements a scraper for the stockanalysis.com
// S&P 500 constituents page. It extracts ticker symbols from the first HTML
// table on the page and returns them validated, deduplicated and sorted.
package stockanalysis

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/apperror"
	"github.com/Cole-Dylewski/market-data-pipeline/internal/symbols"
)

const (
	defaultListURL = "https://stockanalysis.com/list/sp-500-stocks/"
	defaultTimeout = 10 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Scraper fetches the S&P 500 symbol roster.
type Scraper struct {
	client  *http.Client
	listURL string
}

// New creates a Scraper with the given options applied.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client:  &http.Client{Timeout: defaultTimeout},
		listURL: defaultListURL,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithClient sets the HTTP client, including its timeout.
func WithClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// WithListURL overrides the default constituents page URL.
func WithListURL(u string) Option {
	return func(s *Scraper) { s.listURL = u }
}

// Source returns the scraper identifier.
func (s *Scraper) Source() string { return "stockanalysis" }

// FetchSymbols retrieves the constituents page and extracts the symbol roster.
// The result is deduplicated and sorted ascending.
func (s *Scraper) FetchSymbols(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.listURL, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.FetchFailed, fmt.Sprintf("build request for %s", s.listURL), err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.FetchFailed, fmt.Sprintf("fetch %s", s.listURL), err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, apperror.New(apperror.FetchFailed, fmt.Sprintf("fetch %s: HTTP %d", s.listURL, res.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, apperror.Wrap(apperror.FetchFailed, fmt.Sprintf("read %s", s.listURL), err)
	}

	roster, err := extract(doc)
	if err != nil {
		return nil, err
	}

	slog.Info("retrieved symbol roster", "url", s.listURL, "count", len(roster))
	return roster, nil
}

// cell is a parser-neutral view of one table cell: its text content and the
// target of its first hyperlink, if any.
type cell struct {
	text string
	href string
}

// extract walks the first table of the document and collects valid symbols.
func extract(doc *goquery.Document) ([]string, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, apperror.New(apperror.ParseFailed, "no table found on the S&P 500 stocks page")
	}

	var collected []string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if sym, ok := symbolFromCells(rowCells(row)); ok {
			collected = append(collected, sym)
		}
	})

	if len(collected) == 0 {
		return nil, apperror.New(apperror.ParseFailed, "no symbols found in the table, page structure may have changed")
	}

	return symbols.Normalize(collected), nil
}

func rowCells(row *goquery.Selection) []cell {
	var cells []cell
	row.Find("td, th").Each(func(_ int, sel *goquery.Selection) {
		cells = append(cells, cell{
			text: sel.Text(),
			href: sel.Find("a").First().AttrOr("href", ""),
		})
	})
	return cells
}

// symbolFromCells extracts a valid symbol from a row's cells, or reports that
// the row holds none. The second cell is the symbol cell. A link of the form
// .../stocks/<symbol>/... takes precedence over the cell text since linked
// symbols survive cosmetic markup changes; rows whose candidate fails
// validation (rank columns, header rows, company names) are skipped.
func symbolFromCells(cells []cell) (string, bool) {
	if len(cells) < 2 {
		return "", false
	}
	if sym, ok := symbolFromHref(cells[1].href); ok {
		return sym, true
	}
	sym := strings.ToUpper(strings.TrimSpace(cells[1].text))
	if symbols.IsValid(sym) {
		return sym, true
	}
	return "", false
}

// symbolFromHref pulls the path segment immediately following "/stocks/" out
// of href and upper-cases it. Trailing path parts and slashes are dropped.
func symbolFromHref(href string) (string, bool) {
	const marker = "/stocks/"
	i := strings.Index(href, marker)
	if i < 0 {
		return "", false
	}
	seg := href[i+len(marker):]
	if j := strings.IndexByte(seg, '/'); j >= 0 {
		seg = seg[:j]
	}
	sym := strings.ToUpper(seg)
	if !symbols.IsValid(sym) {
		return "", false
	}
	return sym, true
}
