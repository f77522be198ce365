package stockanalysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/apperror"
)

const listPage = `<html><body>
<table>
  <tr><th>No.</th><th>Symbol</th><th>Company Name</th></tr>
  <tr><td>1</td><td><a href="/stocks/aapl/">AAPL</a></td><td>Apple Inc.</td></tr>
  <tr><td>2</td><td><a href="/stocks/msft/">MSFT</a></td><td>Microsoft Corporation</td></tr>
  <tr><td>3</td><td><a href="/stocks/brk.b/">BRK.B</a></td><td>Berkshire Hathaway</td></tr>
  <tr><td>4</td><td>GOOG</td><td>Alphabet Inc.</td></tr>
</table>
</body></html>`

// newTestServer returns a server that serves the given HTML as the
// constituents page, along with a Scraper configured to use it.
func newTestServer(t *testing.T, html string) (*httptest.Server, *Scraper) {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("expected browser-like User-Agent, got %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))

	s := New(WithClient(ts.Client()), WithListURL(ts.URL))
	return ts, s
}

func TestFetchSymbols(t *testing.T) {
	ts, s := newTestServer(t, listPage)
	defer ts.Close()

	got, err := s.FetchSymbols(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"AAPL", "BRK.B", "GOOG", "MSFT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FetchSymbols() = %v, want %v", got, want)
	}
}

func TestFetchSymbols_Idempotent(t *testing.T) {
	ts, s := newTestServer(t, listPage)
	defer ts.Close()

	first, err := s.FetchSymbols(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.FetchSymbols(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("parsing the same page twice differed: %v vs %v", first, second)
	}
}

func TestFetchSymbols_Deduplicates(t *testing.T) {
	page := `<table>
	  <tr><td>1</td><td><a href="/stocks/aapl/">AAPL</a></td></tr>
	  <tr><td>2</td><td><a href="/stocks/aapl/">AAPL</a></td></tr>
	</table>`

	ts, s := newTestServer(t, page)
	defer ts.Close()

	got, err := s.FetchSymbols(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "AAPL" {
		t.Errorf("expected [AAPL], got %v", got)
	}
}

func TestFetchSymbols_NoTable(t *testing.T) {
	ts, s := newTestServer(t, `<html><body><p>No stocks today.</p></body></html>`)
	defer ts.Close()

	_, err := s.FetchSymbols(context.Background())
	if err == nil {
		t.Fatal("expected error for page without a table")
	}
	if apperror.CodeOf(err) != apperror.ParseFailed {
		t.Errorf("expected code %s, got %s", apperror.ParseFailed, apperror.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "no table found") {
		t.Errorf("expected 'no table found' in error, got %q", err.Error())
	}
}

func TestFetchSymbols_NoValidSymbols(t *testing.T) {
	page := `<table>
	  <tr><th>No.</th><th>Symbol</th></tr>
	  <tr><td>1</td><td>Invalid Symbol Here</td></tr>
	</table>`

	ts, s := newTestServer(t, page)
	defer ts.Close()

	_, err := s.FetchSymbols(context.Background())
	if err == nil {
		t.Fatal("expected error for table without valid symbols")
	}
	if apperror.CodeOf(err) != apperror.ParseFailed {
		t.Errorf("expected code %s, got %s", apperror.ParseFailed, apperror.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "no symbols found") {
		t.Errorf("expected 'no symbols found' in error, got %q", err.Error())
	}
}

func TestFetchSymbols_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer ts.Close()

	s := New(WithClient(ts.Client()), WithListURL(ts.URL))

	_, err := s.FetchSymbols(context.Background())
	if err == nil {
		t.Fatal("expected error for HTTP 403")
	}
	if apperror.CodeOf(err) != apperror.FetchFailed {
		t.Errorf("expected code %s, got %s", apperror.FetchFailed, apperror.CodeOf(err))
	}
	if !strings.Contains(err.Error(), ts.URL) {
		t.Errorf("expected target URL in error, got %q", err.Error())
	}
}

func TestFetchSymbols_ConnectionError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	s := New(WithListURL(url))

	_, err := s.FetchSymbols(context.Background())
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if apperror.CodeOf(err) != apperror.FetchFailed {
		t.Errorf("expected code %s, got %s", apperror.FetchFailed, apperror.CodeOf(err))
	}
}

func TestSymbolFromCells(t *testing.T) {
	tests := []struct {
		name  string
		cells []cell
		want  string
		ok    bool
	}{
		{
			name:  "linked symbol",
			cells: []cell{{text: "1"}, {text: "AAPL", href: "/stocks/aapl/"}},
			want:  "AAPL",
			ok:    true,
		},
		{
			name:  "plain text fallback",
			cells: []cell{{text: "4"}, {text: " goog "}},
			want:  "GOOG",
			ok:    true,
		},
		{
			name:  "invalid link falls back to text",
			cells: []cell{{text: "2"}, {text: "MSFT", href: "/stocks/not-a-symbol/"}},
			want:  "MSFT",
			ok:    true,
		},
		{
			name:  "link without stocks segment falls back to text",
			cells: []cell{{text: "3"}, {text: "BRK.B", href: "/company/berkshire/"}},
			want:  "BRK.B",
			ok:    true,
		},
		{
			name:  "too few cells",
			cells: []cell{{text: "AAPL", href: "/stocks/aapl/"}},
			ok:    false,
		},
		{
			name:  "header row",
			cells: []cell{{text: "No."}, {text: "Symbol"}},
			ok:    false,
		},
		{
			name:  "company name cell",
			cells: []cell{{text: "5"}, {text: "Apple Inc."}},
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := symbolFromCells(tt.cells)
			if ok != tt.ok {
				t.Fatalf("symbolFromCells() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("symbolFromCells() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSymbolFromHref(t *testing.T) {
	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"/stocks/aapl/", "AAPL", true},
		{"/stocks/brk.b/", "BRK.B", true},
		{"https://stockanalysis.com/stocks/msft/", "MSFT", true},
		{"/stocks/aapl/financials/", "AAPL", true},
		{"/stocks/aapl", "AAPL", true},
		{"/etf/spy/", "", false},
		{"/stocks/", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := symbolFromHref(tt.href)
		if ok != tt.ok || got != tt.want {
			t.Errorf("symbolFromHref(%q) = (%q, %v), want (%q, %v)", tt.href, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSource(t *testing.T) {
	s := New()
	if s.Source() != "stockanalysis" {
		t.Errorf("expected source 'stockanalysis', got '%s'", s.Source())
	}
}
