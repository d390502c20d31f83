package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bank-cap-etl/internal/etl"
)

type fakeFetcher struct {
	html  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.html, f.err
}

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fixedIDs struct{ id string }

func (g fixedIDs) NewID() (string, error) { return g.id, nil }

type recordingProgress struct {
	mu     sync.Mutex
	lines  []string
	failOn string
}

func (p *recordingProgress) Log(msg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn != "" && msg == p.failOn {
		return fmt.Errorf("%w: disk full", etl.ErrIO)
	}
	p.lines = append(p.lines, msg)
	return nil
}

func (p *recordingProgress) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

var limitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)

// fakeStore keeps the last replaced set in memory and answers the queries the
// job issues: SELECT *, AVG(<column>) and SELECT Name ... LIMIT n.
type fakeStore struct {
	replaceErr error
	queryErr   error

	replaced []etl.ConvertedSet
	queries  []string
	closed   int
}

func (s *fakeStore) ReplaceTable(_ context.Context, _ string, set etl.ConvertedSet) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced = append(s.replaced, set)
	return nil
}

func (s *fakeStore) current() etl.ConvertedSet {
	if len(s.replaced) == 0 {
		return etl.ConvertedSet{}
	}
	return s.replaced[len(s.replaced)-1]
}

func (s *fakeStore) Query(_ context.Context, q string) (etl.QueryResult, error) {
	s.queries = append(s.queries, q)
	if s.queryErr != nil {
		return etl.QueryResult{}, fmt.Errorf("%w: %v", etl.ErrStore, s.queryErr)
	}
	set := s.current()
	res := etl.QueryResult{Query: q}
	upper := strings.ToUpper(q)
	switch {
	case strings.Contains(upper, "AVG("):
		col := q[strings.Index(upper, "AVG(")+4 : strings.Index(q, ")")]
		idx := -1
		for i, f := range set.Schema.NumericFields() {
			if strings.EqualFold(f, col) {
				idx = i
			}
		}
		if idx < 0 {
			return etl.QueryResult{}, fmt.Errorf("%w: unknown column %s", etl.ErrStore, col)
		}
		var sum float64
		for _, r := range set.Records {
			sum += r.Numbers()[idx]
		}
		res.Columns = []string{"avg"}
		res.Rows = [][]any{{sum / float64(set.Len())}}
	case strings.HasPrefix(upper, "SELECT NAME"):
		res.Columns = []string{"name"}
		limit := set.Len()
		if m := limitPattern.FindStringSubmatch(q); m != nil {
			n, _ := strconv.Atoi(m[1])
			limit = min(n, limit)
		}
		for _, r := range set.Records[:limit] {
			res.Rows = append(res.Rows, []any{r.Name})
		}
	default:
		for _, f := range set.Schema.Fields() {
			res.Columns = append(res.Columns, strings.ToLower(f))
		}
		for _, r := range set.Records {
			row := []any{r.Name}
			for _, v := range r.Numbers() {
				row = append(row, v)
			}
			res.Rows = append(res.Rows, row)
		}
	}
	return res, nil
}

func (s *fakeStore) Close() { s.closed++ }

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

type bank struct {
	name  string
	value string
}

// banksPage renders a ranking table in the markup of the archived page: a
// header row, then rank, flag link plus bank link, and the value cell.
func banksPage(banks ...bank) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><title>List of largest banks</title></head><body>`)
	b.WriteString(`<table class="wikitable sortable"><tbody>`)
	b.WriteString(`<tr><th>Rank</th><th>Bank name</th><th>Market cap<br/>(US$ billion)</th></tr>`)
	for i, bk := range banks {
		fmt.Fprintf(&b, `<tr><td>%d</td><td><span class="flagicon"><a href="/wiki/Country" title="Country"><img src="f.png"/></a></span> `+
			`<a href="/wiki/%s" title="%s">%s</a></td><td>%s
</td></tr>`, i+1, strings.ReplaceAll(bk.name, " ", "_"), bk.name, bk.name, bk.value)
	}
	b.WriteString(`</tbody></table>`)
	b.WriteString(`<table><tbody><tr><td>unrelated</td></tr></tbody></table></body></html>`)
	return b.String()
}

func writeRates(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "exchange_rate.csv")
	require.NoError(t, os.WriteFile(p, []byte("Currency,Rate\nEUR,0.9\nGBP,0.8\nINR,80.0\n"), 0o600))
	return p
}
