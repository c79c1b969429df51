package harvest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-job-harvester/internal/config"
	"go-job-harvester/internal/database"
	"go-job-harvester/internal/export"
	"go-job-harvester/internal/models"
	"go-job-harvester/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sitePage serves fixture pages keyed by URL.
type sitePage struct {
	pages   map[string]string
	current string
}

func (p *sitePage) Goto(url string, _ time.Duration) error {
	if _, ok := p.pages[url]; !ok {
		return fmt.Errorf("net::ERR_NAME_NOT_RESOLVED at %s", url)
	}
	p.current = url
	return nil
}

func (p *sitePage) WaitFor(string, time.Duration) error {
	if !strings.Contains(p.pages[p.current], "job-listing") {
		return errors.New("timeout exceeded")
	}
	return nil
}

func (p *sitePage) Exists(string) (bool, error) {
	return strings.Contains(p.pages[p.current], `rel="next"`), nil
}

func (p *sitePage) Content() (string, error) { return p.pages[p.current], nil }
func (p *sitePage) URL() string              { return p.current }

func listing(title, company, location, href string) string {
	return fmt.Sprintf(`<li class="job-listing"><h2>%s</h2><span class="company">%s</span><span class="location">%s</span><a href="%s">View</a></li>`,
		title, company, location, href)
}

func fixtureSite() map[string]string {
	return map[string]string{
		"https://jobs.test/search?page=0": `<html><body><ul>` +
			listing("Go Developer", "Acme", "Remote", "/jobs/1") +
			listing("SRE", "Globex", "Berlin", "https://careers.globex.test/sre") +
			`<li class="job-listing"><a href="/jobs/3">?</a></li>` +
			`</ul><a rel="next" href="?page=1">Next</a></body></html>`,
		"https://jobs.test/search?page=1": `<html><body><ul>` +
			listing("Go Developer", "Acme", "Remote", "/jobs/1") +
			listing("Platform Engineer", "Initech", "Austin", "/jobs/4") +
			`</ul></body></html>`,
	}
}

func testConfig(maxPages int) *config.Config {
	cfg := &config.Config{}
	cfg.Source.URLTemplate = "https://jobs.test/search?page={page}"
	cfg.Source.PageStep = 1
	cfg.Source.MaxPages = maxPages
	return cfg
}

// pageCollector runs the crawl loop over a fake page instead of a browser.
type pageCollector struct {
	c    *BrowserCollector
	page func() *sitePage
}

func (p pageCollector) Collect(ctx context.Context) Collection {
	return p.c.crawl(ctx, p.page())
}

func newPageCollector(maxPages int, pages map[string]string) pageCollector {
	return pageCollector{
		c:    NewBrowserCollector(testConfig(maxPages), scraper.DefaultSite(), nil),
		page: func() *sitePage { return &sitePage{pages: pages} },
	}
}

func TestCrawl(t *testing.T) {
	col := newPageCollector(10, fixtureSite()).Collect(context.Background())

	assert.Equal(t, 2, col.Pages)
	assert.False(t, col.Exhausted)
	assert.Equal(t, 5, col.Cursor.TotalCollected)
	assert.Equal(t, 1, col.Duplicates)
	require.Len(t, col.Records, 4)

	first := col.Records[0]
	assert.Equal(t, "Go Developer", first.Title)
	assert.Equal(t, "https://jobs.test/jobs/1", first.Link)
	assert.Equal(t, models.Unknown, first.PostedDate)
	assert.False(t, first.ScrapedAt.IsZero())

	assert.Equal(t, "https://careers.globex.test/sre", col.Records[1].Link)

	// listing with only a link survives with unknown fields
	bare := col.Records[2]
	assert.Equal(t, models.Unknown, bare.Title)
	assert.Equal(t, models.Unknown, bare.Company)
	assert.Equal(t, models.Unknown, bare.Location)
	assert.Equal(t, "https://jobs.test/jobs/3", bare.Link)

	for _, r := range col.Records {
		for _, v := range []string{r.Title, r.Company, r.Location, r.PostedDate} {
			assert.NotEmpty(t, v)
		}
	}
}

func TestCrawl_MaxPages(t *testing.T) {
	col := newPageCollector(1, fixtureSite()).Collect(context.Background())
	assert.Equal(t, 1, col.Pages)
	assert.Len(t, col.Records, 3)
	assert.False(t, col.Exhausted)
}

func TestCrawl_SourceUnreachable(t *testing.T) {
	col := newPageCollector(10, map[string]string{}).Collect(context.Background())
	assert.Equal(t, 0, col.Pages)
	assert.Empty(t, col.Records)
	assert.True(t, col.Exhausted)
	assert.Error(t, col.StopReason)
}

type fakeStore struct {
	err     error
	batches [][]models.JobRecord
}

func (s *fakeStore) Upsert(_ context.Context, records []models.JobRecord) (int, error) {
	s.batches = append(s.batches, records)
	if s.err != nil {
		return 0, s.err
	}
	return len(records), nil
}

type fakeExporter struct {
	err   error
	calls int
}

func (e *fakeExporter) ExportAll(context.Context, string) (int, error) {
	e.calls++
	return 7, e.err
}

type fakeNotifier struct {
	statuses []string
	errs     []error
}

func (n *fakeNotifier) SendStatus(msg string) error {
	n.statuses = append(n.statuses, msg)
	return nil
}

func (n *fakeNotifier) SendError(err error) error {
	n.errs = append(n.errs, err)
	return nil
}

type staticCollector Collection

func (c staticCollector) Collect(context.Context) Collection { return Collection(c) }

func TestRunner_States(t *testing.T) {
	records := []models.JobRecord{{Title: "a", Link: "https://x.test/a"}}

	t.Run("done", func(t *testing.T) {
		store, exp, notifier := &fakeStore{}, &fakeExporter{}, &fakeNotifier{}
		s, err := NewRunner(staticCollector{Records: records, Pages: 1}, store, exp, "out.csv", notifier).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StateDone, s.State)
		assert.Equal(t, 1, s.Inserted)
		assert.Equal(t, 7, s.Exported)
		assert.NotEmpty(t, s.RunID)
		assert.Len(t, notifier.statuses, 1)
	})

	t.Run("navigation exhausted still persists", func(t *testing.T) {
		store, exp := &fakeStore{}, &fakeExporter{}
		col := staticCollector{Records: records, Exhausted: true, StopReason: errors.New("timeout")}
		s, err := NewRunner(col, store, exp, "out.csv", nil).Run(context.Background())
		require.NoError(t, err)
		assert.True(t, s.NavigationExhausted)
		assert.Equal(t, StateDone, s.State)
		require.Len(t, store.batches, 1)
		assert.Equal(t, records, store.batches[0])
	})

	t.Run("zero records is a clean run", func(t *testing.T) {
		store, exp := &fakeStore{}, &fakeExporter{}
		s, err := NewRunner(staticCollector{}, store, exp, "out.csv", nil).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StateDone, s.State)
		assert.Equal(t, 1, exp.calls)
	})

	t.Run("persist failure skips export", func(t *testing.T) {
		store := &fakeStore{err: fmt.Errorf("%w: commit", database.ErrConnection)}
		exp, notifier := &fakeExporter{}, &fakeNotifier{}
		s, err := NewRunner(staticCollector{Records: records}, store, exp, "out.csv", notifier).Run(context.Background())
		assert.ErrorIs(t, err, ErrPersistFailed)
		assert.ErrorIs(t, err, database.ErrConnection)
		assert.Equal(t, StatePersistFailed, s.State)
		assert.Equal(t, 0, exp.calls)
		assert.Len(t, notifier.errs, 1)
	})

	t.Run("export failure", func(t *testing.T) {
		store := &fakeStore{}
		exp := &fakeExporter{err: export.ErrExport}
		s, err := NewRunner(staticCollector{Records: records}, store, exp, "out.csv", nil).Run(context.Background())
		assert.ErrorIs(t, err, ErrExportFailed)
		assert.Equal(t, StateExportFailed, s.State)
		assert.Equal(t, 1, s.Inserted, "persisted rows are kept")
	})
}

func countRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestPipeline_RunTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	gw := database.NewGateway("sqlite:" + filepath.Join(dir, "jobs.db"))
	dest := filepath.Join(dir, "jobs.csv")
	runner := NewRunner(newPageCollector(10, fixtureSite()), gw, export.New(gw, export.Options{}), dest, nil)

	first, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Inserted)

	second, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)

	count, err := gw.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	rows := countRows(t, dest)
	assert.Len(t, rows, count+1)
	assert.Equal(t, models.ExportColumns, rows[0])
}
