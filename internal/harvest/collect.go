package harvest

import (
	"context"
	"fmt"
	"log"

	"go-job-harvester/internal/browser"
	"go-job-harvester/internal/config"
	"go-job-harvester/internal/dedup"
	"go-job-harvester/internal/extract"
	"go-job-harvester/internal/models"
	"go-job-harvester/internal/navigator"
	"go-job-harvester/internal/normalize"
	"go-job-harvester/internal/scraper"
	"go-job-harvester/utils"
)

// Collection is what the navigation phase hands to persistence.
type Collection struct {
	Records    []models.JobRecord
	Cursor     models.PaginationCursor
	Pages      int
	Duplicates int
	// Exhausted is set when the walk ended on a failure instead of the end of
	// the results. The records gathered so far are still valid.
	Exhausted  bool
	StopReason error
}

// Collector runs the navigation phase. It never fails: problems truncate the
// collection instead.
type Collector interface {
	Collect(ctx context.Context) Collection
}

// BrowserCollector crawls the configured site with a headless browser.
type BrowserCollector struct {
	cfg        *config.Config
	site       scraper.Site
	sink       extract.Sink
	normalizer *normalize.Normalizer
}

func NewBrowserCollector(cfg *config.Config, site scraper.Site, sink extract.Sink) *BrowserCollector {
	return &BrowserCollector{
		cfg:        cfg,
		site:       site,
		sink:       sink,
		normalizer: normalize.New(),
	}
}

// Collect opens the browser session, walks the result pages and closes the
// session again before returning, whatever happened during the walk.
func (c *BrowserCollector) Collect(ctx context.Context) Collection {
	session, err := browser.OpenSession(browser.Options{
		ShowBrowser: c.cfg.Browser.ShowBrowser,
		UserAgent:   c.cfg.Browser.UserAgent,
		CookiesPath: c.cfg.Browser.CookiesPath,
	})
	if err != nil {
		log.Printf("❌ Failed to init browser: %v", err)
		return Collection{Exhausted: true, StopReason: err}
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("⚠️ Failed to close browser: %v", err)
		}
	}()
	log.Println("✅ Browser initialized successfully!")

	shots := utils.NewScreenShotDebugger(c.cfg.Browser.ScreenshotDir)
	return c.crawl(ctx, browser.NewPageAdapter(session.Page(), shots))
}

func (c *BrowserCollector) navigatorOptions() navigator.Options {
	s := c.cfg.Source
	return navigator.Options{
		URLTemplate:       s.URLTemplate,
		PageStep:          s.PageStep,
		MaxPages:          s.MaxPages,
		ResultsSelector:   c.site.ResultsSelector,
		NextSelector:      c.site.NextSelector,
		NavigationTimeout: s.NavigationTimeout,
		ReadyTimeout:      s.ReadyTimeout,
		MinDelay:          s.MinDelay,
		MaxDelay:          s.MaxDelay,
		RequestsPerSecond: s.RequestsPerSecond,
	}
}

// crawl is the FETCH_PAGE → EXTRACT → ACCUMULATE loop over an open page.
func (c *BrowserCollector) crawl(ctx context.Context, page navigator.Page) Collection {
	nav := navigator.New(page, c.navigatorOptions())
	seen := dedup.NewSeen()

	var (
		col     Collection
		pageErr error
	)
	for nav.Next(ctx) {
		p := nav.Page()
		pageIndex := nav.Cursor().PageIndex

		html, err := p.Content()
		if err != nil {
			pageErr = fmt.Errorf("read page %d: %w", pageIndex, err)
			break
		}
		raws, err := c.site.ExtractPage(html, pageIndex, c.sink)
		if err != nil {
			pageErr = err
			break
		}

		origin := normalize.Origin(p.URL())
		added := 0
		for _, raw := range raws {
			rec := c.normalizer.Normalize(raw, origin)
			if !seen.Add(dedup.Key(rec)) {
				col.Duplicates++
				continue
			}
			col.Records = append(col.Records, rec)
			added++
		}
		nav.Collected(len(raws))
		log.Printf("    📦 Page %d: %d listings, %d new", pageIndex, len(raws), added)
	}

	col.Cursor = nav.Cursor()
	col.Pages = nav.Pages()
	col.Exhausted = nav.Exhausted()
	col.StopReason = nav.Err()
	if pageErr != nil {
		log.Printf("  ⚠️ Stopping after %d page(s): %v", col.Pages, pageErr)
		col.Cursor.Stopped = true
		col.Exhausted = true
		col.StopReason = pageErr
	}
	return col
}
