package browser

import (
	"fmt"
	"log"
	"time"

	"go-job-harvester/utils"

	"github.com/playwright-community/playwright-go"
)

// PageAdapter exposes a playwright page to the navigator.
type PageAdapter struct {
	page  playwright.Page
	shots *utils.ScreenShotDebugger
}

// NewPageAdapter wraps page. shots may be nil to disable debug screenshots.
func NewPageAdapter(page playwright.Page, shots *utils.ScreenShotDebugger) *PageAdapter {
	return &PageAdapter{page: page, shots: shots}
}

func (a *PageAdapter) Goto(url string, timeout time.Duration) error {
	resp, err := a.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(ms(timeout)),
	})
	if err != nil {
		return err
	}
	if resp != nil && resp.Status() >= 400 {
		return fmt.Errorf("status %d", resp.Status())
	}
	return nil
}

func (a *PageAdapter) WaitFor(selector string, timeout time.Duration) error {
	_, err := a.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(ms(timeout)),
	})
	if err != nil {
		log.Printf("    🚨 Results container %q did not appear", selector)
		_, _ = a.shots.Capture(a.page, "results-missing")
	}
	return err
}

func (a *PageAdapter) Exists(selector string) (bool, error) {
	count, err := a.page.Locator(selector).Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Content scrolls to the end of the page and returns its HTML.
func (a *PageAdapter) Content() (string, error) {
	if err := ScrollToBottom(a.page); err != nil {
		log.Printf("    ⚠️ Scroll failed: %v", err)
	}
	return a.page.Content()
}

func (a *PageAdapter) URL() string {
	return a.page.URL()
}

func ms(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
