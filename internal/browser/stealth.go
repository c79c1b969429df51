package browser

import (
	"github.com/playwright-community/playwright-go"
)

// ScrollToBottom scrolls the page once to the end so lazily rendered
// listings are in the DOM before it is read.
func ScrollToBottom(page playwright.Page) error {
	_, err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}
