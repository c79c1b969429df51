package utils

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ScreenShotDebugger keeps a full-page picture of pages the harvester could
// not read, so a markup change can be diagnosed after the run.
type ScreenShotDebugger struct {
	outputDir string
	now       func() time.Time
}

// NewScreenShotDebugger returns nil when dir is empty or cannot be created.
// A nil debugger is valid and captures nothing.
func NewScreenShotDebugger(dir string) *ScreenShotDebugger {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("⚠️ Failed to create screenshot directory: %v", err)
		return nil
	}
	return &ScreenShotDebugger{outputDir: dir, now: time.Now}
}

// Capture saves the current page as <label>_<host>_<timestamp>.png and
// returns the file path.
func (s *ScreenShotDebugger) Capture(page playwright.Page, label string) (string, error) {
	if s == nil {
		return "", nil
	}
	path := filepath.Join(s.outputDir, s.fileName(label, page.URL()))
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		log.Printf("⚠️ Failed to capture screenshot: %v", err)
		return "", err
	}
	log.Printf("   📸 Screenshot saved: %s", path)
	return path, nil
}

func (s *ScreenShotDebugger) fileName(label, pageURL string) string {
	host := "page"
	if u, err := url.Parse(pageURL); err == nil && u.Hostname() != "" {
		host = strings.ReplaceAll(u.Hostname(), ".", "-")
	}
	return fmt.Sprintf("%s_%s_%s.png", label, host, s.now().Format("2006-01-02_15-04-05"))
}
