package browser

import (
	"errors"
	"fmt"
	"log"

	"github.com/playwright-community/playwright-go"
)

type Options struct {
	ShowBrowser bool
	UserAgent   string
	CookiesPath string
}

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewPlaywright starts the driver and launches Chromium.
func NewPlaywright(opts Options) (*PlaywrightManager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!opts.ShowBrowser),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch chromium browser: %w", err)
	}
	return &PlaywrightManager{pw: pw, browser: browser}, nil
}

func (pm *PlaywrightManager) NewContext(userAgent string, cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	opts := playwright.BrowserNewContextOptions{}
	if userAgent != "" {
		opts.UserAgent = playwright.String(userAgent)
	}
	browserCtx, err := pm.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	if len(cookies) > 0 {
		if err := browserCtx.AddCookies(cookies); err != nil {
			_ = browserCtx.Close()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}
	return browserCtx, nil
}

func (pm *PlaywrightManager) Close() error {
	var errs []error
	if pm.browser != nil {
		errs = append(errs, pm.browser.Close())
	}
	if pm.pw != nil {
		errs = append(errs, pm.pw.Stop())
	}
	return errors.Join(errs...)
}

// Session is the single browser tab used by a crawl run.
type Session struct {
	manager    *PlaywrightManager
	browserCtx playwright.BrowserContext
	page       playwright.Page
}

// OpenSession launches the browser, loads cookies when a cookie file is
// configured and opens one page. Whatever was started is released again if a
// later step fails.
func OpenSession(opts Options) (*Session, error) {
	manager, err := NewPlaywright(opts)
	if err != nil {
		return nil, err
	}

	var cookies []playwright.OptionalCookie
	if opts.CookiesPath != "" {
		cookies, err = LoadCookies(opts.CookiesPath)
		if err != nil {
			log.Printf("⚠️ Could not load cookies from %s: %v. Continuing.", opts.CookiesPath, err)
		} else {
			log.Printf("🍪 Loaded %d cookies", len(cookies))
		}
	}

	browserCtx, err := manager.NewContext(opts.UserAgent, cookies)
	if err != nil {
		_ = manager.Close()
		return nil, err
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		_ = manager.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	return &Session{manager: manager, browserCtx: browserCtx, page: page}, nil
}

func (s *Session) Page() playwright.Page {
	return s.page
}

func (s *Session) Close() error {
	return errors.Join(s.browserCtx.Close(), s.manager.Close())
}
