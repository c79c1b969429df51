package navigator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go-job-harvester/internal/models"

	"golang.org/x/time/rate"
)

// PagePlaceholder is replaced by the page offset in the URL template.
const PagePlaceholder = "{page}"

var (
	ErrMaxPages       = errors.New("max pages reached")
	ErrNoNextControl  = errors.New("no next control on page")
	ErrResultsMissing = errors.New("results container not found")
)

// Page is the browser tab the navigator drives.
type Page interface {
	Goto(url string, timeout time.Duration) error
	WaitFor(selector string, timeout time.Duration) error
	Exists(selector string) (bool, error)
	Content() (string, error)
	URL() string
}

type Options struct {
	URLTemplate string
	// PageStep multiplies the zero-based page index into the URL offset.
	PageStep int
	MaxPages int

	ResultsSelector string
	NextSelector    string

	NavigationTimeout time.Duration
	ReadyTimeout      time.Duration

	// Inter-page delay is drawn uniformly from [MinDelay, MaxDelay].
	MinDelay time.Duration
	MaxDelay time.Duration
	// RequestsPerSecond caps navigations regardless of the delay; 0 disables it.
	RequestsPerSecond float64
}

// Navigator walks the result pages of one search. It yields each page at most
// once and cannot be restarted.
type Navigator struct {
	page    Page
	opts    Options
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error

	cursor  models.PaginationCursor
	yielded int
	stopErr error
}

func New(page Page, opts Options) *Navigator {
	if opts.PageStep <= 0 {
		opts.PageStep = 1
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &Navigator{
		page:    page,
		opts:    opts,
		limiter: limiter,
		sleep:   sleepCtx,
	}
}

// PageURL builds the URL of the page at offset.
func PageURL(template string, offset int) string {
	return strings.ReplaceAll(template, PagePlaceholder, strconv.Itoa(offset))
}

// Next loads the following page and reports whether one is ready. Once it
// returns false it keeps returning false; Err tells why the walk ended.
func (n *Navigator) Next(ctx context.Context) bool {
	if n.cursor.Stopped {
		return false
	}
	if n.yielded >= n.opts.MaxPages {
		return n.stop(ErrMaxPages)
	}

	if n.yielded > 0 {
		hasNext, err := n.page.Exists(n.opts.NextSelector)
		if err != nil {
			return n.stop(fmt.Errorf("look for next control: %w", err))
		}
		if !hasNext {
			return n.stop(ErrNoNextControl)
		}
		if err := n.sleep(ctx, n.delay()); err != nil {
			return n.stop(err)
		}
		n.cursor.PageIndex++
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return n.stop(err)
	}

	url := PageURL(n.opts.URLTemplate, n.cursor.PageIndex*n.opts.PageStep)
	log.Printf("  🌐 Page %d: %s", n.cursor.PageIndex, url)
	if err := n.page.Goto(url, n.opts.NavigationTimeout); err != nil {
		return n.stop(fmt.Errorf("navigate to %s: %w", url, err))
	}
	if err := n.page.WaitFor(n.opts.ResultsSelector, n.opts.ReadyTimeout); err != nil {
		return n.stop(fmt.Errorf("%w on page %d: %v", ErrResultsMissing, n.cursor.PageIndex, err))
	}

	n.yielded++
	return true
}

// Page returns the page loaded by the last successful Next.
func (n *Navigator) Page() Page {
	return n.page
}

// Collected adds k listings to the cursor's running total.
func (n *Navigator) Collected(k int) {
	n.cursor.TotalCollected += k
}

func (n *Navigator) Cursor() models.PaginationCursor {
	return n.cursor
}

// Pages returns how many pages were yielded.
func (n *Navigator) Pages() int {
	return n.yielded
}

// Err returns the reason the walk stopped, or nil while it is still running.
// ErrMaxPages and ErrNoNextControl are normal ends of a search.
func (n *Navigator) Err() error {
	return n.stopErr
}

// Exhausted reports whether the walk ended on a failure rather than at the
// end of the results.
func (n *Navigator) Exhausted() bool {
	return n.stopErr != nil && !errors.Is(n.stopErr, ErrMaxPages) && !errors.Is(n.stopErr, ErrNoNextControl)
}

func (n *Navigator) stop(err error) bool {
	n.cursor.Stopped = true
	n.stopErr = err
	if n.Exhausted() {
		log.Printf("  ⚠️ Stopping after %d page(s): %v", n.yielded, err)
	} else {
		log.Printf("  🏁 Stopping after %d page(s): %v", n.yielded, err)
	}
	return false
}

func (n *Navigator) delay() time.Duration {
	span := n.opts.MaxDelay - n.opts.MinDelay
	if span <= 0 {
		return n.opts.MinDelay
	}
	return n.opts.MinDelay + time.Duration(rand.Int63n(int64(span)+1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
