package harvest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-job-harvester/internal/models"

	"github.com/google/uuid"
)

type State string

const (
	StateInit                State = "INIT"
	StateNavigating          State = "NAVIGATING"
	StatePersisting          State = "PERSISTING"
	StateExporting           State = "EXPORTING"
	StateDone                State = "DONE"
	StateNavigationExhausted State = "NAVIGATION_EXHAUSTED"
	StatePersistFailed       State = "PERSIST_FAILED"
	StateExportFailed        State = "EXPORT_FAILED"
)

var (
	ErrPersistFailed = errors.New("persist failed")
	ErrExportFailed  = errors.New("export failed")
)

// Store persists a batch and reports how many records were new.
type Store interface {
	Upsert(ctx context.Context, records []models.JobRecord) (int, error)
}

// Snapshotter writes the full store to a file.
type Snapshotter interface {
	ExportAll(ctx context.Context, destination string) (int, error)
}

// Notifier receives the outcome of a run. Delivery failures are only logged.
type Notifier interface {
	SendStatus(message string) error
	SendError(err error) error
}

type Summary struct {
	RunID      string
	State      State
	Pages      int
	Collected  int
	Duplicates int
	Inserted   int
	Exported   int
	ExportPath string
	// NavigationExhausted is set when navigation ended on a failure; the run
	// still persisted what it had.
	NavigationExhausted bool
	Duration            time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("run %s %s: %d page(s), %d listing(s), %d duplicate(s), %d inserted, %d row(s) exported to %s in %s",
		s.RunID, s.State, s.Pages, s.Collected, s.Duplicates, s.Inserted, s.Exported, s.ExportPath, s.Duration.Round(time.Second))
}

type Runner struct {
	collector  Collector
	store      Store
	exporter   Snapshotter
	exportPath string
	notifier   Notifier
}

// NewRunner wires one run. notifier may be nil.
func NewRunner(collector Collector, store Store, exporter Snapshotter, exportPath string, notifier Notifier) *Runner {
	return &Runner{
		collector:  collector,
		store:      store,
		exporter:   exporter,
		exportPath: exportPath,
		notifier:   notifier,
	}
}

// Run drives INIT → NAVIGATING → PERSISTING → EXPORTING → DONE. A returned
// error wraps ErrPersistFailed or ErrExportFailed; navigation problems never
// fail the run.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	s := Summary{RunID: uuid.NewString(), State: StateInit, ExportPath: r.exportPath}
	log.Printf("🚀 Starting run %s", s.RunID)

	s.State = StateNavigating
	col := r.collector.Collect(ctx)
	s.Pages = col.Pages
	s.Collected = col.Cursor.TotalCollected
	s.Duplicates = col.Duplicates
	if col.Exhausted {
		s.NavigationExhausted = true
		log.Printf("⚠️ %s after %d page(s): %v", StateNavigationExhausted, col.Pages, col.StopReason)
	}
	log.Printf("📦 Total jobs collected: %d (%d duplicates dropped)", len(col.Records), col.Duplicates)

	s.State = StatePersisting
	inserted, err := r.store.Upsert(ctx, col.Records)
	if err != nil {
		s.State = StatePersistFailed
		s.Duration = time.Since(start)
		err = fmt.Errorf("%w: %w", ErrPersistFailed, err)
		r.notifyError(err)
		return s, err
	}
	s.Inserted = inserted
	log.Printf("💾 Stored %d new jobs (%d already known)", inserted, len(col.Records)-inserted)

	s.State = StateExporting
	exported, err := r.exporter.ExportAll(ctx, r.exportPath)
	if err != nil {
		s.State = StateExportFailed
		s.Duration = time.Since(start)
		err = fmt.Errorf("%w: %w", ErrExportFailed, err)
		r.notifyError(err)
		return s, err
	}
	s.Exported = exported
	log.Printf("📁 Snapshot of %d jobs saved to %s", exported, r.exportPath)

	s.State = StateDone
	s.Duration = time.Since(start)
	r.notifyStatus(s.String())
	return s, nil
}

func (r *Runner) notifyStatus(msg string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.SendStatus(msg); err != nil {
		log.Printf("⚠️ Failed to send status to Telegram: %v", err)
	}
}

func (r *Runner) notifyError(runErr error) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.SendError(runErr); err != nil {
		log.Printf("⚠️ Failed to send error to Telegram: %v", err)
	}
}
