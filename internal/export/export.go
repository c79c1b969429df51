package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go-job-harvester/internal/models"

	"github.com/gofrs/flock"
)

// ErrExport wraps every failure of the export step.
var ErrExport = errors.New("export failed")

// Source yields every stored record, newest first.
type Source interface {
	ReadAll(ctx context.Context) ([]models.StoredJob, error)
}

type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

type Exporter struct {
	src  Source
	opts Options
}

func New(src Source, opts Options) *Exporter {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	return &Exporter{src: src, opts: opts}
}

// ExportAll writes a snapshot of the store to destination and returns the
// number of data rows. The file is written next to destination and renamed
// into place, so readers never see a partial snapshot.
func (e *Exporter) ExportAll(ctx context.Context, destination string) (int, error) {
	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("%w: create export directory: %v", ErrExport, err)
	}

	lockFile, err := lockPath(destination)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExport, err)
	}
	lock := flock.New(lockFile)
	locked, err := lock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("%w: lock %s: %v", ErrExport, destination, err)
	}
	if !locked {
		return 0, fmt.Errorf("%w: %s is being written by another exporter", ErrExport, destination)
	}
	defer lock.Unlock()

	jobs, err := e.src.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: read store: %v", ErrExport, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(destination)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("%w: create temp file: %v", ErrExport, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := e.write(tmp, jobs); err != nil {
		return 0, fmt.Errorf("%w: write rows: %v", ErrExport, err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("%w: sync: %v", ErrExport, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("%w: close: %v", ErrExport, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return 0, fmt.Errorf("%w: chmod: %v", ErrExport, err)
	}
	if err := os.Rename(tmpPath, destination); err != nil {
		return 0, fmt.Errorf("%w: rename into place: %v", ErrExport, err)
	}
	committed = true
	return len(jobs), nil
}

// lockPath names the lock file guarding destination. It lives in the system
// temp directory, keyed by the absolute destination, so nothing is left next
// to the snapshot.
func lockPath(destination string) (string, error) {
	abs, err := filepath.Abs(destination)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", destination, err)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(os.TempDir(), "go-job-harvester-export-"+hex.EncodeToString(sum[:8])+".lock"), nil
}

func (e *Exporter) write(f *os.File, jobs []models.StoredJob) error {
	w := csv.NewWriter(f)
	w.Comma = e.opts.Comma

	if err := w.Write(models.ExportColumns); err != nil {
		return err
	}
	for _, j := range jobs {
		row := []string{
			strconv.FormatInt(j.ID, 10),
			j.Title,
			j.Company,
			j.Location,
			j.Link,
			j.PostedDate,
			j.ScrapedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
