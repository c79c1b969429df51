package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"go-job-harvester/internal/models"
)

// Gateway stores job records. Every call opens its own connection and closes
// it before returning; nothing is held open between calls. A Gateway assumes
// it is the only writer of the store.
type Gateway struct {
	dsn string
	now func() time.Time
}

func NewGateway(dsn string) *Gateway {
	return &Gateway{dsn: dsn, now: time.Now}
}

func (g *Gateway) connect(ctx context.Context) (*DB, error) {
	db, err := Open(ctx, g.dsn)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Upsert inserts records that are not stored yet and returns how many rows
// were added. A record whose key already exists is skipped silently; a record
// the store rejects is logged and skipped. Errors wrapping ErrConnection mean
// the whole batch was rolled back.
func (g *Gateway) Upsert(ctx context.Context, records []models.JobRecord) (int, error) {
	db, err := g.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx: %v", ErrConnection, err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			log.Printf("⚠️ Skipping record %d (%s): %v", i, r.Link, err)
			continue
		}

		// A failed statement poisons the surrounding transaction in Postgres,
		// so each insert runs inside its own savepoint.
		if _, err := tx.ExecContext(ctx, "SAVEPOINT job_insert"); err != nil {
			return 0, fmt.Errorf("%w: savepoint: %v", ErrConnection, err)
		}

		scrapedAt := r.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = g.now()
		}
		res, err := tx.ExecContext(ctx, db.dialect.insertJob,
			r.Title, r.Company, r.Location, r.Link, r.PostedDate, db.dialect.timeArg(scrapedAt))
		if err != nil {
			log.Printf("⚠️ Skipping record %d (%s): %v", i, r.Link, err)
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT job_insert"); rbErr != nil {
				return 0, fmt.Errorf("%w: rollback to savepoint: %v", ErrConnection, rbErr)
			}
			if _, relErr := tx.ExecContext(ctx, "RELEASE SAVEPOINT job_insert"); relErr != nil {
				return 0, fmt.Errorf("%w: release savepoint: %v", ErrConnection, relErr)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT job_insert"); err != nil {
			return 0, fmt.Errorf("%w: release savepoint: %v", ErrConnection, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%w: rows affected: %v", ErrConnection, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrConnection, err)
	}
	return inserted, nil
}

// ReadAll returns every stored record, newest first.
func (g *Gateway) ReadAll(ctx context.Context) ([]models.StoredJob, error) {
	db, err := g.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.sql.QueryContext(ctx, `
SELECT id, title, company, location, link, posted_date, scraped_at
FROM jobs
ORDER BY scraped_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var out []models.StoredJob
	for rows.Next() {
		var (
			j         models.StoredJob
			scrapedAt any
		)
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Link, &j.PostedDate, &scrapedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if j.ScrapedAt, err = scanTime(scrapedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (g *Gateway) Count(ctx context.Context) (int, error) {
	db, err := g.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var n int
	if err := db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

// Check connects, ensures the schema and reports the server version.
func (g *Gateway) Check(ctx context.Context) (string, error) {
	db, err := g.connect(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.Version(ctx)
}

var errMalformed = errors.New("malformed record")

// validateRecord rejects content that Postgres refuses in TEXT columns, so
// both backends skip the same records.
func validateRecord(r models.JobRecord) error {
	for _, v := range []string{r.Title, r.Company, r.Location, r.Link, r.PostedDate} {
		if !utf8.ValidString(v) {
			return fmt.Errorf("%w: invalid utf-8", errMalformed)
		}
		if strings.ContainsRune(v, 0) {
			return fmt.Errorf("%w: contains NUL byte", errMalformed)
		}
	}
	return nil
}
