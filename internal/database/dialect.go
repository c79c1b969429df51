package database

import (
	"fmt"
	"time"
)

// sqliteTimeLayout has a fixed width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

type dialect struct {
	name         string
	schema       []string
	insertJob    string
	versionQuery string
	// timeArg converts a timestamp into the driver argument for scraped_at.
	timeArg func(time.Time) any
}

var postgresDialect = dialect{
	name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS jobs (
  id BIGSERIAL PRIMARY KEY,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL,
  link TEXT NOT NULL DEFAULT '',
  posted_date TEXT NOT NULL,
  scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_link ON jobs (link) WHERE link <> ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_unlinked ON jobs (lower(title), lower(company), lower(location)) WHERE link = ''`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_scraped_at ON jobs (scraped_at)`,
	},
	insertJob: `INSERT INTO jobs (title, company, location, link, posted_date, scraped_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT DO NOTHING`,
	versionQuery: `SELECT version()`,
	timeArg:      func(t time.Time) any { return t.UTC() },
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL,
  link TEXT NOT NULL DEFAULT '',
  posted_date TEXT NOT NULL,
  scraped_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_link ON jobs (link) WHERE link <> ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_unlinked ON jobs (lower(title), lower(company), lower(location)) WHERE link = ''`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_scraped_at ON jobs (scraped_at)`,
	},
	// relies on the partial unique indexes above
	insertJob: `INSERT OR IGNORE INTO jobs (title, company, location, link, posted_date, scraped_at)
VALUES (?, ?, ?, ?, ?, ?)`,
	versionQuery: `SELECT sqlite_version()`,
	timeArg:      func(t time.Time) any { return t.UTC().Format(sqliteTimeLayout) },
}

// scanTime accepts the scraped_at value as returned by either driver.
func scanTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseSQLiteTime(t)
	case []byte:
		return parseSQLiteTime(string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected scraped_at type %T", v)
	}
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04:05.999999999", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse scraped_at %q: %w", s, err)
	}
	return t, nil
}
