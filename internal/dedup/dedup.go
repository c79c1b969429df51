package dedup

import (
	"strings"

	"go-job-harvester/internal/models"
)

// Key returns the identity of a record. Records without a link are identified
// by title, company and location; the scrape time is left out so that a
// re-run over the same listings produces the same keys.
func Key(r models.JobRecord) string {
	if r.Link != "" {
		return "link:" + r.Link
	}
	return "composite:" + strings.ToLower(strings.Join([]string{r.Title, r.Company, r.Location}, "|"))
}

// Seen tracks the keys collected during one run. It is not safe for
// concurrent use.
type Seen struct {
	keys map[string]struct{}
}

func NewSeen() *Seen {
	return &Seen{keys: make(map[string]struct{})}
}

// Add records key and reports whether it was new.
func (s *Seen) Add(key string) bool {
	if _, exists := s.keys[key]; exists {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

func (s *Seen) Len() int {
	return len(s.keys)
}
