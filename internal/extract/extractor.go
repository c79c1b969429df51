package extract

import (
	"fmt"
	"log"
	"strings"

	"go-job-harvester/internal/models"
)

type Outcome string

const (
	// OutcomeFallback means a strategy other than the first one matched.
	OutcomeFallback Outcome = "fallback"
	// OutcomeSentinel means no strategy matched and the field is unknown.
	OutcomeSentinel Outcome = "sentinel"
)

// Position locates a listing inside a crawl run.
type Position struct {
	Page    int
	Listing int
}

func (p Position) String() string {
	return fmt.Sprintf("page %d, listing %d", p.Page, p.Listing)
}

// Event is an informational diagnostic about how a field was resolved.
type Event struct {
	Field    models.Field
	Position Position
	Strategy string
	Outcome  Outcome
}

// Sink receives diagnostic events. Implementations must not block for long.
type Sink interface {
	Record(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Record(e Event) { f(e) }

// LogSink writes events to the standard logger.
type LogSink struct{}

func (LogSink) Record(e Event) {
	switch e.Outcome {
	case OutcomeFallback:
		log.Printf("      ↪️ %s: fell back to %s (%s)", e.Field, e.Strategy, e.Position)
	case OutcomeSentinel:
		log.Printf("      ❔ %s: no strategy matched, using %q (%s)", e.Field, models.Unknown, e.Position)
	}
}

// Table maps each field to its ordered strategy list.
type Table map[models.Field][]Strategy

// Extract tries strategies in order and returns the first non-empty match, or
// models.Unknown when all of them miss.
func Extract(node Node, field models.Field, pos Position, strategies []Strategy, sink Sink) string {
	for i, s := range strategies {
		v, ok := try(node, s)
		if !ok {
			continue
		}
		if i > 0 {
			emit(sink, Event{Field: field, Position: pos, Strategy: s.Name, Outcome: OutcomeFallback})
		}
		return v
	}
	emit(sink, Event{Field: field, Position: pos, Outcome: OutcomeSentinel})
	return models.Unknown
}

// ExtractAll resolves every field of models.Fields for one listing. Fields
// absent from the table come back as models.Unknown.
func ExtractAll(node Node, pos Position, table Table, sink Sink) models.RawFields {
	raw := make(models.RawFields, len(models.Fields))
	for _, f := range models.Fields {
		raw[f] = Extract(node, f, pos, table[f], sink)
	}
	return raw
}

// try runs one strategy, treating a panic as a miss.
func try(node Node, s Strategy) (v string, ok bool) {
	if s.Find == nil {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("      ⚠️ strategy %s panicked: %v", s.Name, r)
			v, ok = "", false
		}
	}()
	v, ok = s.Find(node)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func emit(sink Sink, e Event) {
	if sink != nil {
		sink.Record(e)
	}
}
