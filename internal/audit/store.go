package audit

import (
	"context"
	"time"

	"github.com/ppiankov/toolgate/internal/model"
)

// DefaultLimit is the page size applied when a filter does not set one.
const DefaultLimit = 100

// Store persists audit entries. All adapters guarantee single-process
// read-after-write consistency: once Write returns, the entry is visible
// to Query and Count on the same instance. Adapters must tolerate
// concurrent use; every adapter in this package serializes writes
// internally.
type Store interface {
	Write(ctx context.Context, entry StoredLogEntry) error
	Query(ctx context.Context, f Filter) ([]StoredLogEntry, error)
	Count(ctx context.Context, f Filter) (int, error)
}

// Filter selects audit entries. Zero-valued fields match everything.
// From and To are inclusive.
type Filter struct {
	AgentID string
	Tool    model.Tool
	Effect  model.Effect
	From    time.Time
	To      time.Time
	Limit   int
	Offset  int
}

// limit returns the effective page size.
func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// offset returns the effective page offset. Filters arrive from
// untrusted callers; a negative offset means the first page.
func (f Filter) offset() int {
	if f.Offset < 0 {
		return 0
	}
	return f.Offset
}

// matches reports whether the entry satisfies every set field. Shared by
// the scanning adapters (memory, file); the sqlite adapter compiles the
// same predicate to SQL.
func (f Filter) matches(e StoredLogEntry) bool {
	if f.AgentID != "" && e.AgentID != f.AgentID {
		return false
	}
	if f.Tool != "" && e.Tool != f.Tool {
		return false
	}
	if f.Effect != "" && e.Decision.Effect != f.Effect {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}

// page applies offset and limit to a fully filtered result set.
func (f Filter) page(entries []StoredLogEntry) []StoredLogEntry {
	off := f.offset()
	if off >= len(entries) {
		return nil
	}
	entries = entries[off:]
	if lim := f.limit(); len(entries) > lim {
		entries = entries[:lim]
	}
	return entries
}
