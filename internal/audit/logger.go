package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Logger adapts the gate's LogEntry stream into persisted StoredLogEntry
// records. A storage or tee failure never propagates to the caller: the
// gate's decision must not depend on audit plumbing.
type Logger struct {
	store   Store
	tee     io.Writer
	onError func(error)
	newID   func() string
}

// LoggerOption configures a Logger at creation time.
type LoggerOption func(*Logger)

// WithTee mirrors every raw entry to w as one JSON line. Teeing is
// best-effort observability; failures are discarded.
func WithTee(w io.Writer) LoggerOption {
	return func(l *Logger) { l.tee = w }
}

// WithOnError routes storage failures to fn instead of dropping them.
func WithOnError(fn func(error)) LoggerOption {
	return func(l *Logger) { l.onError = fn }
}

// NewLogger creates a Logger over the given store.
func NewLogger(store Store, opts ...LoggerOption) *Logger {
	l := &Logger{
		store:   store,
		onError: func(error) {},
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Log assigns a fresh id, tees the raw entry, and persists it. Returns
// the assigned id. Never panics and never surfaces an error.
func (l *Logger) Log(entry LogEntry) string {
	stored := StoredLogEntry{ID: l.newID(), LogEntry: entry}

	if l.tee != nil {
		l.safeTee(entry)
	}

	l.write(stored)
	return stored.ID
}

// safeTee mirrors the entry to the secondary sink, discarding every
// failure mode including panics.
func (l *Logger) safeTee(entry LogEntry) {
	defer func() { _ = recover() }()
	if line, err := json.Marshal(entry); err == nil {
		_, _ = l.tee.Write(append(line, '\n'))
	}
}

// write invokes the adapter inside a failure boundary: errors go to
// onError, panics are converted to errors and go to onError too.
func (l *Logger) write(stored StoredLogEntry) {
	defer func() {
		if r := recover(); r != nil {
			l.onError(fmt.Errorf("audit: store panic: %v", r))
		}
	}()
	if err := l.store.Write(context.Background(), stored); err != nil {
		l.onError(err)
	}
}

// Query delegates to the underlying store.
func (l *Logger) Query(ctx context.Context, f Filter) ([]StoredLogEntry, error) {
	return l.store.Query(ctx, f)
}

// Count delegates to the underlying store.
func (l *Logger) Count(ctx context.Context, f Filter) (int, error) {
	return l.store.Count(ctx, f)
}
