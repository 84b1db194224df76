package audit

import (
	"context"
	"sync"
)

// Logger records audit entries.
type Logger interface {
	Record(ctx context.Context, entry Entry) error
}

// MemoryLogger keeps entries in memory. Used in tests and as a fallback
// when no database is configured.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLogger creates an in-memory audit logger.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

// Record appends the entry.
func (l *MemoryLogger) Record(ctx context.Context, entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

// Entries returns a copy of everything recorded so far.
func (l *MemoryLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
