package mapper

import (
	"sync"

	"github.com/google/uuid"
)

// QueryLogger receives every statement a mapper sends to the adapter.
// It is informational and never affects control flow.
type QueryLogger interface {
	LogQuery(sql string, binds map[string]any)
}

// QueryEntry is one logged statement.
type QueryEntry struct {
	ID    string
	SQL   string
	Binds map[string]any
}

// QueryLog is an append-only in-memory QueryLogger, safe for concurrent use.
type QueryLog struct {
	mu      sync.Mutex
	entries []QueryEntry
}

// NewQueryLog returns an empty log.
func NewQueryLog() *QueryLog {
	return &QueryLog{}
}

func (l *QueryLog) LogQuery(sql string, binds map[string]any) {
	cp := make(map[string]any, len(binds))
	for k, v := range binds {
		cp[k] = v
	}
	l.mu.Lock()
	l.entries = append(l.entries, QueryEntry{ID: uuid.NewString(), SQL: sql, Binds: cp})
	l.mu.Unlock()
}

// Count returns the number of logged statements.
func (l *QueryLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a snapshot of the log.
func (l *QueryLog) Entries() []QueryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]QueryEntry(nil), l.entries...)
}

// discardLog drops everything.
type discardLog struct{}

func (discardLog) LogQuery(string, map[string]any) {}
