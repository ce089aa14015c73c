package session

import (
	"fmt"
	"sync"
)

// LinePrefix is prepended to each entry when the log is rendered.
const LinePrefix = "> "

// Log is an append-only, ordered sequence of diagnostic lines.
// Entries are never evicted.
type Log struct {
	mu      sync.Mutex
	entries []string
	onAdd   []func(string)
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Add appends a line to the log.
func (l *Log) Add(line string) {
	l.mu.Lock()
	l.entries = append(l.entries, line)
	hooks := l.onAdd
	l.mu.Unlock()

	for _, fn := range hooks {
		fn(line)
	}
}

// Addf appends a formatted line to the log.
func (l *Log) Addf(format string, args ...any) {
	l.Add(fmt.Sprintf(format, args...))
}

// Entries returns a copy of all lines in insertion order.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Rendered returns all lines with the display prefix applied.
func (l *Log) Rendered() []string {
	entries := l.Entries()
	for i, e := range entries {
		entries[i] = LinePrefix + e
	}
	return entries
}

// Len returns the number of lines.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// OnAdd registers fn to be called after every appended line.
// Hooks run on the appending goroutine, outside the log's lock.
func (l *Log) OnAdd(fn func(string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onAdd = append(l.onAdd, fn)
}
