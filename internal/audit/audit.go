package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a single audit log record describing one schema edit attempt.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Operation  string    `json:"operation"`
	Target     string    `json:"target"`
	SchemaPath string    `json:"schema_path"`
	Added      []string  `json:"added,omitempty"`
	Removed    []string  `json:"removed,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
	DryRun     bool      `json:"dry_run,omitempty"`
	IsError    bool      `json:"is_error"`
	Error      string    `json:"error,omitempty"`
}

// Logger writes JSON Lines audit entries to a file.
type Logger struct {
	mu        sync.Mutex
	f         *os.File
	enc       *json.Encoder
	path      string
	maxSizeMB int
	now       func() time.Time
}

// New creates an audit Logger. It creates parent directories (0o700) and opens
// the file in append mode (0o600). If maxSizeMB > 0, the file is rotated when
// it exceeds that size.
func New(path string, maxSizeMB int) (*Logger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("audit: create dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}

	return &Logger{
		f:         f,
		enc:       json.NewEncoder(f),
		path:      path,
		maxSizeMB: maxSizeMB,
		now:       time.Now,
	}, nil
}

// Log writes an entry as a JSON line, filling in ID and Timestamp when they
// are empty. It is safe for concurrent use. Calling Log on a nil Logger is a
// no-op.
func (l *Logger) Log(e Entry) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	_ = l.enc.Encode(e)

	if l.maxSizeMB > 0 {
		l.rotateIfNeeded()
	}
}

// Path returns the file the logger appends to.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close closes the underlying file. Calling Close on a nil Logger is a no-op.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

func (l *Logger) rotateIfNeeded() {
	info, err := l.f.Stat()
	if err != nil {
		return
	}
	if info.Size() < int64(l.maxSizeMB)*1024*1024 {
		return
	}
	l.rotate()
}

func (l *Logger) rotate() {
	_ = l.f.Close()
	_ = os.Rename(l.path, l.path+".1")

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return
	}
	l.f = f
	l.enc = json.NewEncoder(f)
}

// ReadAll decodes every entry of a JSON Lines audit file, oldest first.
func ReadAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	dec := json.NewDecoder(f)
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return entries, fmt.Errorf("audit: decode entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
