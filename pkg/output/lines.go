package output

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// LineWriter appends JSON documents, one per line, to a file.
// The file is opened for every append so external rotation is harmless.
type LineWriter struct {
	mu   sync.Mutex
	path string
}

// NewLineWriter creates a writer for path. The file is created on first append.
func NewLineWriter(path string) *LineWriter {
	return &LineWriter{path: path}
}

// Path returns the file the writer appends to
func (w *LineWriter) Path() string {
	return w.path
}

// Append writes v as one compact JSON line
func (w *LineWriter) Append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding JSON line: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", w.path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", w.path, err)
	}
	return f.Close()
}
