package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TraceEvent is one JSONL record in a run trace.
type TraceEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Outcome   *Outcome  `json:"outcome,omitempty"`
	Summary   *Summary  `json:"summary,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// TraceWriter appends trace events to a JSONL file, one object per line.
// Every write is flushed and synced so a crashed run still leaves a
// readable trace.
type TraceWriter struct {
	file   *os.File
	writer *bufio.Writer
	enc    *json.Encoder
}

// NewTraceWriter opens path for appending, creating parent directories
// as needed.
func NewTraceWriter(path string) (*TraceWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create trace directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	w := bufio.NewWriter(f)
	return &TraceWriter{file: f, writer: w, enc: json.NewEncoder(w)}, nil
}

// Write appends one event and forces it to disk.
func (t *TraceWriter) Write(event TraceEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := t.enc.Encode(event); err != nil {
		return fmt.Errorf("encode trace event: %w", err)
	}
	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("flush trace: %w", err)
	}
	return t.file.Sync()
}

// Close flushes pending data and closes the file.
func (t *TraceWriter) Close() error {
	if t == nil || t.file == nil {
		return nil
	}
	if err := t.writer.Flush(); err != nil {
		t.file.Close()
		return fmt.Errorf("flush trace: %w", err)
	}
	return t.file.Close()
}
