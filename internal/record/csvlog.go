package record

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CSVLog is an append-only CSV execution log.
type CSVLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// OpenCSVLog opens (or creates) the log at path for appending.
// The header is written when the file is empty. A log whose last line has
// no trailing newline is terminated first so the next record starts on its
// own line.
func OpenCSVLog(path string) (*CSVLog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open execution log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat execution log: %w", err)
	}
	switch size := info.Size(); {
	case size == 0:
		if _, err := f.WriteString(EncodeLine(Header)); err != nil {
			f.Close()
			return nil, fmt.Errorf("write log header: %w", err)
		}
	default:
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			f.Close()
			return nil, fmt.Errorf("read execution log tail: %w", err)
		}
		if last[0] != '\n' {
			if _, err := f.WriteString("\n"); err != nil {
				f.Close()
				return nil, fmt.Errorf("terminate last log line: %w", err)
			}
		}
	}

	return &CSVLog{path: path, f: f}, nil
}

// Path returns the log's file path.
func (l *CSVLog) Path() string {
	return l.path
}

// Append writes one record as a single line.
func (l *CSVLog) Append(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("append to %s: %w", l.path, err)
	}

	line := EncodeLine(r.Fields())

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return fmt.Errorf("append to %s: log is closed", l.path)
	}
	// One Write per record: the line is never split across calls.
	if _, err := l.f.WriteString(line); err != nil {
		return fmt.Errorf("append to %s: %w", l.path, err)
	}
	return nil
}

// Close closes the underlying file. Safe to call more than once.
func (l *CSVLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

var fieldEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\r", `\r`,
	"\n", `\n`,
	`"`, `""`,
)

// EncodeLine renders fields as one quoted CSV line ending in "\n".
func EncodeLine(fields []string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(fieldEscaper.Replace(f))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
	return b.String()
}

// unescapeField reverses the backslash escapes written by EncodeLine.
// Quote doubling is already undone by the CSV reader.
func unescapeField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// ReadLog parses an execution log written by CSVLog.
// A missing file yields no records.
func ReadLog(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read execution log: %w", err)
	}
	return ParseLog(data)
}

// ParseLog parses execution log content.
func ParseLog(data []byte) ([]Record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse execution log header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(unescapeField(header[i]))
	}

	records := []Record{}
	for line := 2; ; line++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse execution log line %d: %w", line, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = unescapeField(fields[i])
			}
		}
		records = append(records, fromColumns(row))
	}
	return records, nil
}
