package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	cwerrors "github.com/cartwavehq/cartwave-export/internal/errors"
)

// ForFormat returns the RowWriter for an export format. The delimiter only
// applies to CSV output.
func ForFormat(format string, w io.Writer, delimiter rune) (RowWriter, error) {
	switch format {
	case "csv":
		return NewCSVWriter(w, delimiter), nil
	case "json":
		return NewJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q: %w", format, cwerrors.ErrInvalidConfig)
	}
}

// OpenSink opens the export destination. An empty path or "-" selects
// stdout, whose Close is a no-op so callers can defer it unconditionally.
func OpenSink(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &cwerrors.SinkWriteError{Err: fmt.Errorf("creating output file %s: %w", path, err)}
	}
	return f, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// CSVWriter streams rows as RFC 4180 records with a configurable column
// delimiter. The header row is emitted by Begin, so even an export that
// matches zero records produces a parseable file.
type CSVWriter struct {
	mu       sync.Mutex
	w        *csv.Writer
	fields   []string
	count    int
	begun    bool
	finished bool
}

// NewCSVWriter creates a CSV row writer targeting w.
func NewCSVWriter(w io.Writer, delimiter rune) *CSVWriter {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	return &CSVWriter{w: cw}
}

// Begin writes the header row.
func (c *CSVWriter) Begin(fields []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.begun {
		return &cwerrors.SinkWriteError{Err: fmt.Errorf("header already written")}
	}
	c.begun = true
	c.fields = fields

	if err := c.w.Write(fields); err != nil {
		return &cwerrors.SinkWriteError{Err: err}
	}
	return c.flushLocked()
}

// Write emits one row in header order. Each row is flushed immediately so
// partial exports remain on disk when a later page fails.
func (c *CSVWriter) Write(row map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.begun || c.finished {
		return &cwerrors.SinkWriteError{Err: fmt.Errorf("write outside Begin/Finish window")}
	}

	record := make([]string, len(c.fields))
	for i, field := range c.fields {
		record[i] = row[field]
	}
	if err := c.w.Write(record); err != nil {
		return &cwerrors.SinkWriteError{Err: err}
	}
	c.count++
	return c.flushLocked()
}

// Finish flushes buffered output. Safe to call repeatedly.
func (c *CSVWriter) Finish() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return nil
	}
	c.finished = true
	return c.flushLocked()
}

// Count returns the number of data rows written, excluding the header.
func (c *CSVWriter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *CSVWriter) flushLocked() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return &cwerrors.SinkWriteError{Err: err}
	}
	return nil
}

// JSONWriter streams rows as a single top-level JSON array. Objects carry
// their keys in header order and values are always strings, matching the
// flattened row model.
type JSONWriter struct {
	mu       sync.Mutex
	w        io.Writer
	fields   []string
	count    int
	begun    bool
	finished bool
}

// NewJSONWriter creates a JSON row writer targeting w.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

// Begin opens the array.
func (j *JSONWriter) Begin(fields []string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.begun {
		return &cwerrors.SinkWriteError{Err: fmt.Errorf("array already opened")}
	}
	j.begun = true
	j.fields = fields

	if _, err := io.WriteString(j.w, "["); err != nil {
		return &cwerrors.SinkWriteError{Err: err}
	}
	return nil
}

// Write appends one object to the array.
func (j *JSONWriter) Write(row map[string]string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.begun || j.finished {
		return &cwerrors.SinkWriteError{Err: fmt.Errorf("write outside Begin/Finish window")}
	}

	var buf bytes.Buffer
	if j.count > 0 {
		buf.WriteByte(',')
	}
	buf.WriteString("\n  ")
	if err := encodeRow(&buf, j.fields, row); err != nil {
		return &cwerrors.SinkWriteError{Err: err}
	}

	if _, err := j.w.Write(buf.Bytes()); err != nil {
		return &cwerrors.SinkWriteError{Err: err}
	}
	j.count++
	return nil
}

// Finish closes the array. An empty export yields "[]". Safe to call
// repeatedly.
func (j *JSONWriter) Finish() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.finished {
		return nil
	}
	j.finished = true

	trailer := "]\n"
	if j.count > 0 {
		trailer = "\n]\n"
	}
	if _, err := io.WriteString(j.w, trailer); err != nil {
		return &cwerrors.SinkWriteError{Err: err}
	}
	return nil
}

// Count returns the number of objects written.
func (j *JSONWriter) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// encodeRow writes one row object with keys in field order. json.Marshal
// handles string escaping; field order is preserved by hand because
// encoding/json sorts map keys.
func encodeRow(buf *bytes.Buffer, fields []string, row map[string]string) error {
	buf.WriteByte('{')
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field)
		if err != nil {
			return err
		}
		val, err := json.Marshal(row[field])
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return nil
}
