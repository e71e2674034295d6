package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter buffers reports and writes them as one JSON document with
// totals on Close.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
	doc    document
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		doc:    document{Files: make([]Report, 0)},
	}
}

// Write buffers a report.
func (w *JSONWriter) Write(r Report) error {
	w.doc.Files = append(w.doc.Files, r)
	w.doc.Totals.add(r)
	return nil
}

// Totals returns the aggregate so far.
func (w *JSONWriter) Totals() Totals {
	return w.doc.Totals
}

// Close writes the buffered document.
func (w *JSONWriter) Close() error {
	var output []byte
	var err error
	if w.pretty {
		output, err = json.MarshalIndent(w.doc, "", w.indent)
	} else {
		output, err = json.Marshal(w.doc)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}
	return w.w.Flush()
}

// JSONLWriter writes one JSON line per report as it arrives, which suits
// watch mode.
type JSONLWriter struct {
	w      *bufio.Writer
	totals Totals
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{
		w: bufio.NewWriter(w),
	}
}

// Write writes a report as a JSON line.
func (w *JSONLWriter) Write(r Report) error {
	output, err := json.Marshal(r)
	if err != nil {
		return err
	}
	w.totals.add(r)

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}
	return w.w.Flush()
}

// Totals returns the aggregate so far.
func (w *JSONLWriter) Totals() Totals {
	return w.totals
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.w.Flush()
}
