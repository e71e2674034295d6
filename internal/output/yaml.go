package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter buffers reports and writes them as one YAML document.
type YAMLWriter struct {
	w   *bufio.Writer
	doc document
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:   bufio.NewWriter(w),
		doc: document{Files: make([]Report, 0)},
	}
}

// Write buffers a report.
func (w *YAMLWriter) Write(r Report) error {
	w.doc.Files = append(w.doc.Files, r)
	w.doc.Totals.add(r)
	return nil
}

// Totals returns the aggregate so far.
func (w *YAMLWriter) Totals() Totals {
	return w.doc.Totals
}

// Close writes the buffered document.
func (w *YAMLWriter) Close() error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	if err := encoder.Encode(w.doc); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}
