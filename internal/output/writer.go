// Package output writes minification reports in machine-readable formats.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmylchreest/htmlmin/pkg/htmlmin"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name as given on the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatJSONL, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Report describes the minification of one file.
type Report struct {
	File             string            `json:"file" yaml:"file"`
	InputBytes       int               `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes      int               `json:"output_bytes" yaml:"output_bytes"`
	ReductionPercent float64           `json:"reduction_percent" yaml:"reduction_percent"`
	Duration         time.Duration     `json:"duration_ns" yaml:"duration_ns"`
	Stats            *htmlmin.Stats    `json:"stats,omitempty" yaml:"stats,omitempty"`
	Warnings         []htmlmin.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Lint             []string          `json:"lint,omitempty" yaml:"lint,omitempty"`
	Error            string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewReport builds a report from a minification result. result may be nil
// when minification failed.
func NewReport(file string, result *htmlmin.Result, err error) Report {
	r := Report{File: file}
	if result != nil && result.Stats != nil {
		r.InputBytes = result.Stats.InputBytes
		r.OutputBytes = result.Stats.OutputBytes
		r.ReductionPercent = result.Stats.ReductionPercent()
		r.Duration = result.Stats.TotalDuration
		r.Stats = result.Stats
		r.Warnings = result.Warnings
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Totals aggregates every report written.
type Totals struct {
	Files            int     `json:"files" yaml:"files"`
	Failed           int     `json:"failed" yaml:"failed"`
	InputBytes       int     `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes      int     `json:"output_bytes" yaml:"output_bytes"`
	ReductionPercent float64 `json:"reduction_percent" yaml:"reduction_percent"`
}

func (t *Totals) add(r Report) {
	t.Files++
	if r.Error != "" {
		t.Failed++
		return
	}
	t.InputBytes += r.InputBytes
	t.OutputBytes += r.OutputBytes
	if t.InputBytes > 0 {
		t.ReductionPercent = float64(t.InputBytes-t.OutputBytes) / float64(t.InputBytes) * 100
	}
}

// document is the shape of buffered (JSON and YAML) reports.
type document struct {
	Files  []Report `json:"files" yaml:"files"`
	Totals Totals   `json:"totals" yaml:"totals"`
}

// Writer handles report serialization.
type Writer interface {
	// Write records the report for one file.
	Write(r Report) error

	// Totals returns the aggregate of the reports written so far.
	Totals() Totals

	// Close writes anything still buffered.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
