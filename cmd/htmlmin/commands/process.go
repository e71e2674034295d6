package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/htmlmin/internal/logger"
	"github.com/jmylchreest/htmlmin/internal/output"
	"github.com/jmylchreest/htmlmin/pkg/htmlmin"
	"github.com/jmylchreest/htmlmin/pkg/lint"
)

var errInputTooLarge = errors.New("input too large")

// processor minifies documents one at a time and takes care of stats,
// lint and report output for each.
type processor struct {
	opts     *htmlmin.Options
	shared   *htmlmin.Minifier
	lint     bool
	stats    bool
	maxInput uint64
	report   output.Writer
	errOut   io.Writer

	mu     sync.Mutex
	files  int
	failed int
	in     int
	out    int
}

type processorConfig struct {
	Lint     bool
	Stats    bool
	MaxInput uint64
	Report   output.Writer
	ErrOut   io.Writer
}

// newProcessor validates opts up front. With linting on, each document gets
// its own minifier since a Linter collects state.
func newProcessor(opts *htmlmin.Options, cfg processorConfig) (*processor, error) {
	m, err := htmlmin.New(opts)
	if err != nil {
		return nil, err
	}
	errOut := cfg.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}
	return &processor{
		opts:     opts,
		shared:   m,
		lint:     cfg.Lint,
		stats:    cfg.Stats,
		maxInput: cfg.MaxInput,
		report:   cfg.Report,
		errOut:   errOut,
	}, nil
}

func (p *processor) minify(name string, input []byte) (*htmlmin.Result, []string, error) {
	if p.maxInput > 0 && uint64(len(input)) > p.maxInput {
		return nil, nil, fmt.Errorf("%w: %s is larger than %s",
			errInputTooLarge, humanize.Bytes(uint64(len(input))), humanize.Bytes(p.maxInput))
	}

	if !p.lint {
		result, err := p.shared.MinifyWithStats(string(input))
		return result, nil, err
	}

	l := lint.New()
	var lintOut bytes.Buffer
	m, err := htmlmin.New(p.opts.Merge(&htmlmin.Options{Lint: l, LintOutput: &lintOut}))
	if err != nil {
		return nil, nil, err
	}
	result, err := m.MinifyWithStats(string(input))
	if lintOut.Len() > 0 {
		p.mu.Lock()
		fmt.Fprintf(p.errOut, "%s:\n%s", name, lintOut.String())
		p.mu.Unlock()
	}
	return result, l.Messages(), err
}

// process minifies input and writes the result to w.
func (p *processor) process(name string, input []byte, w io.Writer) error {
	result, lintMessages, err := p.minify(name, input)

	if p.report != nil {
		report := output.NewReport(name, result, err)
		report.Lint = lintMessages
		p.mu.Lock()
		werr := p.report.Write(report)
		p.mu.Unlock()
		if werr != nil {
			logger.Error("failed to write report", "file", name, "error", werr)
		}
	}

	p.mu.Lock()
	p.files++
	if err != nil {
		p.failed++
	}
	p.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	for _, warning := range result.Warnings {
		logger.Warn("kept fragment unminified", "file", name, "phase", warning.Phase, "error", warning.Message)
	}
	p.record(name, result.Stats)

	_, err = io.WriteString(w, result.Content)
	return err
}

// processFile minifies src into dst, creating parent directories as needed.
func (p *processor) processFile(src, dst string) error {
	input, err := os.ReadFile(src) //#nosec G304 -- CLI tool reads user-specified input
	if err != nil {
		p.mu.Lock()
		p.files++
		p.failed++
		p.mu.Unlock()
		return err
	}

	var buf bytes.Buffer
	if err := p.process(src, input, &buf); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	//#nosec G306 -- minified output keeps ordinary web file permissions
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		return err
	}
	logger.Debug("minified file", "src", src, "dst", dst)
	return nil
}

func (p *processor) record(name string, stats *htmlmin.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.in += stats.InputBytes
	p.out += stats.OutputBytes

	if !p.stats {
		return
	}
	fmt.Fprintf(p.errOut, "%s: %s -> %s (%.1f%% smaller) in %v\n",
		name,
		humanize.Bytes(uint64(stats.InputBytes)),
		humanize.Bytes(uint64(stats.OutputBytes)),
		stats.ReductionPercent(),
		stats.TotalDuration.Round(time.Microsecond))
	if logger.Enabled(slog.LevelDebug) {
		fmt.Fprint(p.errOut, stats.String())
	}
}

// summary prints the totals when more than one file was processed.
func (p *processor) summary() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.stats || p.files < 2 {
		return
	}
	pct := 0.0
	if p.in > 0 {
		pct = float64(p.in-p.out) / float64(p.in) * 100
	}
	fmt.Fprintf(p.errOut, "total: %d files (%d failed), %s -> %s (%.1f%% smaller)\n",
		p.files, p.failed, humanize.Bytes(uint64(p.in)), humanize.Bytes(uint64(p.out)), pct)
}

func (p *processor) failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}
