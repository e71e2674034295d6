// Package htmlmin minifies HTML documents in a single streaming pass.
//
// A Minifier validates and compiles its Options once and can then be used
// concurrently:
//
//	m, err := htmlmin.New(htmlmin.PresetAggressive())
//	if err != nil {
//		return err
//	}
//	out, err := m.Minify(page)
//
// Minification never builds a DOM. Output is assembled from parse events,
// with regions marked <!-- htmlmin:ignore --> and template fragments such as
// <% ... %> passed through byte for byte.
package htmlmin

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/htmlmin/internal/logger"
	"github.com/jmylchreest/htmlmin/pkg/htmlparser"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on empty tags or nil functions.
	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("quotechar", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == `"` || s == "'"
	})
	return v
}

// Minifier minifies HTML with a fixed set of options.
// It is safe for concurrent use unless its Options carry a Linter, which
// then receives events from every call.
type Minifier struct {
	opts Options

	grammar        *htmlparser.AttrGrammar
	ignoreComments []*regexp.Regexp
	fragments      *regexp.Regexp
	attrCollapse   *regexp.Regexp
	processScripts set
}

// Minify minifies input with opts. A nil opts uses DefaultOptions.
func Minify(input string, opts *Options) (string, error) {
	m, err := New(opts)
	if err != nil {
		return "", err
	}
	return m.Minify(input)
}

// New validates opts and compiles its patterns.
// If opts is nil, DefaultOptions() is used.
func New(opts *Options) (*Minifier, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validate.Struct(opts); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, &OptionsError{
				Field: fe.StructNamespace(),
				Err:   fmt.Errorf("value %v fails %q validation", fe.Value(), fe.Tag()),
			}
		}
		return nil, &OptionsError{Field: "Options", Err: err}
	}

	m := &Minifier{opts: *opts, processScripts: make(set)}

	grammar, err := htmlparser.NewAttrGrammar(opts.CustomAttrAssign, opts.CustomAttrSurround)
	if err != nil {
		return nil, &OptionsError{Field: "Options.CustomAttrSurround", Err: err}
	}
	m.grammar = grammar

	for i, p := range opts.IgnoreCustomComments {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &OptionsError{Field: fmt.Sprintf("Options.IgnoreCustomComments[%d]", i), Err: err}
		}
		m.ignoreComments = append(m.ignoreComments, re)
	}

	if len(opts.IgnoreCustomFragments) > 0 {
		alts := make([]string, len(opts.IgnoreCustomFragments))
		for i, p := range opts.IgnoreCustomFragments {
			alts[i] = "(?:" + p + ")"
		}
		re, err := regexp.Compile(`\s*(?:` + strings.Join(alts, "|") + `)+\s*`)
		if err != nil {
			return nil, &OptionsError{Field: "Options.IgnoreCustomFragments", Err: err}
		}
		m.fragments = re
	}

	if opts.CustomAttrCollapse != "" {
		re, err := regexp.Compile(opts.CustomAttrCollapse)
		if err != nil {
			return nil, &OptionsError{Field: "Options.CustomAttrCollapse", Err: err}
		}
		m.attrCollapse = re
	}

	for _, t := range opts.ProcessScripts {
		m.processScripts[strings.ToLower(trimSpace(t))] = true
	}

	return m, nil
}

// Name returns the minifier name for logging.
func (m *Minifier) Name() string {
	return "htmlmin"
}

// Minify returns the minified document.
func (m *Minifier) Minify(input string) (string, error) {
	result, err := m.MinifyWithStats(input)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// MinifyWithStats minifies input and reports what was done. Parse errors,
// placeholder exhaustion and linter errors are returned; collaborator
// failures are recorded as warnings and leave their fragment unminified.
func (m *Minifier) MinifyWithStats(input string) (*Result, error) {
	startTime := time.Now()
	result := &Result{Stats: &Stats{InputBytes: len(input)}}

	substituteStart := time.Now()
	ph := &placeholders{}
	doc, err := ph.substitute(input, m.fragments, result.Stats)
	if err != nil {
		return nil, err
	}
	result.Stats.SubstituteDuration = time.Since(substituteStart)

	minifyStart := time.Now()
	frags, err := m.run(doc, ph, result)
	if err != nil {
		return nil, err
	}
	result.Stats.MinifyDuration = time.Since(minifyStart)

	outputStart := time.Now()
	out := joinFragments(frags, m.opts.MaxLineLength)
	out = ph.restoreFragments(out, &m.opts)
	out = ph.restoreIgnored(out)
	result.Stats.OutputDuration = time.Since(outputStart)

	if m.opts.Lint != nil {
		if err := m.opts.Lint.Finish(m.opts.LintOutput); err != nil {
			return nil, err
		}
	}

	result.Content = out
	result.Stats.OutputBytes = len(out)
	result.Stats.TotalDuration = time.Since(startTime)

	logger.Debug("minified document",
		"input_bytes", result.Stats.InputBytes,
		"output_bytes", result.Stats.OutputBytes,
		"warnings", len(result.Warnings),
		"duration", result.Stats.TotalDuration)

	return result, nil
}

// run tokenizes doc and returns the output fragments.
func (m *Minifier) run(doc string, ph *placeholders, result *Result) ([]string, error) {
	e := newEngine(m, ph, result)
	err := htmlparser.Parse(doc, e, htmlparser.Options{HTML5: m.opts.HTML5, Grammar: m.grammar})
	if err != nil {
		return nil, err
	}
	e.finish()
	return e.buf.strings(), nil
}
