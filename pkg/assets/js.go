// Package assets provides the script, style sheet and URL minifiers that
// htmlmin delegates to. Script and style minification use
// github.com/tdewolff/minify; URL shortening resolves against a base URL.
package assets

import (
	"regexp"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
)

const jsMediaType = "application/javascript"

var (
	reLeadingHTMLComment  = regexp.MustCompile(`^\s*<!--.*`)
	reTrailingHTMLComment = regexp.MustCompile(`\n\s*-->\s*$`)
)

// JSMinifier minifies script bodies and event handler values.
type JSMinifier struct {
	m *minify.M
}

// JSOption configures the script minifier.
type JSOption func(*js.Minifier)

// WithKeepVarNames disables renaming of local variables.
func WithKeepVarNames(keep bool) JSOption {
	return func(m *js.Minifier) {
		m.KeepVarNames = keep
	}
}

// WithJSPrecision sets the number of significant digits kept in numbers.
// 0 keeps all digits.
func WithJSPrecision(prec int) JSOption {
	return func(m *js.Minifier) {
		m.Precision = prec
	}
}

// NewJS creates a script minifier.
func NewJS(opts ...JSOption) *JSMinifier {
	cfg := &js.Minifier{}
	for _, opt := range opts {
		opt(cfg)
	}
	m := minify.New()
	m.Add(jsMediaType, cfg)
	return &JSMinifier{m: m}
}

// MinifyJS minifies code. A legacy <!-- ... --> wrapper around a script body
// is dropped first. Inline code (an event handler) loses its trailing
// semicolon.
func (j *JSMinifier) MinifyJS(code string, inline bool) (string, error) {
	code = reLeadingHTMLComment.ReplaceAllString(code, "")
	code = reTrailingHTMLComment.ReplaceAllString(code, "")

	out, err := j.m.String(jsMediaType, code)
	if err != nil {
		return "", err
	}
	if inline {
		out = strings.TrimSuffix(out, ";")
	}
	return out, nil
}

// Name returns the minifier type.
func (j *JSMinifier) Name() string {
	return "tdewolff-js"
}
