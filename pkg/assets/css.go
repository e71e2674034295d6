package assets

import (
	"bytes"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

const cssMediaType = "text/css"

// CSSMinifier minifies style sheets and style attribute values.
type CSSMinifier struct {
	m *minify.M
}

// CSSOption configures the style minifier.
type CSSOption func(*css.Minifier)

// WithCSSPrecision sets the number of significant digits kept in numbers.
// 0 keeps all digits.
func WithCSSPrecision(prec int) CSSOption {
	return func(m *css.Minifier) {
		m.Precision = prec
	}
}

// NewCSS creates a style minifier.
func NewCSS(opts ...CSSOption) *CSSMinifier {
	cfg := &css.Minifier{}
	for _, opt := range opts {
		opt(cfg)
	}
	m := minify.New()
	m.Add(cssMediaType, cfg)
	return &CSSMinifier{m: m}
}

// MinifyCSS minifies code. Inline code is a declaration list, as found in a
// style attribute.
func (c *CSSMinifier) MinifyCSS(code string, inline bool) (string, error) {
	var params map[string]string
	if inline {
		params = map[string]string{"inline": "1"}
	}

	var buf bytes.Buffer
	if err := c.m.MinifyMimetype([]byte(cssMediaType), &buf, strings.NewReader(code), params); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Name returns the minifier type.
func (c *CSSMinifier) Name() string {
	return "tdewolff-css"
}
