package htmlmin

import (
	"io"

	"github.com/jmylchreest/htmlmin/pkg/htmlparser"
)

// JSMinifier minifies script bodies and, with inline set, event handler
// attribute values.
type JSMinifier interface {
	MinifyJS(code string, inline bool) (string, error)
}

// CSSMinifier minifies style sheets and, with inline set, style attributes.
type CSSMinifier interface {
	MinifyCSS(code string, inline bool) (string, error)
}

// URLMinifier rewrites a URL to a shorter equivalent form.
type URLMinifier interface {
	MinifyURL(u string) (string, error)
}

// Linter receives every element, attribute and text run seen during a
// minification. Errors abort the minification and are returned unchanged.
// Implementations are not shared between concurrent calls by the minifier.
type Linter interface {
	Element(tag string) error
	Attribute(tag, name, value string) error
	Text(text string) error
	Finish(w io.Writer) error
}

// WhitespacePredicate decides whether whitespace inside tag may be trimmed or
// collapsed. builtin is the default decision for the tag.
type WhitespacePredicate func(tag string, attrs []htmlparser.Attribute, builtin func(tag string) bool) bool

// Options configures a Minifier. The zero value disables every
// transformation and selects legacy (non-HTML5) parsing; start from
// DefaultOptions instead.
type Options struct {
	// ===========================================
	// Parsing
	// ===========================================

	// HTML5 selects HTML5 implicit closing rules.
	HTML5 bool `json:"html5" yaml:"html5" mapstructure:"html5"`

	// CaseSensitive keeps the case of tag and attribute names.
	CaseSensitive bool `json:"case_sensitive" yaml:"case_sensitive" mapstructure:"case_sensitive"`

	// IncludeAutoGeneratedTags emits end tags the source left implicit.
	IncludeAutoGeneratedTags bool `json:"include_auto_generated_tags" yaml:"include_auto_generated_tags" mapstructure:"include_auto_generated_tags"`

	// CustomAttrAssign lists extra assignment operators, e.g. `\)?\]?=`.
	CustomAttrAssign []string `json:"custom_attr_assign,omitempty" yaml:"custom_attr_assign,omitempty" mapstructure:"custom_attr_assign" validate:"dive,regexp"`

	// CustomAttrSurround lists wrappers around attributes, e.g. {{#if x}}...{{/if}}.
	CustomAttrSurround []htmlparser.Surround `json:"custom_attr_surround,omitempty" yaml:"custom_attr_surround,omitempty" mapstructure:"custom_attr_surround"`

	// CustomAttrCollapse names attributes whose values get line breaks and
	// runs of whitespace removed.
	CustomAttrCollapse string `json:"custom_attr_collapse,omitempty" yaml:"custom_attr_collapse,omitempty" mapstructure:"custom_attr_collapse" validate:"omitempty,regexp"`

	// IgnoreCustomComments lists comment bodies that are always kept.
	IgnoreCustomComments []string `json:"ignore_custom_comments,omitempty" yaml:"ignore_custom_comments,omitempty" mapstructure:"ignore_custom_comments" validate:"dive,regexp"`

	// IgnoreCustomFragments lists template fragments that pass through untouched.
	IgnoreCustomFragments []string `json:"ignore_custom_fragments,omitempty" yaml:"ignore_custom_fragments,omitempty" mapstructure:"ignore_custom_fragments" validate:"dive,regexp"`

	// ProcessScripts lists script types whose bodies are minified as HTML.
	ProcessScripts []string `json:"process_scripts,omitempty" yaml:"process_scripts,omitempty" mapstructure:"process_scripts"`

	// ===========================================
	// Whitespace
	// ===========================================

	CollapseWhitespace          bool `json:"collapse_whitespace" yaml:"collapse_whitespace" mapstructure:"collapse_whitespace"`
	ConservativeCollapse        bool `json:"conservative_collapse" yaml:"conservative_collapse" mapstructure:"conservative_collapse"`
	PreserveLineBreaks          bool `json:"preserve_line_breaks" yaml:"preserve_line_breaks" mapstructure:"preserve_line_breaks"`
	CollapseInlineTagWhitespace bool `json:"collapse_inline_tag_whitespace" yaml:"collapse_inline_tag_whitespace" mapstructure:"collapse_inline_tag_whitespace"`

	// TrimCustomFragments trims whitespace around ignored fragments instead
	// of collapsing it to a single space.
	TrimCustomFragments bool `json:"trim_custom_fragments" yaml:"trim_custom_fragments" mapstructure:"trim_custom_fragments"`

	CanCollapseWhitespace WhitespacePredicate `json:"-" yaml:"-" mapstructure:"-" validate:"-"`
	CanTrimWhitespace     WhitespacePredicate `json:"-" yaml:"-" mapstructure:"-" validate:"-"`

	// ===========================================
	// Comments and doctype
	// ===========================================

	RemoveComments               bool `json:"remove_comments" yaml:"remove_comments" mapstructure:"remove_comments"`
	RemoveCommentsFromCDATA      bool `json:"remove_comments_from_cdata" yaml:"remove_comments_from_cdata" mapstructure:"remove_comments_from_cdata"`
	RemoveCDATASectionsFromCDATA bool `json:"remove_cdata_sections_from_cdata" yaml:"remove_cdata_sections_from_cdata" mapstructure:"remove_cdata_sections_from_cdata"`
	ProcessConditionalComments   bool `json:"process_conditional_comments" yaml:"process_conditional_comments" mapstructure:"process_conditional_comments"`
	UseShortDoctype              bool `json:"use_short_doctype" yaml:"use_short_doctype" mapstructure:"use_short_doctype"`

	// ===========================================
	// Attributes
	// ===========================================

	CollapseBooleanAttributes bool `json:"collapse_boolean_attributes" yaml:"collapse_boolean_attributes" mapstructure:"collapse_boolean_attributes"`
	RemoveAttributeQuotes     bool `json:"remove_attribute_quotes" yaml:"remove_attribute_quotes" mapstructure:"remove_attribute_quotes"`

	// QuoteCharacter forces `"` or `'` for quoted values. Empty picks the
	// character that needs fewer escapes.
	QuoteCharacter string `json:"quote_character,omitempty" yaml:"quote_character,omitempty" mapstructure:"quote_character" validate:"omitempty,quotechar"`

	RemoveRedundantAttributes     bool `json:"remove_redundant_attributes" yaml:"remove_redundant_attributes" mapstructure:"remove_redundant_attributes"`
	PreventAttributesEscaping     bool `json:"prevent_attributes_escaping" yaml:"prevent_attributes_escaping" mapstructure:"prevent_attributes_escaping"`
	RemoveEmptyAttributes         bool `json:"remove_empty_attributes" yaml:"remove_empty_attributes" mapstructure:"remove_empty_attributes"`
	RemoveScriptTypeAttributes    bool `json:"remove_script_type_attributes" yaml:"remove_script_type_attributes" mapstructure:"remove_script_type_attributes"`
	RemoveStyleLinkTypeAttributes bool `json:"remove_style_link_type_attributes" yaml:"remove_style_link_type_attributes" mapstructure:"remove_style_link_type_attributes"`
	DecodeEntities                bool `json:"decode_entities" yaml:"decode_entities" mapstructure:"decode_entities"`

	// RemoveTagWhitespace drops the space between attributes after a quoted value.
	RemoveTagWhitespace bool `json:"remove_tag_whitespace" yaml:"remove_tag_whitespace" mapstructure:"remove_tag_whitespace"`

	// ===========================================
	// Elements
	// ===========================================

	RemoveOptionalTags  bool `json:"remove_optional_tags" yaml:"remove_optional_tags" mapstructure:"remove_optional_tags"`
	RemoveEmptyElements bool `json:"remove_empty_elements" yaml:"remove_empty_elements" mapstructure:"remove_empty_elements"`

	// RemoveIgnored drops ignored custom fragments instead of restoring them.
	RemoveIgnored bool `json:"remove_ignored" yaml:"remove_ignored" mapstructure:"remove_ignored"`

	KeepClosingSlash bool `json:"keep_closing_slash" yaml:"keep_closing_slash" mapstructure:"keep_closing_slash"`

	// ===========================================
	// Output
	// ===========================================

	// MaxLineLength wraps output at fragment boundaries. 0 disables wrapping.
	MaxLineLength int `json:"max_line_length,omitempty" yaml:"max_line_length,omitempty" mapstructure:"max_line_length" validate:"gte=0"`

	// ===========================================
	// Collaborators
	// ===========================================

	MinifyJS   JSMinifier  `json:"-" yaml:"-" mapstructure:"-" validate:"-"`
	MinifyCSS  CSSMinifier `json:"-" yaml:"-" mapstructure:"-" validate:"-"`
	MinifyURLs URLMinifier `json:"-" yaml:"-" mapstructure:"-" validate:"-"`
	Lint       Linter      `json:"-" yaml:"-" mapstructure:"-" validate:"-"`

	// LintOutput receives the lint report. Nil logs each message instead.
	LintOutput io.Writer `json:"-" yaml:"-" mapstructure:"-" validate:"-"`
}

// Default fragments passed through untouched: ASP/JSP/ERB and PHP blocks.
var defaultCustomFragments = []string{`<%[\s\S]*?%>`, `<\?[\s\S]*?\?>`}

// DefaultOptions returns options that parse HTML5 and change nothing.
func DefaultOptions() *Options {
	return &Options{
		HTML5:                    true,
		IncludeAutoGeneratedTags: true,
		IgnoreCustomFragments:    append([]string(nil), defaultCustomFragments...),
	}
}

// PresetConservative returns options that only remove what cannot change
// rendering: comments, redundant attributes and collapsible whitespace (kept
// as single spaces).
func PresetConservative() *Options {
	cfg := DefaultOptions()
	cfg.CollapseWhitespace = true
	cfg.ConservativeCollapse = true
	cfg.RemoveComments = true
	cfg.UseShortDoctype = true
	cfg.RemoveRedundantAttributes = true
	cfg.RemoveScriptTypeAttributes = true
	cfg.RemoveStyleLinkTypeAttributes = true
	return cfg
}

// PresetAggressive returns the smallest-output configuration short of
// external JS/CSS minification.
func PresetAggressive() *Options {
	cfg := PresetConservative().Merge(&Options{
		CollapseBooleanAttributes: true,
		RemoveAttributeQuotes:     true,
		RemoveEmptyAttributes:     true,
		RemoveOptionalTags:        true,
		RemoveCommentsFromCDATA:   true,
		DecodeEntities:            true,
	})
	cfg.ConservativeCollapse = false
	return cfg
}

// Merge returns a copy of o with other applied on top.
// Boolean options from other win when true, strings and numbers when set.
// Pattern lists are appended, collaborators replaced when non-nil.
func (o *Options) Merge(other *Options) *Options {
	if other == nil {
		return o
	}
	merged := *o

	for _, b := range []struct {
		dst *bool
		src bool
	}{
		{&merged.HTML5, other.HTML5},
		{&merged.CaseSensitive, other.CaseSensitive},
		{&merged.IncludeAutoGeneratedTags, other.IncludeAutoGeneratedTags},
		{&merged.CollapseWhitespace, other.CollapseWhitespace},
		{&merged.ConservativeCollapse, other.ConservativeCollapse},
		{&merged.PreserveLineBreaks, other.PreserveLineBreaks},
		{&merged.CollapseInlineTagWhitespace, other.CollapseInlineTagWhitespace},
		{&merged.TrimCustomFragments, other.TrimCustomFragments},
		{&merged.RemoveComments, other.RemoveComments},
		{&merged.RemoveCommentsFromCDATA, other.RemoveCommentsFromCDATA},
		{&merged.RemoveCDATASectionsFromCDATA, other.RemoveCDATASectionsFromCDATA},
		{&merged.ProcessConditionalComments, other.ProcessConditionalComments},
		{&merged.UseShortDoctype, other.UseShortDoctype},
		{&merged.CollapseBooleanAttributes, other.CollapseBooleanAttributes},
		{&merged.RemoveAttributeQuotes, other.RemoveAttributeQuotes},
		{&merged.RemoveRedundantAttributes, other.RemoveRedundantAttributes},
		{&merged.PreventAttributesEscaping, other.PreventAttributesEscaping},
		{&merged.RemoveEmptyAttributes, other.RemoveEmptyAttributes},
		{&merged.RemoveScriptTypeAttributes, other.RemoveScriptTypeAttributes},
		{&merged.RemoveStyleLinkTypeAttributes, other.RemoveStyleLinkTypeAttributes},
		{&merged.DecodeEntities, other.DecodeEntities},
		{&merged.RemoveTagWhitespace, other.RemoveTagWhitespace},
		{&merged.RemoveOptionalTags, other.RemoveOptionalTags},
		{&merged.RemoveEmptyElements, other.RemoveEmptyElements},
		{&merged.RemoveIgnored, other.RemoveIgnored},
		{&merged.KeepClosingSlash, other.KeepClosingSlash},
	} {
		if b.src {
			*b.dst = true
		}
	}

	if other.CustomAttrCollapse != "" {
		merged.CustomAttrCollapse = other.CustomAttrCollapse
	}
	if other.QuoteCharacter != "" {
		merged.QuoteCharacter = other.QuoteCharacter
	}
	if other.MaxLineLength > 0 {
		merged.MaxLineLength = other.MaxLineLength
	}

	// Append lists (copy to avoid aliasing)
	merged.CustomAttrAssign = appendCopy(o.CustomAttrAssign, other.CustomAttrAssign)
	merged.CustomAttrSurround = append(append([]htmlparser.Surround(nil), o.CustomAttrSurround...), other.CustomAttrSurround...)
	merged.IgnoreCustomComments = appendCopy(o.IgnoreCustomComments, other.IgnoreCustomComments)
	merged.IgnoreCustomFragments = appendCopy(o.IgnoreCustomFragments, other.IgnoreCustomFragments)
	merged.ProcessScripts = appendCopy(o.ProcessScripts, other.ProcessScripts)

	if other.CanCollapseWhitespace != nil {
		merged.CanCollapseWhitespace = other.CanCollapseWhitespace
	}
	if other.CanTrimWhitespace != nil {
		merged.CanTrimWhitespace = other.CanTrimWhitespace
	}
	if other.MinifyJS != nil {
		merged.MinifyJS = other.MinifyJS
	}
	if other.MinifyCSS != nil {
		merged.MinifyCSS = other.MinifyCSS
	}
	if other.MinifyURLs != nil {
		merged.MinifyURLs = other.MinifyURLs
	}
	if other.Lint != nil {
		merged.Lint = other.Lint
	}
	if other.LintOutput != nil {
		merged.LintOutput = other.LintOutput
	}

	return &merged
}

func appendCopy(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
