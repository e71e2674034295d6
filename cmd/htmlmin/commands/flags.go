package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/htmlmin/pkg/htmlmin"
	"github.com/jmylchreest/htmlmin/pkg/htmlparser"
)

// boolOption maps a kebab-case flag onto an Options field. The viper key is
// the field's mapstructure name so config files use the same spelling.
type boolOption struct {
	flag  string
	usage string
	field func(*htmlmin.Options) *bool
}

var boolOptions = []boolOption{
	// Parsing
	{"html5", "parse with HTML5 implicit closing rules", func(o *htmlmin.Options) *bool { return &o.HTML5 }},
	{"case-sensitive", "keep the case of tag and attribute names", func(o *htmlmin.Options) *bool { return &o.CaseSensitive }},
	{"include-auto-generated-tags", "emit end tags the source left implicit", func(o *htmlmin.Options) *bool { return &o.IncludeAutoGeneratedTags }},

	// Whitespace
	{"collapse-whitespace", "collapse whitespace in text nodes", func(o *htmlmin.Options) *bool { return &o.CollapseWhitespace }},
	{"conservative-collapse", "always collapse to one space, never remove", func(o *htmlmin.Options) *bool { return &o.ConservativeCollapse }},
	{"preserve-line-breaks", "keep a line break when collapsed whitespace had one", func(o *htmlmin.Options) *bool { return &o.PreserveLineBreaks }},
	{"collapse-inline-tag-whitespace", "allow trimming between inline elements", func(o *htmlmin.Options) *bool { return &o.CollapseInlineTagWhitespace }},
	{"trim-custom-fragments", "trim whitespace around custom fragments", func(o *htmlmin.Options) *bool { return &o.TrimCustomFragments }},

	// Comments and doctype
	{"remove-comments", "strip comments", func(o *htmlmin.Options) *bool { return &o.RemoveComments }},
	{"remove-comments-from-cdata", "strip HTML comment markers from script and style", func(o *htmlmin.Options) *bool { return &o.RemoveCommentsFromCDATA }},
	{"remove-cdata-sections-from-cdata", "strip CDATA markers from script and style", func(o *htmlmin.Options) *bool { return &o.RemoveCDATASectionsFromCDATA }},
	{"process-conditional-comments", "minify the contents of conditional comments", func(o *htmlmin.Options) *bool { return &o.ProcessConditionalComments }},
	{"use-short-doctype", "replace the doctype with <!doctype html>", func(o *htmlmin.Options) *bool { return &o.UseShortDoctype }},

	// Attributes
	{"collapse-boolean-attributes", "omit values of boolean attributes", func(o *htmlmin.Options) *bool { return &o.CollapseBooleanAttributes }},
	{"remove-attribute-quotes", "remove quotes around attribute values when safe", func(o *htmlmin.Options) *bool { return &o.RemoveAttributeQuotes }},
	{"remove-redundant-attributes", "remove attributes set to their default value", func(o *htmlmin.Options) *bool { return &o.RemoveRedundantAttributes }},
	{"prevent-attributes-escaping", "never escape quotes inside attribute values", func(o *htmlmin.Options) *bool { return &o.PreventAttributesEscaping }},
	{"remove-empty-attributes", "remove empty class, id, style and event attributes", func(o *htmlmin.Options) *bool { return &o.RemoveEmptyAttributes }},
	{"remove-script-type-attributes", "remove type=\"text/javascript\" from scripts", func(o *htmlmin.Options) *bool { return &o.RemoveScriptTypeAttributes }},
	{"remove-style-link-type-attributes", "remove type=\"text/css\" from style and link", func(o *htmlmin.Options) *bool { return &o.RemoveStyleLinkTypeAttributes }},
	{"decode-entities", "use direct Unicode characters where possible", func(o *htmlmin.Options) *bool { return &o.DecodeEntities }},
	{"remove-tag-whitespace", "remove space between attributes when possible", func(o *htmlmin.Options) *bool { return &o.RemoveTagWhitespace }},

	// Elements
	{"remove-optional-tags", "remove optional start and end tags", func(o *htmlmin.Options) *bool { return &o.RemoveOptionalTags }},
	{"remove-empty-elements", "remove elements with no content", func(o *htmlmin.Options) *bool { return &o.RemoveEmptyElements }},
	{"remove-ignored", "drop custom fragments instead of keeping them", func(o *htmlmin.Options) *bool { return &o.RemoveIgnored }},
	{"keep-closing-slash", "keep the trailing slash on void elements", func(o *htmlmin.Options) *bool { return &o.KeepClosingSlash }},
}

// viperKey turns a flag name into its config key.
func viperKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

func registerFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	defaults := htmlmin.DefaultOptions()

	// Input and output
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("input-dir", "", "minify every matching file below this directory")
	flags.String("output-dir", "", "mirror minified files into this directory (with --input-dir)")
	flags.String("file-ext", "", "comma-separated extensions to process with --input-dir (default: all files)")
	flags.String("max-input-size", "", "reject inputs larger than this (e.g. 5MB, 0=unlimited)")
	flags.Bool("watch", false, "re-minify files under --input-dir when they change")

	// Reporting
	flags.Bool("stats", false, "print size reduction per file to stderr")
	flags.String("report", "", "write a per-file report to this file")
	flags.String("report-format", "json", "report format: json, jsonl, yaml")
	flags.Bool("lint", false, "print markup lint diagnostics to stderr")

	// Options
	flags.String("preset", "", "start from a preset: conservative, aggressive")
	for _, b := range boolOptions {
		flags.Bool(b.flag, *b.field(defaults), b.usage)
	}
	flags.String("quote-character", "", `quote character for attribute values: " or '`)
	flags.Int("max-line-length", 0, "wrap output lines at this length (0=no wrapping)")
	flags.StringSlice("process-scripts", nil, "script types whose contents are minified as HTML")
	flags.StringSlice("ignore-custom-comments", nil, "regexps of comment bodies to always keep")
	flags.StringSlice("ignore-custom-fragments", nil, "regexps of template fragments to pass through (replaces the <% %> and <? ?> defaults)")
	flags.StringSlice("custom-attr-assign", nil, "regexps of extra attribute assignment operators")
	flags.String("custom-attr-collapse", "", "regexp of attribute names whose values get whitespace removed")

	// Collaborators
	flags.Bool("minify-js", false, "minify scripts and event handlers")
	flags.Bool("minify-css", false, "minify style sheets and style attributes")
	flags.String("minify-urls", "", "rewrite URLs relative to this base URL")

	for _, name := range []string{
		"preset", "quote-character", "max-line-length", "process-scripts",
		"ignore-custom-comments", "ignore-custom-fragments", "custom-attr-assign",
		"custom-attr-collapse", "minify-js", "minify-css", "minify-urls", "max-input-size",
	} {
		_ = viper.BindPFlag(viperKey(name), flags.Lookup(name))
	}
	for _, b := range boolOptions {
		_ = viper.BindPFlag(viperKey(b.flag), flags.Lookup(b.flag))
	}
}

// optionsFromConfig resolves minifier options: the preset first, then every
// option set through a flag, the environment or the config file.
func optionsFromConfig(v *viper.Viper) (*htmlmin.Options, error) {
	var opts *htmlmin.Options
	switch preset := strings.ToLower(v.GetString("preset")); preset {
	case "", "none", "default":
		opts = htmlmin.DefaultOptions()
	case "conservative":
		opts = htmlmin.PresetConservative()
	case "aggressive":
		opts = htmlmin.PresetAggressive()
	default:
		return nil, fmt.Errorf("unknown preset: %s (use 'conservative' or 'aggressive')", preset)
	}

	for _, b := range boolOptions {
		if key := viperKey(b.flag); v.IsSet(key) {
			*b.field(opts) = v.GetBool(key)
		}
	}

	if v.IsSet("quote_character") {
		opts.QuoteCharacter = v.GetString("quote_character")
	}
	if v.IsSet("max_line_length") {
		opts.MaxLineLength = v.GetInt("max_line_length")
	}
	if v.IsSet("custom_attr_collapse") {
		opts.CustomAttrCollapse = v.GetString("custom_attr_collapse")
	}
	if v.IsSet("process_scripts") {
		opts.ProcessScripts = v.GetStringSlice("process_scripts")
	}
	if v.IsSet("ignore_custom_comments") {
		opts.IgnoreCustomComments = append(opts.IgnoreCustomComments, v.GetStringSlice("ignore_custom_comments")...)
	}
	if v.IsSet("ignore_custom_fragments") {
		opts.IgnoreCustomFragments = v.GetStringSlice("ignore_custom_fragments")
	}
	if v.IsSet("custom_attr_assign") {
		opts.CustomAttrAssign = v.GetStringSlice("custom_attr_assign")
	}
	if v.IsSet("custom_attr_surround") {
		var surround []htmlparser.Surround
		if err := v.UnmarshalKey("custom_attr_surround", &surround); err != nil {
			return nil, fmt.Errorf("invalid custom_attr_surround: %w", err)
		}
		opts.CustomAttrSurround = surround
	}

	return opts, nil
}
