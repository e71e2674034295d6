package htmlmin

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/jmylchreest/htmlmin/internal/logger"
	"github.com/jmylchreest/htmlmin/pkg/htmlparser"
)

var (
	reConditionalComment = regexp.MustCompile(`^\[if\s[^\]]+\]|\[endif\]$`)
	reConditionalBody    = regexp.MustCompile(`(?s)^(\[if\s[^\]]+\]>)(.*?)(<!\[endif\])$`)

	reScriptCommentOpen  = regexp.MustCompile(`^\s*(?://)?\s*<!--.*\n?`)
	reScriptCommentClose = regexp.MustCompile(`\s*(?://)?\s*-->\s*$`)
	reStyleCommentOpen   = regexp.MustCompile(`^\s*<!--\s*`)
	reStyleCommentClose  = regexp.MustCompile(`\s*-->\s*$`)

	reCDATAOpen  = regexp.MustCompile(`^(?:\s*/\*\s*<!\[CDATA\[\s*\*/|\s*//\s*<!\[CDATA\[.*|\s*<!\[CDATA\[)`)
	reCDATAClose = regexp.MustCompile(`(?:/\*\s*\]\]>\s*\*/|//\s*\]\]>|\]\]>)\s*$`)

	reTagLike = regexp.MustCompile(`<([a-zA-Z/!?])`)
)

const warningContextLen = 80

// engine turns parse events into the minified output buffer. One engine
// serves one document; nested documents (conditional comments, processed
// scripts) get their own engine sharing the result and placeholders.
type engine struct {
	m      *Minifier
	ph     *placeholders
	result *Result

	// Effective options. SVG subtrees push a case-sensitive copy.
	opts *Options
	svg  []*Options

	buf outputBuffer

	// Tags whose descendants must not be trimmed or collapsed.
	noTrim     []string
	noCollapse []string

	// Single-slot pending optional tags.
	optionalStart string
	optionalEnd   string

	currentTag   string
	currentAttrs []htmlparser.Attribute
	hasChars     bool
	charsPrevTag string

	// Raw text element whose content is the next text event.
	rawTag string
}

func newEngine(m *Minifier, ph *placeholders, result *Result) *engine {
	opts := m.opts
	return &engine{m: m, ph: ph, result: result, opts: &opts}
}

func (e *engine) name(s string) string {
	if e.opts.CaseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func (e *engine) mode() collapseMode {
	return collapseMode{
		conservative:       e.opts.ConservativeCollapse,
		preserveLineBreaks: e.opts.PreserveLineBreaks,
	}
}

func (e *engine) canTrim(tag string, attrs []htmlparser.Attribute) bool {
	builtin := func(t string) bool { return !noTrimTags[t] }
	if e.opts.CanTrimWhitespace != nil {
		return e.opts.CanTrimWhitespace(tag, attrs, builtin)
	}
	return builtin(tag)
}

func (e *engine) canCollapse(tag string, attrs []htmlparser.Attribute) bool {
	builtin := func(t string) bool { return !noCollapseTags[t] }
	if e.opts.CanCollapseWhitespace != nil {
		return e.opts.CanCollapseWhitespace(tag, attrs, builtin)
	}
	return builtin(tag)
}

func (e *engine) removeStartTag() bool {
	return e.buf.truncateAtLast(fragStartTag)
}

func (e *engine) removeEndTag() bool {
	return e.buf.truncateAtLast(fragEndTag)
}

func (e *engine) removeOptionalStartTag() {
	if e.removeStartTag() {
		e.result.Stats.OptionalTagsRemoved++
	}
}

func (e *engine) removeOptionalEndTag() {
	if e.removeEndTag() {
		e.result.Stats.OptionalTagsRemoved++
	}
}

// squashTrailingWhitespace re-trims the text at the tail of the buffer now
// that next is known to follow it. Markers of removed comments are dropped
// on the way.
func (e *engine) squashTrailingWhitespace(next string) {
	for {
		f, ok := e.buf.last()
		if !ok {
			return
		}
		if f.kind == fragRemoved {
			e.buf.pop()
			continue
		}
		if f.kind != fragText {
			return
		}
		if _, right := trimEdges("", next, e.opts.CollapseInlineTagWhitespace); right {
			e.buf.setLast(collapse(f.s, e.mode(), false, true, false))
		}
		return
	}
}

func (e *engine) StartTag(ev *htmlparser.StartTag) error {
	if strings.EqualFold(ev.Name, "svg") {
		svgOpts := *e.opts
		svgOpts.CaseSensitive = true
		svgOpts.KeepClosingSlash = true
		if ev.Unary {
			// No end tag will pop it, so the override only covers this tag.
			defer func(prev *Options) { e.opts = prev }(e.opts)
		} else {
			e.svg = append(e.svg, e.opts)
		}
		e.opts = &svgOpts
	}

	tag := e.name(ev.Name)
	e.currentTag = tag
	e.currentAttrs = ev.Attrs
	e.hasChars = false
	e.charsPrevTag = tag
	e.rawTag = ""
	if !ev.Unary && htmlparser.IsSpecial(tag) {
		e.rawTag = strings.ToLower(tag)
	}

	if lint := e.opts.Lint; lint != nil {
		if err := lint.Element(tag); err != nil {
			return err
		}
		for _, a := range ev.Attrs {
			if err := lint.Attribute(tag, strings.ToLower(a.Name), a.Value); err != nil {
				return err
			}
		}
	}

	optional := e.opts.RemoveOptionalTags
	if optional {
		if htmlTags[tag] && canRemoveParentTag(e.optionalStart, tag) {
			e.removeOptionalStartTag()
		}
		e.optionalStart = ""
		if htmlTags[tag] && canRemovePrecedingTag(e.optionalEnd, tag) {
			e.removeOptionalEndTag()
			optional = !isStartTagMandatory(e.optionalEnd, tag)
		}
		e.optionalEnd = ""
	}

	if e.opts.CollapseWhitespace {
		if len(e.noTrim) == 0 {
			e.squashTrailingWhitespace(tag)
		}
		if !ev.Unary {
			if len(e.noTrim) > 0 || !e.canTrim(tag, ev.Attrs) {
				e.noTrim = append(e.noTrim, tag)
			}
			if len(e.noCollapse) > 0 || !e.canCollapse(tag, ev.Attrs) {
				e.noCollapse = append(e.noCollapse, tag)
			}
		}
	}

	attrs := make([]renderedAttr, 0, len(ev.Attrs))
	for _, a := range ev.Attrs {
		r, keep := e.normalizeAttribute(tag, a, ev.Attrs)
		if !keep {
			e.result.Stats.AttributesRemoved++
			continue
		}
		attrs = append(attrs, r)
	}

	hasUnarySlash := ev.SelfClosing && e.opts.KeepClosingSlash
	e.buf.push(fragStartTag, "<"+tag)
	prevQuoted := false
	for i, a := range attrs {
		s, quoted := e.renderAttribute(a, i == len(attrs)-1, hasUnarySlash)
		sep := " "
		if prevQuoted && e.opts.RemoveTagWhitespace {
			sep = ""
		}
		e.buf.push(fragAttr, sep+s)
		prevQuoted = quoted
	}
	if len(attrs) == 0 && optional && optionalStartTags[tag] {
		e.optionalStart = tag
	}
	if hasUnarySlash {
		e.buf.appendLast("/>")
	} else {
		e.buf.appendLast(">")
	}
	return nil
}

func (e *engine) EndTag(ev *htmlparser.EndTag) error {
	if strings.EqualFold(ev.Name, "svg") && len(e.svg) > 0 {
		e.opts = e.svg[len(e.svg)-1]
		e.svg = e.svg[:len(e.svg)-1]
	}

	tag := e.name(ev.Name)
	e.rawTag = ""

	if e.opts.CollapseWhitespace {
		if n := len(e.noTrim); n > 0 {
			if tag == e.noTrim[n-1] {
				e.noTrim = e.noTrim[:n-1]
			}
		} else {
			e.squashTrailingWhitespace("/" + tag)
		}
		if n := len(e.noCollapse); n > 0 && tag == e.noCollapse[n-1] {
			e.noCollapse = e.noCollapse[:n-1]
		}
	}

	isEmpty := false
	if tag == e.currentTag {
		e.currentTag = ""
		isEmpty = !e.hasChars
	}

	startRemoved := false
	if e.opts.RemoveOptionalTags {
		// <html>, <head> and <body> may be omitted entirely when empty.
		if isEmpty && topLevelTags[e.optionalStart] {
			e.removeOptionalStartTag()
			startRemoved = true
		}
		e.optionalStart = ""
		if htmlTags[tag] && e.optionalEnd != "" && !trailingTags[e.optionalEnd] && (e.optionalEnd != "p" || !pInlineTags[tag]) {
			e.removeOptionalEndTag()
		}
		e.optionalEnd = ""
		if optionalEndTags[tag] {
			e.optionalEnd = tag
		}
	}

	if e.opts.RemoveEmptyElements && isEmpty && canRemoveElement(tag, e.currentAttrs) {
		if !startRemoved && e.removeStartTag() {
			e.result.Stats.EmptyElementsRemoved++
		}
		e.optionalStart = ""
		e.optionalEnd = ""
		return nil
	}

	if ev.AutoGenerated && !e.opts.IncludeAutoGeneratedTags {
		e.optionalEnd = ""
	} else {
		e.buf.push(fragEndTag, "</"+tag+">")
	}
	e.charsPrevTag = "/" + tag
	return nil
}

func (e *engine) Text(ev *htmlparser.Text) error {
	text := ev.Content
	if lint := e.opts.Lint; lint != nil {
		if err := lint.Text(text); err != nil {
			return err
		}
	}

	prevTag, nextTag := ev.PrevTag, ev.NextTag
	raw := e.rawTag
	e.rawTag = ""

	if raw == "" && e.opts.DecodeEntities {
		text = decodeText(text)
	}

	if e.opts.CollapseWhitespace {
		if len(e.noTrim) == 0 {
			text, prevTag = e.joinAcrossRemoved(text, prevTag)
			if prevTag == "" {
				// Start of input behaves like any other non-tag neighbour.
				prevTag = htmlparser.NonTag
			}
			left, right := trimEdges(prevTag, nextTag, e.opts.CollapseInlineTagWhitespace)
			all := prevTag != "" && nextTag != "" && len(e.noCollapse) == 0
			text = collapse(text, e.mode(), left, right, all)
		} else if len(e.noCollapse) == 0 {
			text = collapseAll(text)
		}
	}

	if raw != "" {
		text = e.processRawText(raw, text)
	}

	if e.opts.RemoveOptionalTags && text != "" {
		if e.optionalStart == "html" || (e.optionalStart == "body" && !startsWithSpace(text)) {
			e.removeOptionalStartTag()
		}
		e.optionalStart = ""
		if compactTags[e.optionalEnd] || (looseTags[e.optionalEnd] && !startsWithSpace(text)) {
			e.removeOptionalEndTag()
		}
		e.optionalEnd = ""
	}

	if trimSpace(text) == "" {
		e.charsPrevTag = prevTag
	} else {
		e.charsPrevTag = htmlparser.NonTag
	}

	if text == "" {
		return nil
	}
	e.hasChars = true
	e.buf.push(fragText, text)
	return nil
}

// joinAcrossRemoved handles text whose left neighbour vanished. After a
// removed comment the text takes over the classification of whatever
// preceded the comment, together with the trailing whitespace of the text
// before it. After a removed element, leading whitespace is dropped when the
// preceding text already ends in whitespace.
func (e *engine) joinAcrossRemoved(text, prevTag string) (string, string) {
	f, ok := e.buf.last()
	if !ok {
		return text, prevTag
	}

	if prevTag == htmlparser.NonTag && f.kind == fragRemoved {
		prevTag = e.charsPrevTag
		for ok && f.kind == fragRemoved {
			e.buf.pop()
			f, ok = e.buf.last()
		}
		if ok && f.kind == fragText {
			if ws := trailingSpace(f.s); ws != "" {
				e.buf.setLast(f.s[:len(f.s)-len(ws)])
				text = ws + text
			}
		}
		return text, prevTag
	}

	if prevTag != "" && prevTag != htmlparser.NonTag && f.kind == fragText && endsWithSpace(f.s) {
		text = strings.TrimLeft(text, whitespace)
	}
	return text, prevTag
}

func (e *engine) processRawText(tag, text string) string {
	if e.opts.RemoveCommentsFromCDATA {
		text = removeCDATAComments(tag, text)
	}
	if e.opts.RemoveCDATASectionsFromCDATA {
		text = reCDATAOpen.ReplaceAllString(text, "")
		text = reCDATAClose.ReplaceAllString(text, "")
	}

	switch {
	case tag == "script" && e.m.processScripts[attrTypeValue(e.currentAttrs)]:
		out, err := e.minifyNested(text)
		if err != nil {
			e.collaboratorFailed("html", err, text)
			return text
		}
		return out
	case isExecutableScript(tag, e.currentAttrs):
		return e.minifyJS(text, false)
	case isStyleSheet(tag, e.currentAttrs):
		return e.minifyCSS(text, false)
	}
	return text
}

func removeCDATAComments(tag, text string) string {
	if tag == "script" {
		text = reScriptCommentOpen.ReplaceAllString(text, "")
		return reScriptCommentClose.ReplaceAllString(text, "")
	}
	text = reStyleCommentOpen.ReplaceAllString(text, "")
	return reStyleCommentClose.ReplaceAllString(text, "")
}

func (e *engine) Comment(ev *htmlparser.Comment) error {
	text := ev.Content
	prefix, suffix := "<!--", "-->"
	if ev.NonStandard {
		prefix, suffix = "<!", ">"
	}

	var out string
	switch {
	case reConditionalComment.MatchString(text):
		if e.opts.ProcessConditionalComments {
			text = e.cleanConditionalComment(text)
		}
		out = prefix + text + suffix
	case e.opts.RemoveComments && !e.isIgnoredComment(text):
		out = ""
	default:
		out = prefix + text + suffix
	}

	if out == "" {
		e.result.Stats.CommentsRemoved++
		e.buf.push(fragRemoved, "")
		return nil
	}
	if e.opts.RemoveOptionalTags {
		e.optionalStart = ""
		e.optionalEnd = ""
	}
	e.buf.push(fragComment, out)
	return nil
}

func (e *engine) isIgnoredComment(text string) bool {
	if strings.HasPrefix(text, "!") {
		return true
	}
	if e.ph.ignoredComment != nil && e.ph.ignoredComment.MatchString(text) {
		return true
	}
	for _, re := range e.m.ignoreComments {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (e *engine) cleanConditionalComment(text string) string {
	m := reConditionalBody.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	body, err := e.minifyNested(m[2])
	if err != nil {
		e.collaboratorFailed("html", err, m[2])
		return text
	}
	return m[1] + body + m[3]
}

func (e *engine) Doctype(ev *htmlparser.Doctype) error {
	out := collapseAll(ev.Content)
	if e.opts.UseShortDoctype {
		out = "<!DOCTYPE html>"
	}
	if e.opts.RemoveOptionalTags {
		e.optionalStart = ""
		e.optionalEnd = ""
	}
	e.buf.push(fragDoctype, out)
	return nil
}

// finish settles pending optional tags and trailing whitespace at the end
// of the document.
func (e *engine) finish() {
	if e.opts.RemoveOptionalTags {
		if topLevelTags[e.optionalStart] {
			e.removeOptionalStartTag()
		}
		if e.optionalEnd != "" && !trailingTags[e.optionalEnd] {
			e.removeOptionalEndTag()
		}
	}
	if e.opts.CollapseWhitespace && len(e.noTrim) == 0 {
		e.squashTrailingWhitespace("br")
	}
}

// minifyNested minifies an embedded document with the same options.
func (e *engine) minifyNested(doc string) (string, error) {
	frags, err := e.m.run(doc, e.ph, e.result)
	if err != nil {
		return "", err
	}
	return strings.Join(frags, ""), nil
}

func (e *engine) minifyJS(code string, inline bool) string {
	if e.opts.MinifyJS == nil || trimSpace(code) == "" {
		return code
	}
	out, err := e.opts.MinifyJS.MinifyJS(code, inline)
	if err != nil {
		e.collaboratorFailed("js", err, code)
		return code
	}
	return out
}

func (e *engine) minifyCSS(code string, inline bool) string {
	if e.opts.MinifyCSS == nil || trimSpace(code) == "" {
		return code
	}
	out, err := e.opts.MinifyCSS.MinifyCSS(code, inline)
	if err != nil {
		e.collaboratorFailed("css", err, code)
		return code
	}
	return out
}

func (e *engine) minifyURL(u string) string {
	if e.opts.MinifyURLs == nil || u == "" || e.hasFragment(u) {
		return u
	}
	out, err := e.opts.MinifyURLs.MinifyURL(u)
	if err != nil {
		e.collaboratorFailed("url", err, u)
		return u
	}
	return out
}

func (e *engine) collaboratorFailed(phase string, err error, fragment string) {
	if len(fragment) > warningContextLen {
		fragment = fragment[:warningContextLen] + "..."
	}
	e.result.Stats.CollaboratorFailures++
	e.result.AddWarning(phase, err.Error(), fragment)
	logger.Debug("keeping fragment unminified", "phase", phase, "error", err)
}

// decodeText decodes character references and re-escapes only what would
// otherwise be read as markup.
func decodeText(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	s = html.UnescapeString(s)
	s = reAmbiguousAmp.ReplaceAllString(s, "&amp;$1")
	return reTagLike.ReplaceAllString(s, "&lt;$1")
}
