package htmlmin

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/jmylchreest/htmlmin/pkg/htmlparser"
)

var (
	reEventAttr        = regexp.MustCompile(`^on[a-z]{3,}$`)
	reJavascriptPrefix = regexp.MustCompile(`(?i)^javascript:\s*`)
	reTrailingSemi     = regexp.MustCompile(`\s*;$`)
	reEntityTail       = regexp.MustCompile(`&#?[0-9a-zA-Z]+;$`)
	reDecimal          = regexp.MustCompile(`[0-9]+\.[0-9]+`)
	reTypeSemicolon    = regexp.MustCompile(`\s*;\s*`)
	reCollapsibleSpace = regexp.MustCompile(`\n+|\r+|\s{2,}`)
	reAmbiguousAmp     = regexp.MustCompile(`&([#0-9a-zA-Z])`)
	reUnquotedSafe     = regexp.MustCompile("^[^ \\t\\n\\f\\r\"'`=<>]+$")
	reSrcsetDescriptor = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)([wx])$`)

	reEmptyRemovable = regexp.MustCompile(`^(?:class|id|style|title|lang|dir|on(?:focus|blur|change|click|dblclick|mouse(?:down|up|over|move|out)|key(?:press|down|up)))$`)
)

var (
	executableScriptTypes = newSet("text/javascript,text/ecmascript,text/jscript,application/javascript,application/x-javascript,application/ecmascript,module")

	booleanAttributes = newSet("allowfullscreen,async,autofocus,autoplay,checked,compact,controls,declare,default,defaultchecked,defaultmuted,defaultselected,defer,disabled,enabled,formnovalidate,hidden,indeterminate,inert,ismap,itemscope,loop,multiple,muted,nohref,noresize,noshade,novalidate,nowrap,open,pauseonexit,readonly,required,reversed,scoped,seamless,selected,sortable,truespeed,typemustmatch,visible")

	// tag -> attributes holding a URI.
	uriAttributes = map[string]set{
		"a":          newSet("href"),
		"area":       newSet("href"),
		"link":       newSet("href"),
		"base":       newSet("href"),
		"img":        newSet("src,longdesc,usemap"),
		"object":     newSet("classid,codebase,data,usemap"),
		"q":          newSet("cite"),
		"blockquote": newSet("cite"),
		"ins":        newSet("cite"),
		"del":        newSet("cite"),
		"form":       newSet("action"),
		"input":      newSet("src,usemap"),
		"head":       newSet("profile"),
		"script":     newSet("src,for"),
	}

	// tag -> attributes holding a number.
	numberAttributes = map[string]set{
		"a":        newSet("tabindex"),
		"area":     newSet("tabindex"),
		"object":   newSet("tabindex"),
		"button":   newSet("tabindex"),
		"input":    newSet("maxlength,tabindex"),
		"select":   newSet("size,tabindex"),
		"textarea": newSet("rows,cols,tabindex"),
		"colgroup": newSet("span"),
		"col":      newSet("span"),
		"th":       newSet("colspan,rowspan"),
		"td":       newSet("colspan,rowspan"),
	}
)

// renderedAttr is an attribute that survived normalization.
type renderedAttr struct {
	attr     htmlparser.Attribute
	name     string
	value    string
	hasValue bool
}

func attrTypeValue(attrs []htmlparser.Attribute) string {
	v, _ := attrValue(attrs, "type")
	return strings.ToLower(trimSpace(v))
}

func isExecutableScript(tag string, attrs []htmlparser.Attribute) bool {
	if tag != "script" {
		return false
	}
	v, ok := attrValue(attrs, "type")
	if !ok {
		return true
	}
	return isScriptTypeAttribute(v)
}

func isScriptTypeAttribute(value string) bool {
	v := strings.ToLower(trimSpace(strings.SplitN(value, ";", 2)[0]))
	return v == "" || executableScriptTypes[v]
}

func isStyleSheet(tag string, attrs []htmlparser.Attribute) bool {
	if tag != "style" {
		return false
	}
	v, ok := attrValue(attrs, "type")
	if !ok {
		return true
	}
	return isStyleLinkTypeAttribute(v)
}

func isStyleLinkTypeAttribute(value string) bool {
	v := strings.ToLower(trimSpace(value))
	return v == "" || v == "text/css"
}

func isAttributeRedundant(tag, name, value string, attrs []htmlparser.Attribute) bool {
	v := strings.ToLower(trimSpace(value))
	switch {
	case tag == "script" && name == "language":
		return v == "javascript"
	case tag == "form" && name == "method":
		return v == "get"
	case tag == "input" && name == "type":
		return v == "text"
	case tag == "script" && name == "charset":
		return !hasAttr(attrs, "src")
	case tag == "a" && name == "name":
		id, ok := attrValue(attrs, "id")
		return ok && id == value
	case tag == "area" && name == "shape":
		return v == "rect"
	}
	return false
}

func isBooleanAttribute(name, value string) bool {
	if booleanAttributes[name] {
		return true
	}
	return name == "draggable" && value != "true" && value != "false"
}

func isURIAttribute(tag, name string) bool {
	return uriAttributes[tag][name]
}

func isNumberAttribute(tag, name string) bool {
	return numberAttributes[tag][name]
}

func isLinkType(tag string, attrs []htmlparser.Attribute, rel string) bool {
	if tag != "link" {
		return false
	}
	v, _ := attrValue(attrs, "rel")
	for _, r := range strings.Fields(strings.ToLower(v)) {
		if r == rel {
			return true
		}
	}
	return false
}

func isMetaViewport(tag string, attrs []htmlparser.Attribute) bool {
	if tag != "meta" {
		return false
	}
	v, _ := attrValue(attrs, "name")
	return strings.EqualFold(trimSpace(v), "viewport")
}

func isContentSecurityPolicy(tag string, attrs []htmlparser.Attribute) bool {
	if tag != "meta" {
		return false
	}
	v, _ := attrValue(attrs, "http-equiv")
	return strings.EqualFold(trimSpace(v), "content-security-policy")
}

func canDeleteEmptyAttribute(tag, name, value string) bool {
	if trimSpace(value) != "" {
		return false
	}
	return reEmptyRemovable.MatchString(name) || (tag == "input" && name == "value")
}

// normalizeAttribute cleans one attribute. It reports false when the
// attribute should be dropped.
func (e *engine) normalizeAttribute(tag string, attr htmlparser.Attribute, attrs []htmlparser.Attribute) (renderedAttr, bool) {
	opts := e.opts
	name := attr.Name
	if !opts.CaseSensitive {
		name = strings.ToLower(name)
	}
	value := attr.Value
	if opts.DecodeEntities && attr.HasValue {
		value = html.UnescapeString(value)
	}

	if opts.RemoveRedundantAttributes && isAttributeRedundant(tag, name, value, attrs) {
		return renderedAttr{}, false
	}
	if opts.RemoveScriptTypeAttributes && tag == "script" && name == "type" && isScriptTypeAttribute(value) {
		return renderedAttr{}, false
	}
	if opts.RemoveStyleLinkTypeAttributes && (tag == "style" || tag == "link") && name == "type" && isStyleLinkTypeAttribute(value) {
		return renderedAttr{}, false
	}

	if value != "" {
		value = e.cleanAttributeValue(tag, name, value, attrs)
	}

	if opts.RemoveEmptyAttributes && canDeleteEmptyAttribute(tag, name, value) {
		return renderedAttr{}, false
	}

	if opts.DecodeEntities && value != "" {
		value = reAmbiguousAmp.ReplaceAllString(value, "&amp;$1")
	}

	return renderedAttr{attr: attr, name: name, value: value, hasValue: attr.HasValue}, true
}

func (e *engine) cleanAttributeValue(tag, name, value string, attrs []htmlparser.Attribute) string {
	switch {
	case reEventAttr.MatchString(name):
		v := trimSpace(value)
		v = reJavascriptPrefix.ReplaceAllString(v, "")
		v = reTrailingSemi.ReplaceAllString(v, "")
		return e.minifyJS(v, true)

	case name == "class":
		return collapseAll(trimSpace(value))

	case isURIAttribute(tag, name):
		v := trimSpace(value)
		if isLinkType(tag, attrs, "canonical") {
			return v
		}
		return e.minifyURL(v)

	case isNumberAttribute(tag, name):
		return trimSpace(value)

	case name == "style":
		v := trimSpace(value)
		if !reEntityTail.MatchString(v) {
			v = reTrailingSemi.ReplaceAllString(v, "")
		}
		if v == "" {
			return v
		}
		return e.minifyCSS(v, true)

	case name == "srcset" && (tag == "img" || tag == "source"):
		return e.cleanSrcset(value)

	case name == "content" && isMetaViewport(tag, attrs):
		v := removeSpace(value)
		return reDecimal.ReplaceAllStringFunc(v, func(num string) string {
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return num
			}
			return strconv.FormatFloat(f, 'f', -1, 64)
		})

	case name == "content" && isContentSecurityPolicy(tag, attrs):
		return collapseAll(trimSpace(value))

	case e.m.attrCollapse != nil && e.m.attrCollapse.MatchString(name):
		return reCollapsibleSpace.ReplaceAllString(value, "")

	case tag == "script" && name == "type":
		return trimSpace(reTypeSemicolon.ReplaceAllString(value, ";"))
	}
	return value
}

// cleanSrcset minifies each candidate URL and drops redundant 1x descriptors.
func (e *engine) cleanSrcset(value string) string {
	candidates := strings.Split(value, ",")
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		fields := strings.Fields(c)
		if len(fields) == 0 {
			continue
		}
		url := e.minifyURL(fields[0])
		descriptor := ""
		if len(fields) > 1 {
			descriptor = fields[len(fields)-1]
			if m := reSrcsetDescriptor.FindStringSubmatch(descriptor); m != nil {
				f, err := strconv.ParseFloat(m[1], 64)
				if err == nil {
					descriptor = strconv.FormatFloat(f, 'f', -1, 64) + m[2]
				}
				if descriptor == "1x" {
					descriptor = ""
				}
			}
		}
		if descriptor != "" {
			url += " " + descriptor
		}
		out = append(out, url)
	}
	return strings.Join(out, ", ")
}

// renderAttribute produces the markup for one attribute and reports whether
// its value ended up quoted.
func (e *engine) renderAttribute(a renderedAttr, isLast, hasUnarySlash bool) (string, bool) {
	opts := e.opts
	value := a.value
	quoted := false

	var emitted string
	if a.hasValue {
		if !opts.RemoveAttributeQuotes || e.hasFragment(value) || !reUnquotedSafe.MatchString(value) {
			quote := a.attr.Quote
			if !opts.PreventAttributesEscaping {
				quote = opts.QuoteCharacter
				if quote == "" {
					if strings.Count(value, "'") < strings.Count(value, `"`) {
						quote = "'"
					} else {
						quote = `"`
					}
				}
				if quote == `"` {
					value = strings.ReplaceAll(value, `"`, "&#34;")
				} else {
					value = strings.ReplaceAll(value, "'", "&#39;")
				}
			}
			emitted = quote + value + quote
			quoted = quote != ""
		} else {
			emitted = value
			if isLast && (hasUnarySlash || strings.HasSuffix(value, "/")) {
				emitted += " "
			}
		}
	}

	var markup string
	if !a.hasValue || (opts.CollapseBooleanAttributes && isBooleanAttribute(strings.ToLower(a.name), strings.ToLower(a.value))) {
		markup = a.name
		quoted = false
	} else {
		assign := a.attr.CustomAssign
		if assign == "" {
			assign = "="
		}
		markup = a.name + assign + emitted
	}
	return a.attr.CustomOpen + markup + a.attr.CustomClose, quoted
}

func (e *engine) hasFragment(value string) bool {
	return e.ph.fragmentID != "" && strings.Contains(value, e.ph.fragmentID)
}
