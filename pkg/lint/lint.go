// Package lint collects diagnostics about questionable markup while a
// document is being minified. It never changes the output.
//
//	l := lint.New()
//	opts := htmlmin.DefaultOptions()
//	opts.Lint = l
//	opts.LintOutput = os.Stderr
//	out, err := htmlmin.Minify(page, opts)
package lint

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jmylchreest/htmlmin/internal/logger"
)

var (
	reEventAttr        = regexp.MustCompile(`^on[a-z]+`)
	reRepeatedNbsp     = regexp.MustCompile(`(&nbsp;\s*){2,}`)
	reInaccessibleHref = regexp.MustCompile(`(?i)^\s*javascript\s*:\s*void\s*(\s*0\s*|\(\s*0\s*\))\s*;?\s*$`)
)

var (
	deprecatedElements     = newSet("applet,basefont,center,dir,font,isindex,strike")
	presentationalElements = newSet("b,big,blink,hr,i,marquee,small")

	// attribute -> elements on which it is deprecated.
	deprecatedAttributes = map[string]set{
		"align":      newSet("applet,caption,div,h1,h2,h3,h4,h5,h6,hr,iframe,img,input,legend,object,p,table"),
		"alink":      newSet("body"),
		"alt":        newSet("applet"),
		"archive":    newSet("applet"),
		"background": newSet("body"),
		"bgcolor":    newSet("body,table,td,th,tr"),
		"border":     newSet("img,object"),
		"clear":      newSet("br"),
		"code":       newSet("applet"),
		"codebase":   newSet("applet"),
		"color":      newSet("base,basefont"),
		"compact":    newSet("dir,dl,menu,ol,ul"),
		"face":       newSet("base,basefont"),
		"height":     newSet("applet,td,th"),
		"hspace":     newSet("applet,img,object"),
		"language":   newSet("script"),
		"link":       newSet("body"),
		"name":       newSet("applet"),
		"noshade":    newSet("hr"),
		"nowrap":     newSet("td,th"),
		"object":     newSet("applet"),
		"prompt":     newSet("isindex"),
		"size":       newSet("basefont,font,hr"),
		"start":      newSet("ol"),
		"text":       newSet("body"),
		"type":       newSet("li,ol,ul"),
		"value":      newSet("li"),
		"version":    newSet("html"),
		"vlink":      newSet("body"),
		"vspace":     newSet("applet,img,object"),
		"width":      newSet("applet,hr,pre,td,th"),
	}
)

type set map[string]bool

func newSet(names string) set {
	s := make(set)
	for _, n := range strings.Split(names, ",") {
		s[n] = true
	}
	return s
}

// Linter accumulates diagnostics for one document. It is not safe for
// concurrent use.
type Linter struct {
	messages []string

	lastElement string
	repeated    bool
}

// New creates an empty linter.
func New() *Linter {
	return &Linter{}
}

// Element records an element start tag.
func (l *Linter) Element(tag string) error {
	tag = strings.ToLower(tag)
	switch {
	case deprecatedElements[tag]:
		l.add("Found deprecated <%s> element", tag)
	case presentationalElements[tag]:
		l.add("Found presentational <%s> element", tag)
	default:
		l.checkRepeated(tag)
	}
	return nil
}

// Attribute records an attribute of tag.
func (l *Linter) Attribute(tag, name, value string) error {
	tag = strings.ToLower(tag)
	name = strings.ToLower(name)
	switch {
	case reEventAttr.MatchString(name):
		l.add("Found event attribute (%s) on <%s> element", name, tag)
	case deprecatedAttributes[name][tag]:
		l.add("Found deprecated %s attribute on <%s> element", name, tag)
	case name == "style":
		l.add("Found style attribute on <%s> element", tag)
	case name == "href" && reInaccessibleHref.MatchString(value):
		l.add("Found inaccessible attribute (href=%q) on <%s> element", value, tag)
	}
	return nil
}

// Text records a text run.
func (l *Linter) Text(text string) error {
	if strings.TrimSpace(text) != "" {
		l.flushRepeated()
		l.lastElement = ""
	}
	if reRepeatedNbsp.MatchString(text) {
		l.add("Found repeating &nbsp; sequence. Try replacing it with styling.")
	}
	return nil
}

// Finish writes the diagnostics as a numbered list to w. With a nil w each
// diagnostic is logged as a warning instead.
func (l *Linter) Finish(w io.Writer) error {
	l.flushRepeated()
	if w == nil {
		for _, msg := range l.messages {
			logger.Warn("lint", "message", msg)
		}
		return nil
	}
	for i, msg := range l.messages {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, msg); err != nil {
			return fmt.Errorf("write lint report: %w", err)
		}
	}
	return nil
}

// Messages returns the diagnostics recorded so far.
func (l *Linter) Messages() []string {
	return append([]string(nil), l.messages...)
}

func (l *Linter) checkRepeated(tag string) {
	if tag == "br" && l.lastElement == "br" {
		l.repeated = true
	} else {
		l.flushRepeated()
	}
	l.lastElement = tag
}

func (l *Linter) flushRepeated() {
	if l.repeated {
		l.add("Found <br> sequence. Try replacing it with styling.")
		l.repeated = false
	}
}

func (l *Linter) add(format string, args ...any) {
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}
