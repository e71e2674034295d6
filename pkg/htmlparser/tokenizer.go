package htmlparser

import (
	"regexp"
	"strings"
	"sync"
)

var (
	reStartOpen  = regexp.MustCompile(`^<([\w:-]+)`)
	reStartClose = regexp.MustCompile(`^\s*(/?)>`)
	reEndTag     = regexp.MustCompile(`^</([\w:-]+)[^>]*>`)
	reDoctype    = regexp.MustCompile(`(?i)^<!DOCTYPE\s?[^>]+>`)

	// End tag matchers for raw text elements, keyed by lower-case name.
	endTagMatchers sync.Map
)

// Options controls tokenization.
type Options struct {
	// HTML5 closes an open <p> when flow content starts inside it. Without
	// it every open inline element is closed before any start tag.
	HTML5 bool

	// Grammar recognises attributes. Nil uses the plain grammar.
	Grammar *AttrGrammar
}

type startMatch struct {
	name        string
	attrs       []Attribute
	selfClosing bool
	length      int
}

type tokenizer struct {
	input   string
	pos     int
	h       Handler
	opts    Options
	grammar *AttrGrammar

	stack   []string
	prevTag string

	// Start tag parsed while looking ahead from a text run.
	peeked   *startMatch
	peekedAt int
}

// Parse tokenizes input and delivers events to h in document order. Elements
// still open at the end of input receive auto-generated end events.
func Parse(input string, h Handler, opts Options) error {
	t := &tokenizer{
		input:    input,
		h:        h,
		opts:     opts,
		grammar:  opts.Grammar,
		peekedAt: -1,
	}
	if t.grammar == nil {
		t.grammar = defaultGrammar
	}
	return t.run()
}

func (t *tokenizer) run() error {
	for t.pos < len(t.input) {
		start := t.pos
		var err error
		if special[strings.ToLower(t.lastTag())] {
			err = t.rawText()
		} else {
			err = t.markup()
		}
		if err != nil {
			return err
		}
		if t.pos == start {
			return newParseError(t.input, t.pos)
		}
	}
	return t.closeElements("", false)
}

func (t *tokenizer) lastTag() string {
	if len(t.stack) == 0 {
		return ""
	}
	return t.stack[len(t.stack)-1]
}

func (t *tokenizer) markup() error {
	rest := t.input[t.pos:]

	if strings.HasPrefix(rest, "<!--") {
		if end := strings.Index(rest[4:], "-->"); end >= 0 {
			t.pos += 4 + end + 3
			t.prevTag = NonTag
			return t.h.Comment(&Comment{Content: rest[4 : 4+end]})
		}
	}

	if strings.HasPrefix(rest, "<![") {
		if end := strings.Index(rest, "]>"); end >= 0 {
			t.pos += end + 2
			t.prevTag = NonTag
			return t.h.Comment(&Comment{Content: rest[2 : end+1], NonStandard: true})
		}
	}

	if loc := reDoctype.FindStringIndex(rest); loc != nil {
		t.pos += loc[1]
		t.prevTag = NonTag
		return t.h.Doctype(&Doctype{Content: rest[:loc[1]]})
	}

	if m := reEndTag.FindStringSubmatchIndex(rest); m != nil {
		name := rest[m[2]:m[3]]
		t.pos += m[1]
		t.prevTag = "/" + strings.ToLower(name)
		return t.closeElements(name, true)
	}

	if sm := t.startTag(); sm != nil {
		t.pos += sm.length
		t.prevTag = strings.ToLower(sm.name)
		return t.openElement(sm)
	}

	end := textEnd(rest)
	if end == 0 {
		return nil
	}
	t.pos += end
	return t.h.Text(&Text{Content: rest[:end], PrevTag: t.prevTag, NextTag: t.peekTag()})
}

// rawText consumes the content of a script or style element.
func (t *tokenizer) rawText() error {
	name := t.lastTag()
	lname := strings.ToLower(name)
	rest := t.input[t.pos:]

	text, advance, closed := rest, len(rest), false
	if loc := endTagMatcher(lname).FindStringIndex(rest); loc != nil {
		text, advance, closed = rest[:loc[0]], loc[1], true
	}
	if text != "" {
		if err := t.h.Text(&Text{Content: text, PrevTag: lname, NextTag: "/" + lname}); err != nil {
			return err
		}
	}
	t.pos += advance
	if !closed {
		return nil
	}
	t.prevTag = "/" + lname
	return t.closeElements(name, true)
}

func endTagMatcher(tag string) *regexp.Regexp {
	if re, ok := endTagMatchers.Load(tag); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := endTagMatchers.LoadOrStore(tag, regexp.MustCompile(`(?i)</`+regexp.QuoteMeta(tag)+`[^>]*>`))
	return re.(*regexp.Regexp)
}

// startTag parses a complete start tag at the current position.
func (t *tokenizer) startTag() *startMatch {
	if t.peeked != nil && t.peekedAt == t.pos {
		sm := t.peeked
		t.peeked, t.peekedAt = nil, -1
		return sm
	}
	return parseStartTag(t.input[t.pos:], t.grammar)
}

func parseStartTag(s string, g *AttrGrammar) *startMatch {
	open := reStartOpen.FindStringSubmatchIndex(s)
	if open == nil {
		return nil
	}
	sm := &startMatch{name: s[open[2]:open[3]]}
	i := open[1]
	for {
		if c := reStartClose.FindStringSubmatchIndex(s[i:]); c != nil {
			sm.selfClosing = c[3] > c[2]
			sm.length = i + c[1]
			return sm
		}
		attr, n, ok := g.match(s[i:])
		if !ok || n == 0 {
			return nil
		}
		sm.attrs = append(sm.attrs, attr)
		i += n
	}
}

// peekTag names the tag that follows a text run.
func (t *tokenizer) peekTag() string {
	rest := t.input[t.pos:]
	if sm := parseStartTag(rest, t.grammar); sm != nil {
		t.peeked, t.peekedAt = sm, t.pos
		return strings.ToLower(sm.name)
	}
	if m := reEndTag.FindStringSubmatch(rest); m != nil {
		return "/" + strings.ToLower(m[1])
	}
	return NonTag
}

// textEnd returns the length of the text run at the start of s. A "<" that
// does not begin any construct is part of the text.
func textEnd(s string) int {
	i := strings.IndexByte(s, '<')
	if i < 0 {
		return len(s)
	}
	for !beginsConstruct(s[i:]) {
		j := strings.IndexByte(s[i+1:], '<')
		if j < 0 {
			return len(s)
		}
		i += 1 + j
	}
	return i
}

func beginsConstruct(s string) bool {
	return strings.HasPrefix(s, "<!--") ||
		strings.HasPrefix(s, "<![") ||
		reEndTag.MatchString(s) ||
		reStartOpen.MatchString(s) ||
		reDoctype.MatchString(s)
}

func (t *tokenizer) openElement(sm *startMatch) error {
	lname := strings.ToLower(sm.name)

	if t.opts.HTML5 {
		if phrasingOnly[strings.ToLower(t.lastTag())] && nonPhrasing[lname] {
			if err := t.closeElements(t.lastTag(), false); err != nil {
				return err
			}
		}
	} else {
		for last := t.lastTag(); last != "" && inlineElements[strings.ToLower(last)]; last = t.lastTag() {
			if err := t.closeElements(last, false); err != nil {
				return err
			}
		}
	}

	if closeSelf[lname] && strings.ToLower(t.lastTag()) == lname {
		if err := t.closeElements(t.lastTag(), false); err != nil {
			return err
		}
	}

	unary := voidElements[lname] ||
		(lname == "html" && strings.ToLower(t.lastTag()) == "head") ||
		sm.selfClosing
	if !unary {
		t.stack = append(t.stack, sm.name)
	}
	return t.h.StartTag(&StartTag{
		Name:        sm.name,
		Attrs:       sm.attrs,
		SelfClosing: sm.selfClosing,
		Unary:       unary,
	})
}

// closeElements closes the nearest open element named name together with
// everything opened after it. An empty name closes all open elements. End
// tags with no matching open element are dropped.
func (t *tokenizer) closeElements(name string, explicit bool) error {
	pos := -1
	if name == "" {
		pos = 0
	} else {
		for i := len(t.stack) - 1; i >= 0; i-- {
			if strings.EqualFold(t.stack[i], name) {
				pos = i
				break
			}
		}
	}
	if pos < 0 {
		return nil
	}
	for i := len(t.stack) - 1; i >= pos; i-- {
		ev := &EndTag{Name: t.stack[i], AutoGenerated: i > pos || !explicit}
		t.stack = t.stack[:i]
		if err := t.h.EndTag(ev); err != nil {
			return err
		}
	}
	return nil
}
