package htmlparser

import (
	"fmt"
	"regexp"
	"strings"
)

// Surround is a pair of patterns that may wrap an attribute, as in
// {{#if x}}checked{{/if}}.
type Surround struct {
	Open  string `json:"open" yaml:"open"`
	Close string `json:"close" yaml:"close"`
}

const (
	attrName  = `([^\s"'<>/=]+)`
	attrValue = `[ \t\n\f\r]*(?:"([^"]*)"+|'([^']*)'+|([^ \t\n\f\r"'` + "`" + `=<>]+))`
)

// attrMatcher is one compiled alternative of the attribute grammar together
// with the submatch indexes of its parts. Indexes are -1 when absent.
type attrMatcher struct {
	re                                   *regexp.Regexp
	open, name, assign, dq, sq, bare, cl int
}

// AttrGrammar recognises attributes inside a start tag. Surround alternatives
// are tried in the order they were given, before the plain form.
type AttrGrammar struct {
	matchers []attrMatcher
}

var defaultGrammar = mustGrammar(nil, nil)

func mustGrammar(assign []string, surround []Surround) *AttrGrammar {
	g, err := NewAttrGrammar(assign, surround)
	if err != nil {
		panic(err)
	}
	return g
}

// NewAttrGrammar compiles the attribute grammar extended with custom assign
// operators (tried after "=") and custom surround pairs.
func NewAttrGrammar(assign []string, surround []Surround) (*AttrGrammar, error) {
	assignAlts := []string{"(?:=)"}
	assignGroups := 0
	for _, p := range assign {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("custom attribute assign %q: %w", p, err)
		}
		assignAlts = append(assignAlts, "(?:"+p+")")
		assignGroups += re.NumSubexp()
	}
	core := attrName + `(?:\s*(` + strings.Join(assignAlts, "|") + `)` + attrValue + `)?`

	g := &AttrGrammar{}
	for _, s := range surround {
		open, err := regexp.Compile(s.Open)
		if err != nil {
			return nil, fmt.Errorf("custom attribute surround open %q: %w", s.Open, err)
		}
		if _, err := regexp.Compile(s.Close); err != nil {
			return nil, fmt.Errorf("custom attribute surround close %q: %w", s.Close, err)
		}
		re, err := regexp.Compile(`^\s*(` + s.Open + `)\s*` + core + `\s*(` + s.Close + `)`)
		if err != nil {
			return nil, fmt.Errorf("custom attribute surround %q %q: %w", s.Open, s.Close, err)
		}
		m := coreIndexes(re, 1+open.NumSubexp(), assignGroups)
		m.open = 1
		m.cl = m.bare + 1
		g.matchers = append(g.matchers, m)
	}
	re, err := regexp.Compile(`^\s*` + core)
	if err != nil {
		return nil, fmt.Errorf("attribute grammar: %w", err)
	}
	g.matchers = append(g.matchers, coreIndexes(re, 0, assignGroups))
	return g, nil
}

// coreIndexes lays out the submatch indexes of the core attribute pattern
// starting after `before` groups.
func coreIndexes(re *regexp.Regexp, before, assignGroups int) attrMatcher {
	m := attrMatcher{re: re, open: -1, cl: -1}
	m.name = before + 1
	m.assign = before + 2
	m.dq = m.assign + assignGroups + 1
	m.sq = m.dq + 1
	m.bare = m.sq + 1
	return m
}

// match parses one attribute at the start of s and reports how many bytes it
// consumed.
func (g *AttrGrammar) match(s string) (Attribute, int, bool) {
	for _, m := range g.matchers {
		loc := m.re.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		group := func(i int) (string, bool) {
			if i < 0 || loc[2*i] < 0 {
				return "", false
			}
			return s[loc[2*i]:loc[2*i+1]], true
		}

		var a Attribute
		a.Name, _ = group(m.name)
		a.CustomOpen, _ = group(m.open)
		a.CustomClose, _ = group(m.cl)
		if assign, ok := group(m.assign); ok {
			a.HasValue = true
			a.CustomAssign = assign
			if v, ok := group(m.dq); ok {
				a.Value, a.Quote = v, `"`
			} else if v, ok := group(m.sq); ok {
				a.Value, a.Quote = v, `'`
			} else {
				a.Value, _ = group(m.bare)
			}
		}
		return a, loc[1], true
	}
	return Attribute{}, 0, false
}
