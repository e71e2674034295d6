package htmlmin

import (
	"strings"

	"github.com/jmylchreest/htmlmin/pkg/htmlparser"
)

// HTML whitespace. U+00A0 is not part of it.
const whitespace = " \t\n\r\f"

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func trimSpace(s string) string {
	return strings.Trim(s, whitespace)
}

func startsWithSpace(s string) bool {
	return s != "" && isSpace(s[0])
}

func endsWithSpace(s string) bool {
	return s != "" && isSpace(s[len(s)-1])
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, whitespace))]
}

func trailingSpace(s string) string {
	return s[len(strings.TrimRight(s, whitespace)):]
}

// collapseAll replaces every whitespace run with one space. A lone tab is
// kept as a tab.
func collapseAll(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		if !isSpace(s[i]) {
			sb.WriteByte(s[i])
			i++
			continue
		}
		j := i
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j-i == 1 && s[i] == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
		i = j
	}
	return sb.String()
}

// removeSpace deletes every whitespace byte.
func removeSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && isSpace(byte(r)) {
			return -1
		}
		return r
	}, s)
}

type collapseMode struct {
	conservative       bool
	preserveLineBreaks bool
}

// collapse trims the requested edges of s and optionally collapses its
// interior. Trimmed edges keep one space under conservative mode, or one
// line break when the edge contained one and line breaks are preserved.
func collapse(s string, mode collapseMode, trimLeft, trimRight, all bool) string {
	var before, after string

	if mode.preserveLineBreaks {
		if lead := leadingSpace(s); strings.ContainsAny(lead, "\n\r") {
			before = "\n"
			s = s[len(lead):]
		}
		if trail := trailingSpace(s); strings.ContainsAny(trail, "\n\r") {
			after = "\n"
			s = s[:len(s)-len(trail)]
		}
	}

	if trimLeft {
		if lead := leadingSpace(s); lead != "" {
			s = s[len(lead):]
			if before == "" && mode.conservative {
				s = " " + s
			}
		}
	}
	if trimRight {
		if trail := trailingSpace(s); trail != "" {
			s = s[:len(s)-len(trail)]
			if after == "" && mode.conservative {
				s += " "
			}
		}
	}

	if all {
		s = collapseAll(s)
	}
	return before + s + after
}

var (
	inlineTags     = newSet("a,abbr,acronym,b,bdi,bdo,big,button,cite,code,del,dfn,em,font,i,ins,kbd,mark,math,nobr,q,rt,rp,s,samp,small,span,strike,strong,sub,sup,svg,time,tt,u,var")
	inlineTextTags = newSet("a,abbr,acronym,b,big,del,em,font,i,ins,kbd,mark,nobr,s,samp,small,span,strike,strong,sub,sup,time,tt,u,var")

	// Neighbours that never force trimming of adjacent whitespace.
	selfClosingInlineTags = newSet("img,input,wbr," + htmlparser.NonTag)
)

// trimEdges decides which edges of a text run may lose their whitespace
// given its neighbouring tags.
func trimEdges(prev, next string, collapseInline bool) (left, right bool) {
	left = prev != "" && !selfClosingInlineTags[prev]
	if left && !collapseInline {
		if name, ok := strings.CutPrefix(prev, "/"); ok {
			left = !inlineTags[name]
		} else {
			left = !inlineTextTags[prev]
		}
	}

	right = next != "" && !selfClosingInlineTags[next]
	if right && !collapseInline {
		if name, ok := strings.CutPrefix(next, "/"); ok {
			right = !inlineTextTags[name]
		} else {
			right = !inlineTags[next]
		}
	}
	return left, right
}
