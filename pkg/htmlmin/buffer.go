package htmlmin

type fragmentKind int

const (
	fragText fragmentKind = iota
	fragStartTag
	fragAttr
	fragEndTag
	fragComment
	fragDoctype

	// fragRemoved marks where a comment was dropped. It renders as nothing.
	fragRemoved
)

type fragment struct {
	kind fragmentKind
	s    string
}

// outputBuffer is the minified document under construction. It only grows
// or shrinks at the tail.
type outputBuffer struct {
	frags []fragment
}

func (b *outputBuffer) push(kind fragmentKind, s string) {
	b.frags = append(b.frags, fragment{kind: kind, s: s})
}

func (b *outputBuffer) last() (fragment, bool) {
	if len(b.frags) == 0 {
		return fragment{}, false
	}
	return b.frags[len(b.frags)-1], true
}

func (b *outputBuffer) setLast(s string) {
	b.frags[len(b.frags)-1].s = s
}

func (b *outputBuffer) appendLast(s string) {
	b.frags[len(b.frags)-1].s += s
}

func (b *outputBuffer) pop() {
	b.frags = b.frags[:len(b.frags)-1]
}

// truncateAtLast removes the last fragment of the given kind and everything
// after it. It reports whether such a fragment was found.
func (b *outputBuffer) truncateAtLast(kind fragmentKind) bool {
	for i := len(b.frags) - 1; i >= 0; i-- {
		if b.frags[i].kind == kind {
			b.frags = b.frags[:i]
			return true
		}
	}
	return false
}

func (b *outputBuffer) strings() []string {
	out := make([]string, 0, len(b.frags))
	for _, f := range b.frags {
		if f.kind != fragRemoved {
			out = append(out, f.s)
		}
	}
	return out
}
