// Package htmlparser is a streaming tokenizer for real-world, often malformed
// HTML. It never builds a tree: markup is delivered to a Handler one event at
// a time while a stack of open element names is kept so that implicitly
// closed elements still produce end events.
package htmlparser

// NonTag stands in for a text neighbour that is not an element tag: a comment,
// a doctype, a conditional bracket, or the end of input.
const NonTag = "!"

// Attribute is one attribute of a start tag as it appeared in the source.
type Attribute struct {
	Name     string
	Value    string
	HasValue bool   // false for bare attributes such as <input disabled>
	Quote    string // `"`, `'` or "" for unquoted values

	// Markup captured by custom surround and assign patterns.
	CustomOpen   string
	CustomClose  string
	CustomAssign string
}

// StartTag is emitted for every start tag.
type StartTag struct {
	Name  string
	Attrs []Attribute

	// SelfClosing reports an explicit "/>" in the source.
	SelfClosing bool

	// Unary reports that the element was not pushed on the open element
	// stack: it is void, self-closing, or an <html> opened inside <head>.
	Unary bool
}

// EndTag is emitted when an element is closed, explicitly or not.
type EndTag struct {
	Name string

	// AutoGenerated is set when no end tag for this element appeared in the
	// source at this position.
	AutoGenerated bool
}

// Text is a run of character data. PrevTag and NextTag name the neighbouring
// tags ("p", "/p"), NonTag for a non-tag neighbour, or "" for the start of
// the document.
type Text struct {
	Content string
	PrevTag string
	NextTag string
}

// Comment is the content between "<!--" and "-->", or between "<!" and ">"
// for non-standard brackets such as <![endif]>.
type Comment struct {
	Content     string
	NonStandard bool
}

// Doctype holds the complete doctype declaration.
type Doctype struct {
	Content string
}

// Handler consumes parse events. Returning an error aborts the parse and the
// error is returned from Parse unchanged.
type Handler interface {
	StartTag(ev *StartTag) error
	EndTag(ev *EndTag) error
	Text(ev *Text) error
	Comment(ev *Comment) error
	Doctype(ev *Doctype) error
}
