package htmlparser

import "fmt"

const contextLen = 40

// ParseError is returned when the tokenizer cannot make progress, for example
// on an unterminated comment or a start tag with no closing bracket.
type ParseError struct {
	Offset  int
	Context string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %q", e.Offset, e.Context)
}

func newParseError(input string, offset int) *ParseError {
	end := offset + contextLen
	if end > len(input) {
		end = len(input)
	}
	return &ParseError{Offset: offset, Context: input[offset:end]}
}
