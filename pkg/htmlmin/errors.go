package htmlmin

import (
	"errors"
	"fmt"
)

// ErrPlaceholderExhausted is returned when no placeholder id absent from the
// input could be generated.
var ErrPlaceholderExhausted = errors.New("htmlmin: could not generate a unique placeholder id")

// OptionsError reports an invalid option. Field is the option's Go field
// path, e.g. "Options.IgnoreCustomComments[1]".
type OptionsError struct {
	Field string
	Err   error
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("htmlmin: invalid option %s: %v", e.Field, e.Err)
}

func (e *OptionsError) Unwrap() error {
	return e.Err
}
