package enrollment

import (
	"errors"
	"fmt"
)

var ErrMalformedEntry = errors.New("enrollment: malformed entry")

type DecodeError struct {
	Index  int
	Entry  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("enrollment: entry %d %q: %s", e.Index, e.Entry, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrMalformedEntry
}
