package actionEncoder

import (
	"errors"
	"fmt"
)

// ErrEncoding is matched by every EncodingError via errors.Is.
var ErrEncoding = errors.New("action encoding failed")

// EncodingError reports a value in the action tree that cannot be encoded.
// No bytes are produced when it is returned.
type EncodingError struct {
	Path string
	Err  error
}

func (e *EncodingError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", ErrEncoding.Error(), e.Err)
	}
	return fmt.Sprintf("%s at %s: %v", ErrEncoding.Error(), e.Path, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

func newEncodingError(path string, format string, args ...interface{}) *EncodingError {
	return &EncodingError{Path: path, Err: fmt.Errorf(format, args...)}
}

var (
	ErrCyclicValue      = errors.New("cyclic reference")
	ErrMaxDepthExceeded = errors.New("maximum nesting depth exceeded")
	ErrIntegerOverflow  = errors.New("integer does not fit in 64 bits")
	ErrUnorderedMap     = errors.New("go maps have no key order; use a Record or a struct")
	ErrUnsupportedType  = errors.New("unsupported type")
)
