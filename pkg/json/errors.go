package json

import (
	"errors"
	"fmt"

	"github.com/acolita/ommjson/internal/textio"
)

// Common errors.
var (
	// ErrRead matches every positioned read error.
	ErrRead = textio.ErrRead

	ErrUnexpectedToken  = errors.New("json: unexpected token")
	ErrSyntax           = errors.New("json: syntax error")
	ErrNumber           = errors.New("json: invalid number")
	ErrMaxDepthExceeded = errors.New("json: max depth exceeded")
	ErrTrailingData     = errors.New("json: input was not fully consumed")
	ErrWriterState      = errors.New("json: invalid writer state")
	ErrUnsupportedValue = errors.New("json: unsupported value")
	ErrInvalidValue     = errors.New("json: invalid value")
	ErrUnsupportedType  = errors.New("json: unsupported type")
	ErrInvalidTarget    = errors.New("json: decode target must be a non-nil pointer")
)

// ReadError is a read failure carrying the 1-based line and column where it
// was detected. Errors from an object reader report line 0.
type ReadError = textio.Error

func readErrorf(line, col int, kind error, format string, args ...interface{}) *ReadError {
	return &ReadError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...), Err: kind}
}
