package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrMalformedRecord = errors.New("malformed coordinate record")
	ErrConfigSyntax    = errors.New("aspects file syntax error")
	ErrCanceled        = errors.New("canceled by user")
	ErrInvalidRequest  = errors.New("invalid request")
)

// MalformedRecordError reports a coordinate line that does not parse into
// (image, landmark, x, y).
type MalformedRecordError struct {
	Source string
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: %s:%d: %s", ErrMalformedRecord, e.Source, e.Line, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// ConfigSyntaxError reports an aspects file line that cannot be used.
type ConfigSyntaxError struct {
	Source string
	Line   int
	Reason string
}

func (e *ConfigSyntaxError) Error() string {
	return fmt.Sprintf("%s: %s:%d: %s", ErrConfigSyntax, e.Source, e.Line, e.Reason)
}

func (e *ConfigSyntaxError) Unwrap() error { return ErrConfigSyntax }
