package model

import (
	"errors"
	"fmt"
)

var (
	ErrArgument     = errors.New("invalid arguments")
	ErrDirectory    = errors.New("cannot read log directory")
	ErrRead         = errors.New("cannot read log file")
	ErrMalformedLog = errors.New("malformed log line")
	ErrLookup       = errors.New("player not found")
)

// MalformedLogError reports a login or disconnect line whose date, time or
// player field could not be resolved.
type MalformedLogError struct {
	File   string
	Line   int
	Reason string
}

func (e *MalformedLogError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, ErrMalformedLog, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, ErrMalformedLog, e.Reason)
}

func (e *MalformedLogError) Unwrap() error {
	return ErrMalformedLog
}
