package executor

import "go.trai.ch/zerr"

var (
	errEmptyDuration           = zerr.New("empty duration string")
	errInvalidDuration         = zerr.New("duration must start with an unsigned integer")
	errUnsupportedDurationUnit = zerr.New("unsupported duration unit; expected ms, s, m, or h")
)
