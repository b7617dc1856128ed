package protocol

import "errors"

var (
	ErrMissingEventName = errors.New("event frame has no event name")
	ErrUnknownLanguage  = errors.New("unknown language id")
)
