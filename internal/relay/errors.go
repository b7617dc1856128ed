package relay

import "errors"

var (
	ErrAlreadyRunning        = errors.New("broadcaster is already running")
	ErrNotRunning            = errors.New("broadcaster is not running")
	ErrEventChannelFull      = errors.New("event channel is full")
	ErrRegisterChannelFull   = errors.New("register channel is full")
	ErrUnregisterChannelFull = errors.New("unregister channel is full")
)
