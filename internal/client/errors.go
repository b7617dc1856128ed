package client

import "errors"

var (
	ErrClientClosed   = errors.New("client is closed")
	ErrEmitBufferFull = errors.New("emit buffer is full")
)
