package rpc

import "errors"

var (
	ErrUnknownCommand   = errors.New("rpc: unknown command")
	ErrDuplicateCommand = errors.New("rpc: command already registered")
	ErrInvalidPayload   = errors.New("rpc: invalid payload")
	ErrInvalidEnvelope  = errors.New("rpc: invalid request envelope")
	ErrNoReply          = errors.New("rpc: no reply before deadline")
)
