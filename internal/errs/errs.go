// Package errs holds the sentinel errors shared across packages.
package errs

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrChannelClosed      = errors.New("channel is not open")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrTransport          = errors.New("transport error")
	ErrUnexpectedStatus   = errors.New("unexpected status")
	ErrConfigParse        = errors.New("config parse error")
	ErrSensorUnavailable  = errors.New("sensor unavailable")
)
