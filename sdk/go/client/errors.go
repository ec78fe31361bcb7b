package client

import "errors"

var (
	// ErrNotConnected is returned by operations that need a live
	// connection.
	ErrNotConnected = errors.New("client: not connected")

	// ErrAlreadyConnected is returned by Connect on a connected client.
	ErrAlreadyConnected = errors.New("client: already connected")

	// ErrClientClosed is returned once Close has been called.
	ErrClientClosed = errors.New("client: closed")

	// ErrAuthFailed wraps the server's auth_failure reason.
	ErrAuthFailed = errors.New("client: authentication failed")
)
