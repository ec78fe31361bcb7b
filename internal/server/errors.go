package server

import "errors"

var (
	// ErrAlreadyRunning is returned by Start on a started server.
	ErrAlreadyRunning = errors.New("server: already running")
	// ErrNotRunning is returned by Stop on a stopped server.
	ErrNotRunning = errors.New("server: not running")
)
