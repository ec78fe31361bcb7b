package scheduler

import "errors"

// Scheduler errors
var (
	ErrSystemExists   = errors.New("scheduler: system name already registered")
	ErrSystemNotFound = errors.New("scheduler: system not found")
)

// Loop errors
var (
	ErrLoopAlreadyRunning = errors.New("scheduler: loop already running")
	ErrLoopNotRunning     = errors.New("scheduler: loop not running")
)
