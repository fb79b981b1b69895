package gbplink

import "errors"

// Session errors.
var (
	// ErrNilConfig indicates NewSession was called with a nil configuration.
	ErrNilConfig = errors.New("gbplink: session config is nil")
)

// Dispatcher errors.
var (
	// ErrNilSession indicates NewDispatcher was called with a nil session.
	ErrNilSession = errors.New("gbplink: session is nil")

	// ErrDispatcherStarted indicates Start was called on a running Dispatcher.
	ErrDispatcherStarted = errors.New("gbplink: dispatcher already started")

	// ErrDispatcherStopped indicates the Dispatcher is not running.
	ErrDispatcherStopped = errors.New("gbplink: dispatcher not started")
)
