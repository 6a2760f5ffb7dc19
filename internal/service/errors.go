package service

// AlreadyRunningError reports a start request for a key that is already
// tracked in the registry.
type AlreadyRunningError struct {
	Service string
}

func (e *AlreadyRunningError) Error() string { return e.Service + " is already running" }

// NotRunningError reports a stop request for a key with no registry entry.
type NotRunningError struct {
	Service string
}

func (e *NotRunningError) Error() string { return e.Service + " is not running" }

// SpawnError reports that the OS process could not be started.
type SpawnError struct {
	Service string
	Err     error
}

func (e *SpawnError) Error() string { return "failed to start " + e.Service + ": " + e.Err.Error() }

func (e *SpawnError) Unwrap() error { return e.Err }
