package ambient

import "errors"

var (
	// ErrNotInitialized is returned by controls used before Initialize.
	ErrNotInitialized = errors.New("engine not initialized")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid config")
)

// EngineError reports a failed engine operation. Initialization failures are
// fatal: the engine stays uninitialized and callers should disable playback.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return "ambient: " + e.Op + ": " + e.Err.Error()
}

func (e *EngineError) Unwrap() error { return e.Err }
