package provision

import (
	"errors"
	"fmt"

	"vector-starter/internal/collections"
)

var (
	// ErrNotRegistered is wrapped by a ConfigurationError for a name with no registry entry.
	ErrNotRegistered = errors.New("no registry entry")
	// ErrShapeMismatch is wrapped by a ConfigurationError when a record type does not match the registered properties.
	ErrShapeMismatch = errors.New("record shape does not match registry")
)

// ConfigurationError reports a mismatch between the code and the registry.
// It is deterministic and must not be retried. Match on the type or on the
// wrapped sentinel; the message text is not stable.
type ConfigurationError struct {
	Name collections.Name
	Err  error
}

func (e *ConfigurationError) Error() string {
	if errors.Is(e.Err, ErrNotRegistered) {
		return fmt.Sprintf("no registry entry for collection: %s", e.Name)
	}
	return fmt.Sprintf("collection %s: %v", e.Name, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// RemoteError wraps a failure of a call to the vector database. A create that
// races with another process creating the same collection is absorbed and
// never surfaces as a RemoteError.
type RemoteError struct {
	Op         string
	Collection collections.Name
	Err        error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsRemoteError reports whether err is or wraps a RemoteError.
func IsRemoteError(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr)
}
