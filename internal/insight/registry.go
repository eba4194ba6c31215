package insight

import (
	"fmt"
	"sync"
)

// LogType identifies the format of the log files to analyze.
type LogType string

// Supported log types.
const (
	LogTypeApacheError  LogType = "apache-error"
	LogTypeApacheAccess LogType = "apache-access"
)

// Registry holds all registered log handlers.
// It provides thread-safe access to handler configurations.
type Registry struct {
	mu       sync.RWMutex
	handlers map[LogType]LogHandler
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[LogType]LogHandler),
	}
}

// Register adds a log handler to the registry.
// If a handler for the same type already exists, it will be overwritten.
func (r *Registry) Register(logType LogType, handler LogHandler) error {
	if logType == "" {
		return fmt.Errorf("log type cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("cannot register nil log handler")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[logType] = handler
	return nil
}

// Get retrieves a log handler by type.
// Returns nil and false if the type is not registered.
func (r *Registry) Get(logType LogType) (LogHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[logType]
	return handler, ok
}

// Has checks if a log type is registered.
func (r *Registry) Has(logType LogType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.handlers[logType]
	return ok
}

// List returns all registered log types.
func (r *Registry) List() []LogType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]LogType, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}

// ValidLogTypes returns a list of valid log type strings.
// Useful for configuration validation and usage messages.
func ValidLogTypes() []string {
	return []string{
		string(LogTypeApacheError),
		string(LogTypeApacheAccess),
	}
}

// ParseLogType converts a string to LogType.
// Returns an error if the string is not a valid log type.
func ParseLogType(s string) (LogType, error) {
	switch s {
	case string(LogTypeApacheError):
		return LogTypeApacheError, nil
	case string(LogTypeApacheAccess):
		return LogTypeApacheAccess, nil
	default:
		return "", fmt.Errorf("invalid log type: %q (valid types: %v)", s, ValidLogTypes())
	}
}
