// Package insight provides the common contracts for log insight extraction.
// This abstraction layer enables support for multiple log file formats
// (apache-error, apache-access, etc.) through a unified interface.
package insight

// LogHandler normalizes raw log lines of one specific format into cleaned
// text records suitable for n-gram scoring.
type LogHandler interface {
	// FilePrefixes returns the filename prefixes that identify log files
	// of this format in an input directory (e.g. "error_log").
	FilePrefixes() []string

	// Normalize converts one raw log line into zero-or-one log record.
	// The boolean reports whether a record was produced; a false return
	// with a nil error means the line was skipped. A non-nil error means
	// the line violated the format's structural assumptions and the
	// whole run must abort.
	Normalize(line string) (string, bool, error)
}
