// Package errorlog normalizes Apache web server error log lines.
package errorlog

import (
	"strings"

	"github.com/gstewart/log-insights-go/internal/insight"
)

// Compile-time interface check
var _ insight.LogHandler = (*Handler)(nil)

// fieldDelimiter closes one bracketed prefix field, e.g. "[Mon Jan 01] ".
const fieldDelimiter = "] "

// Handler normalizes Apache error log lines.
// Implements insight.LogHandler.
type Handler struct{}

// NewHandler creates a new error log handler.
func NewHandler() *Handler {
	return &Handler{}
}

// FilePrefixes implements insight.LogHandler.FilePrefixes.
func (h *Handler) FilePrefixes() []string {
	return []string{"error_log", "ssl_error_log"}
}

// Normalize implements insight.LogHandler.Normalize.
// Error log lines open with bracketed timestamp and severity fields:
//
//	[Mon Jan 01 00:00:00 2020] [error] message text
//
// Splitting on "] " peels those two fields off; the remaining segments,
// rejoined with single spaces, form the record. Lines without enough
// bracketed fields are skipped silently rather than failing the run,
// since error logs routinely contain free-form continuation lines.
func (h *Handler) Normalize(line string) (string, bool, error) {
	parts := strings.Split(line, fieldDelimiter)
	if len(parts) <= 2 {
		return "", false, nil
	}
	return strings.Join(parts[2:], " "), true, nil
}
