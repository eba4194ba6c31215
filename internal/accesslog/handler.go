// Package accesslog normalizes Apache web server access log lines.
package accesslog

import (
	"fmt"
	"strings"

	"github.com/gstewart/log-insights-go/internal/insight"
)

// Compile-time interface check
var _ insight.LogHandler = (*Handler)(nil)

// Combined-format delimiters, e.g.
//
//	127.0.0.1 - - [01/Jan/2020:00:00:00 +0000] "GET /x HTTP/1.1" 200 1234 "-" "-"
const (
	identityDelimiter = " - - ["
	requestDelimiter  = `] "`
)

// Handler normalizes Apache access log lines in common/combined format.
// Implements insight.LogHandler.
type Handler struct{}

// NewHandler creates a new access log handler.
func NewHandler() *Handler {
	return &Handler{}
}

// FilePrefixes implements insight.LogHandler.FilePrefixes.
func (h *Handler) FilePrefixes() []string {
	return []string{"access_log", "ssl_access_log"}
}

// Normalize implements insight.LogHandler.Normalize.
// The client identity field is everything before ` - - [`; the request and
// status portion is everything after the closing `] "` of the timestamp.
// Double quotes and hyphens are stripped from the request portion wherever
// they occur, which removes the `-` placeholders Apache writes for missing
// referrer and user-agent fields. The record is the client field and the
// cleaned remainder joined by one space.
//
// Unlike the error log handler, every line is assumed to be well-formed;
// a line missing either delimiter aborts the run with a parse error.
func (h *Handler) Normalize(line string) (string, bool, error) {
	clientPart, rest, found := strings.Cut(line, identityDelimiter)
	if !found {
		return "", false, fmt.Errorf("access log line missing %q delimiter: %q", identityDelimiter, line)
	}

	_, requestPart, found := strings.Cut(rest, requestDelimiter)
	if !found {
		return "", false, fmt.Errorf("access log line missing %q delimiter: %q", requestDelimiter, line)
	}

	cleaned := strings.ReplaceAll(requestPart, `"`, "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")

	return clientPart + " " + cleaned, true, nil
}
