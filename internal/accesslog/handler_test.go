package accesslog

import (
	"reflect"
	"strings"
	"testing"
)

func TestFilePrefixes(t *testing.T) {
	handler := NewHandler()

	want := []string{"access_log", "ssl_access_log"}
	if got := handler.FilePrefixes(); !reflect.DeepEqual(got, want) {
		t.Errorf("FilePrefixes() = %v, want %v", got, want)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantRecord string
	}{
		{
			name:       "Placeholder hyphens are stripped",
			line:       `127.0.0.1 - - [01/Jan/2020] "GET /x HTTP/1.1" 200 - -`,
			wantRecord: "127.0.0.1 GET /x HTTP/1.1 200  ",
		},
		{
			name:       "Combined format with referrer and user agent",
			line:       `10.1.2.3 - - [01/Jan/2020:00:00:00 +0000] "POST /api/v1 HTTP/1.1" 404 512 "http://example.com" "curl/7.1"`,
			wantRecord: "10.1.2.3 POST /api/v1 HTTP/1.1 404 512 http://example.com curl/7.1",
		},
		{
			name: "Hyphens inside the request path are also removed",
			line: `192.168.0.9 - - [02/Feb/2020] "GET /my-page HTTP/1.1" 200 99`,
			// Hyphen stripping is global over the request portion, so
			// /my-page collapses to /mypage.
			wantRecord: "192.168.0.9 GET /mypage HTTP/1.1 200 99",
		},
	}

	handler := NewHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, ok, err := handler.Normalize(tt.line)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !ok {
				t.Fatal("Expected a record to be produced")
			}
			if record != tt.wantRecord {
				t.Errorf("Normalize(%q) = %q, want %q", tt.line, record, tt.wantRecord)
			}
		})
	}
}

func TestNormalize_MalformedLineFails(t *testing.T) {
	tests := []struct {
		name          string
		line          string
		errorContains string
	}{
		{
			name:          "Missing identity delimiter",
			line:          "not an access log line",
			errorContains: `" - - ["`,
		},
		{
			name:          "Missing request delimiter",
			line:          "127.0.0.1 - - [01/Jan/2020 truncated",
			errorContains: `"] \""`,
		},
	}

	handler := NewHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := handler.Normalize(tt.line)
			if err == nil {
				t.Fatal("Expected an error for malformed line")
			}
			if ok {
				t.Error("Expected no record for malformed line")
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Expected error to contain %s, got: %v", tt.errorContains, err)
			}
		})
	}
}
