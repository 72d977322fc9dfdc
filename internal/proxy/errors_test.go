package proxy

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRelayErrors(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:1: connect: connection refused")

	tests := []struct {
		name    string
		err     *RelayError
		kind    ErrorKind
		status  int
		message string
	}{
		{"invalid request", errInvalidRequest(), InvalidRequest, 400, "Missing 'message' in request body"},
		{"upstream http", errUpstreamHTTP(429, "429 Client Error"), UpstreamHTTPError, 429, "429 Client Error"},
		{"unavailable", errUpstreamUnavailable(cause), UpstreamUnavailable, 503, cause.Error()},
		{"internal", errInternal(cause), InternalError, 500, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind || tt.err.Status != tt.status || tt.err.Message != tt.message {
				t.Errorf("got %+v", tt.err)
			}

			rec := httptest.NewRecorder()
			writeError(rec, tt.err)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.kind == InternalError && strings.Contains(rec.Body.String(), "refused") {
				t.Error("internal error leaked its cause")
			}
		})
	}

	if !errors.Is(errInternal(cause), cause) {
		t.Error("errInternal does not unwrap to its cause")
	}
	var re *RelayError
	if !errors.As(error(errUpstreamUnavailable(cause)), &re) || re.Status != http.StatusServiceUnavailable {
		t.Error("errors.As failed for *RelayError")
	}
}

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages("persona", "raw <text>")
	if len(msgs) != 2 || msgs[0].Role != "system" || msgs[1].Role != "user" || msgs[1].Content != "raw <text>" {
		t.Errorf("BuildMessages = %+v", msgs)
	}
	if msgs := BuildMessages("", "x"); len(msgs) != 1 || msgs[0].Role != "user" {
		t.Errorf("BuildMessages without prompt = %+v", msgs)
	}
}
