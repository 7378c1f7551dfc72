package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
)

// Request describes one call against an http.Handler.
type Request struct {
	Method  string
	Path    string
	Token   string
	Body    interface{}
	Headers map[string]string
}

// Do serves req on h and returns the recorded response.
func Do(t *testing.T, h http.Handler, req Request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		body = bytes.NewReader(b)
	}
	r := httptest.NewRequest(req.Method, req.Path, body)
	r.Header.Set("Content-Type", "application/json")
	if req.Token != "" {
		r.Header.Set(pkg.HeaderAuthorization, "Bearer "+req.Token)
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	t.Logf("%s %s -> %d", req.Method, req.Path, w.Code)
	return w
}

func GetTraceId(resp *httptest.ResponseRecorder) string {
	return resp.Header().Get(pkg.HeaderTraceId)
}

func DecodeSuccess(r io.Reader) (pkg.APIResponse, error) {
	var out pkg.APIResponse
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func DecodeError(r io.Reader) (pkg.ErrorResponse, error) {
	var out pkg.ErrorResponse
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
