package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestWriteResponse(t *testing.T) {
	f := NewFormatter()
	in := payload{Name: "CLITEMP", Value: 65.3}

	tests := []struct {
		url         string
		contentType string
	}{
		{"/api/nodes", ContentTypeJSON},
		{"/api/nodes?format=json", ContentTypeJSON},
		{"/api/nodes?format=msgpack", ContentTypeMsgPack},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, tt.url, nil)

		if err := f.WriteResponse(rec, req, http.StatusAccepted, in); err != nil {
			t.Fatalf("WriteResponse(%s) error = %v", tt.url, err)
		}
		if rec.Code != http.StatusAccepted {
			t.Errorf("%s: status = %d", tt.url, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
			t.Errorf("%s: Content-Type = %q, want %q", tt.url, ct, tt.contentType)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("%s: missing CORS header", tt.url)
		}

		var out payload
		var err error
		if tt.contentType == ContentTypeMsgPack {
			err = Unmarshal(rec.Body.Bytes(), &out)
		} else {
			err = json.Unmarshal(rec.Body.Bytes(), &out)
		}
		if err != nil || out != in {
			t.Errorf("%s: decoded %+v, %v; want %+v", tt.url, out, err, in)
		}
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/nodes/nope", nil)

	NewFormatter().WriteError(rec, req, http.StatusNotFound, "node not found")

	var out ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNotFound || out.Error != "node not found" {
		t.Errorf("WriteError() = %d %+v", rec.Code, out)
	}
}
