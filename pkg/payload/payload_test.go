package payload_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/JaimeStill/route-tour/pkg/httperrors"
	"github.com/JaimeStill/route-tour/pkg/payload"
)

func newRequest(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		t.Fatal("error = nil, want error object")
	}
	return httperrors.From(err).Code
}

func TestParse_JSON(t *testing.T) {
	got, err := payload.Parse(newRequest(`{"id":5,"email":"a@b.com"}`, "application/json; charset=utf-8"), payload.Options{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := map[string]any{"id": json.Number("5"), "email": "a@b.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
}

func TestParse_MissingContentTypeIsJSON(t *testing.T) {
	got, err := payload.Parse(newRequest(`[1,2]`, ""), payload.Options{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, ok := got.([]any); !ok {
		t.Errorf("Parse() = %T, want []any", got)
	}
}

func TestParse_Empty(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	got, err := payload.Parse(r, payload.Options{})
	if err != nil || got != nil {
		t.Errorf("Parse(no body) = %v, %v, want nil, nil", got, err)
	}

	got, err = payload.Parse(newRequest("", "application/json"), payload.Options{})
	if err != nil || got != nil {
		t.Errorf("Parse(empty body) = %v, %v, want nil, nil", got, err)
	}
}

func TestParse_Form(t *testing.T) {
	got, err := payload.Parse(newRequest("a=1&b=2&b=3", payload.MediaForm), payload.Options{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := map[string]any{"a": "1", "b": []string{"2", "3"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
}

func TestParse_Text(t *testing.T) {
	got, err := payload.Parse(newRequest("hello", "text/plain"), payload.Options{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("Parse() = %v, want %q", got, "hello")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		opts        payload.Options
		want        int
	}{
		{"malformed json", `{"id":`, "application/json", payload.Options{}, http.StatusBadRequest},
		{"trailing data", `{} {}`, "application/json", payload.Options{}, http.StatusBadRequest},
		{"not allowed", "a=1", payload.MediaForm, payload.Options{Allow: []string{payload.MediaJSON}}, http.StatusUnsupportedMediaType},
		{"unsupported", "x", "image/png", payload.Options{}, http.StatusUnsupportedMediaType},
		{"too large", `{"k":"` + strings.Repeat("x", 64) + `"}`, "application/json", payload.Options{MaxBytes: 16}, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := payload.Parse(newRequest(tt.body, tt.contentType), tt.opts)
			if got := statusOf(t, err); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParse_MalformedJSONMessage(t *testing.T) {
	_, err := payload.Parse(newRequest(`{`, "application/json"), payload.Options{})
	e := httperrors.From(err)
	if e.Message != "Invalid request payload JSON format" {
		t.Errorf("Message = %q", e.Message)
	}
}

func TestParse_UnknownLengthTooLarge(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(bytes.Repeat([]byte("a"), 32)))
	r.ContentLength = -1
	r.Header.Set("Content-Type", "text/plain")

	_, err := payload.Parse(r, payload.Options{MaxBytes: 8})
	if got := statusOf(t, err); got != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", got, http.StatusRequestEntityTooLarge)
	}
}

func TestOptions_Merge(t *testing.T) {
	defaults := payload.Options{Allow: []string{payload.MediaJSON}, MaxBytes: 10}

	got := payload.Options{}.Merge(defaults)
	if got.MaxBytes != 10 || len(got.Allow) != 1 {
		t.Errorf("Merge() = %+v, want defaults", got)
	}

	got = payload.Options{MaxBytes: 5, Allow: []string{payload.MediaText}}.Merge(defaults)
	if got.MaxBytes != 5 || got.Allow[0] != payload.MediaText {
		t.Errorf("Merge() = %+v, want route values kept", got)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1MB", payload.DefaultMaxBytes, false},
		{"512kb", 512 * 1000, false},
		{"0", 0, true},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := payload.ParseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
