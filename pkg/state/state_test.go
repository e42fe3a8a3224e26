package state_test

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/JaimeStill/route-tour/pkg/httperrors"
	"github.com/JaimeStill/route-tour/pkg/state"
)

const password = "longrandomvalue32charactersrequired"

func newJar(t *testing.T) *state.Jar {
	t.Helper()
	jar := state.NewJar()
	if err := jar.Define("test", state.Definition{
		TTL:      time.Hour,
		HTTPOnly: true,
		Path:     "/",
		Encoding: state.EncodingIron,
		Password: password,
	}); err != nil {
		t.Fatalf("Define(test) error = %v", err)
	}
	if err := jar.Define("json", state.Definition{Encoding: state.EncodingBase64JSON, Path: "/"}); err != nil {
		t.Fatalf("Define(json) error = %v", err)
	}
	if err := jar.Define("b64", state.Definition{Encoding: state.EncodingBase64}); err != nil {
		t.Fatalf("Define(b64) error = %v", err)
	}
	return jar
}

func TestNames(t *testing.T) {
	jar := newJar(t)

	want := []string{"b64", "json", "test"}
	if got := jar.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestDefine_Errors(t *testing.T) {
	jar := state.NewJar()

	if err := jar.Define("", state.Definition{}); err == nil {
		t.Error("Define(empty name) error = nil, want error")
	}
	if err := jar.Define("x", state.Definition{Encoding: "rot13"}); err == nil {
		t.Error("Define(bad encoding) error = nil, want error")
	}
	if err := jar.Define("x", state.Definition{Encoding: state.EncodingIron, Password: "short"}); err == nil {
		t.Error("Define(short password) error = nil, want error")
	}
}

func TestFormat_Iron(t *testing.T) {
	jar := newJar(t)

	c, err := jar.Format("test", "refreshedValue")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	if c.Value == "refreshedValue" {
		t.Error("Value was not sealed")
	}
	if !c.HttpOnly {
		t.Error("HttpOnly = false, want true")
	}
	if c.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", c.MaxAge)
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want %q", c.Path, "/")
	}
}

func TestRoundTrip(t *testing.T) {
	jar := newJar(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for name, value := range map[string]any{
		"test": "refreshedValue",
		"json": map[string]any{"name": "tony"},
		"b64":  "plain text",
	} {
		c, err := jar.Format(name, value)
		if err != nil {
			t.Fatalf("Format(%s) error = %v", name, err)
		}
		r.AddCookie(c)
	}
	r.AddCookie(&http.Cookie{Name: "other", Value: "raw"})

	got, err := jar.Parse(r)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := map[string]any{
		"test":  "refreshedValue",
		"json":  map[string]any{"name": "tony"},
		"b64":   "plain text",
		"other": "raw",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
}

func TestParse_InvalidValue(t *testing.T) {
	jar := newJar(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "test", Value: "not-a-seal"})

	_, err := jar.Parse(r)
	e := httperrors.From(err)
	if e == nil || e.Code != http.StatusBadRequest {
		t.Fatalf("Parse() error = %v, want 400", err)
	}
	if e.Message != "Invalid cookie value" {
		t.Errorf("Message = %q, want %q", e.Message, "Invalid cookie value")
	}
}

func TestParse_IgnoreErrors(t *testing.T) {
	jar := state.NewJar()
	jar.Define("json", state.Definition{Encoding: state.EncodingBase64JSON, IgnoreErrors: true})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "json", Value: "%%%"})

	got, err := jar.Parse(r)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, ok := got["json"]; ok {
		t.Error("invalid cookie kept, want dropped")
	}
}

func TestParse_Duplicate(t *testing.T) {
	jar := state.NewJar()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Add("Cookie", "a=1; a=2")

	got, err := jar.Parse(r)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(got["a"], []any{"1", "2"}) {
		t.Errorf("a = %v, want [1 2]", got["a"])
	}
}

func TestFormat_Undeclared(t *testing.T) {
	jar := state.NewJar()

	c, err := jar.Format("plain", "value")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if c.Value != "value" || !c.HttpOnly || c.Path != "/" {
		t.Errorf("Format() = %+v, want default definition", c)
	}

	if _, err := jar.Format("plain", "has space"); err == nil {
		t.Error("Format(invalid value) error = nil, want error")
	}
	if _, err := jar.Format("plain", 42); err == nil {
		t.Error("Format(non-string) error = nil, want error")
	}
}
