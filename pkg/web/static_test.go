package web_test

import (
	"net/http"
	"testing"
	"testing/fstest"

	"github.com/JaimeStill/route-tour/pkg/httperrors"
	"github.com/JaimeStill/route-tour/pkg/web"
)

func publicFS() fstest.MapFS {
	return fstest.MapFS{
		"hapi.png":         {Data: []byte("png")},
		"css/site.css":     {Data: []byte("body{}")},
		"docs/index.html":  {Data: []byte("docs")},
		"empty/.keep":      {Data: []byte("")},
		".secret":          {Data: []byte("hidden")},
		"nested/.git/HEAD": {Data: []byte("ref")},
	}
}

func TestDirectory_Resolve(t *testing.T) {
	dir := web.NewDirectory(publicFS())

	tests := []struct {
		name   string
		path   string
		want   string
		status int
	}{
		{"file", "hapi.png", "hapi.png", 0},
		{"nested file", "css/site.css", "css/site.css", 0},
		{"leading slash", "/css/site.css", "css/site.css", 0},
		{"index", "docs", "docs/index.html", 0},
		{"index trailing slash", "docs/", "docs/index.html", 0},
		{"traversal cleaned", "../../hapi.png", "hapi.png", 0},
		{"missing", "nope.txt", "", http.StatusNotFound},
		{"hidden file", ".secret", "", http.StatusNotFound},
		{"hidden dir", "nested/.git/HEAD", "", http.StatusNotFound},
		{"directory without index", "empty", "", http.StatusForbidden},
		{"root without index", "", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dir.Resolve(tt.path)
			if tt.status != 0 {
				e := httperrors.From(err)
				if e == nil || e.Code != tt.status {
					t.Fatalf("Resolve(%q) error = %v, want status %d", tt.path, err, tt.status)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestDirectory_Options(t *testing.T) {
	dir := web.NewDirectory(publicFS(), web.WithHidden(), web.WithIndex(""))

	if got, err := dir.Resolve(".secret"); err != nil || got != ".secret" {
		t.Errorf("Resolve(.secret) = %q, %v, want .secret", got, err)
	}

	_, err := dir.Resolve("docs")
	if e := httperrors.From(err); e == nil || e.Code != http.StatusForbidden {
		t.Errorf("Resolve(docs) error = %v, want 403", err)
	}
}
