// Package web provides infrastructure for rendering named views inside a
// shared layout and for serving static files and directories from an fs.FS.
// Views are pre-parsed at startup, so a broken template fails fast.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// ViewDef names a view and the template file that defines its content.
type ViewDef struct {
	Name     string
	Template string
	Title    string
}

// ViewData contains the data passed to the layout during rendering.
// Templates reach the view context through {{ .Context }}.
type ViewData struct {
	Title   string
	Context any
}

// TemplateSet holds pre-parsed views, each cloned from the shared layouts.
type TemplateSet struct {
	views  map[string]*template.Template
	titles map[string]string
	layout string
}

// NewTemplateSet parses the layouts matched by layoutGlob and clones them for
// every view found under viewDir. The layout named by layout is the entry
// point executed by Render; it pulls in the view through {{ template "content" . }}.
func NewTemplateSet(fsys fs.FS, layoutGlob, viewDir, layout string, views []ViewDef) (*TemplateSet, error) {
	layouts, err := template.ParseFS(fsys, layoutGlob)
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}
	if layouts.Lookup(layout) == nil {
		return nil, fmt.Errorf("layout not found: %s", layout)
	}

	viewSub, err := fs.Sub(fsys, viewDir)
	if err != nil {
		return nil, err
	}

	ts := &TemplateSet{
		views:  make(map[string]*template.Template, len(views)),
		titles: make(map[string]string, len(views)),
		layout: layout,
	}

	for _, v := range views {
		t, err := layouts.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layouts for %s: %w", v.Template, err)
		}
		if _, err := t.ParseFS(viewSub, v.Template); err != nil {
			return nil, fmt.Errorf("parse template: %s: %w", v.Template, err)
		}
		name := v.Name
		if name == "" {
			name = strings.TrimSuffix(v.Template, path.Ext(v.Template))
		}
		ts.views[name] = t
		ts.titles[name] = v.Title
	}

	return ts, nil
}

// Has reports whether a view is registered under name.
func (ts *TemplateSet) Has(name string) bool {
	_, ok := ts.views[name]
	return ok
}

// Render executes the layout for the named view with the given context and
// writes the result with the given status. Nothing is written on failure.
func (ts *TemplateSet) Render(w http.ResponseWriter, status int, name string, context any) error {
	t, ok := ts.views[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	data := ViewData{Title: ts.titles[name], Context: context}
	if err := t.ExecuteTemplate(&buf, ts.layout, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
