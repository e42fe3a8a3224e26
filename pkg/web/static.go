package web

import (
	"errors"
	"io/fs"
	"path"
	"strings"

	"github.com/JaimeStill/route-tour/pkg/httperrors"
)

// Directory resolves request paths to files under a root file system.
type Directory struct {
	root       fs.FS
	index      string
	showHidden bool
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithIndex sets the file served for directory requests. Empty disables indexes.
func WithIndex(name string) DirectoryOption {
	return func(d *Directory) {
		d.index = name
	}
}

// WithHidden allows serving dot-prefixed files and directories.
func WithHidden() DirectoryOption {
	return func(d *Directory) {
		d.showHidden = true
	}
}

// NewDirectory creates a Directory over root serving index.html for directories.
func NewDirectory(root fs.FS, opts ...DirectoryOption) *Directory {
	d := &Directory{root: root, index: "index.html"}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FS returns the root file system.
func (d *Directory) FS() fs.FS {
	return d.root
}

// Resolve maps a slash separated request path to a file name in the root.
// Missing and hidden files are 404 errors; directories without an index are 403.
func (d *Directory) Resolve(p string) (string, error) {
	name := strings.Trim(path.Clean("/"+p), "/")
	if name == "" {
		name = "."
	}

	if !fs.ValidPath(name) {
		return "", httperrors.NotFound("")
	}
	if !d.showHidden && hidden(name) {
		return "", httperrors.NotFound("")
	}

	info, err := fs.Stat(d.root, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", httperrors.NotFound("")
		}
		return "", httperrors.Internal(err)
	}

	if !info.IsDir() {
		return name, nil
	}

	if d.index == "" {
		return "", httperrors.Forbidden("")
	}
	index := path.Join(name, d.index)
	if info, err := fs.Stat(d.root, index); err != nil || info.IsDir() {
		return "", httperrors.Forbidden("")
	}
	return index, nil
}

func hidden(name string) bool {
	for _, segment := range strings.Split(name, "/") {
		if strings.HasPrefix(segment, ".") && segment != "." {
			return true
		}
	}
	return false
}
