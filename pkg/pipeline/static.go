package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/JaimeStill/route-tour/pkg/httperrors"
	"github.com/JaimeStill/route-tour/pkg/web"
)

// FileHandler replies with a single file from fsys.
func FileHandler(fsys fs.FS, name string) Handler {
	return func(req *Request) (*Response, error) {
		return ServeFile(fsys, name)
	}
}

// ServeFile creates a file response, failing with 404 when the file is missing
// or is a directory.
func ServeFile(fsys fs.FS, name string) (*Response, error) {
	info, err := fs.Stat(fsys, name)
	if err != nil || info.IsDir() {
		return nil, httperrors.NotFound("")
	}
	return File(fsys, name), nil
}

// DirectoryHandler serves files from dir, reading the relative path from the
// named wildcard param.
func DirectoryHandler(dir *web.Directory, param string) Handler {
	return func(req *Request) (*Response, error) {
		p, _ := req.Params[param].(string)
		name, err := dir.Resolve(p)
		if err != nil {
			return nil, err
		}
		return File(dir.FS(), name), nil
	}
}

// openFile opens a file response ahead of onPreResponse so that missing files
// and unsatisfiable ranges reach the extensions as error responses.
func openFile(req *Request) {
	resp := req.Response
	if resp == nil || resp.file == "" || resp.content != nil {
		return
	}

	f, err := resp.fsys.Open(resp.file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			req.Response = Error(httperrors.NotFound(""))
		} else {
			req.Response = Error(httperrors.Internal(err))
		}
		return
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		req.Response = Error(httperrors.NotFound(""))
		return
	}

	content, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			req.Response = Error(httperrors.Internal(err))
			return
		}
		content = bytes.NewReader(data)
	} else {
		if req.opened != nil {
			req.opened.Close()
		}
		req.opened = f
	}

	if !satisfiable(req.Raw.Header.Get("Range"), info.Size()) {
		req.Response = Error(httperrors.New(http.StatusRequestedRangeNotSatisfiable, "")).
			Header("Content-Range", fmt.Sprintf("bytes */%d", info.Size()))
		return
	}

	resp.content = content
	resp.modTime = info.ModTime()
}

// satisfiable reports whether a Range header selects at least one byte range
// of a file of the given size. An absent header is satisfiable; a malformed
// one is not.
func satisfiable(header string, size int64) bool {
	if header == "" {
		return true
	}
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return false
	}

	found, overlap := false, false
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		first, last, ok := strings.Cut(part, "-")
		if !ok {
			return false
		}
		first, last = strings.TrimSpace(first), strings.TrimSpace(last)

		if first == "" {
			n, err := strconv.ParseInt(last, 10, 64)
			if err != nil || n < 0 {
				return false
			}
			found, overlap = true, true
			continue
		}

		start, err := strconv.ParseInt(first, 10, 64)
		if err != nil || start < 0 {
			return false
		}
		if last != "" {
			end, err := strconv.ParseInt(last, 10, 64)
			if err != nil || end < start {
				return false
			}
		}
		found = true
		if start < size {
			overlap = true
		}
	}
	return !found || overlap
}
