package pipeline

import (
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/JaimeStill/route-tour/pkg/httperrors"
)

type cookieValue struct {
	name  string
	value any
}

// Response describes what a handler or extension replies with. Exactly one of
// source, view, file or error is transmitted.
type Response struct {
	status      int
	source      any
	contentType string
	headers     http.Header
	cookies     []cookieValue
	view        string
	viewContext any
	fsys        fs.FS
	file        string
	content     io.ReadSeeker
	modTime     time.Time
	err         *httperrors.Error
}

// Reply creates a 200 response for source. Strings are sent as HTML, byte
// slices as binary, nil as an empty body and anything else as JSON. An error
// source produces an error response.
func Reply(source any) *Response {
	if err, ok := source.(error); ok {
		return Error(err)
	}
	return &Response{
		status:  http.StatusOK,
		source:  source,
		headers: make(http.Header),
	}
}

// View creates a response rendering the named view with context.
func View(name string, context any) *Response {
	return &Response{
		status:      http.StatusOK,
		view:        name,
		viewContext: context,
		headers:     make(http.Header),
	}
}

// File creates a response serving name from fsys.
func File(fsys fs.FS, name string) *Response {
	return &Response{
		status:  http.StatusOK,
		fsys:    fsys,
		file:    name,
		headers: make(http.Header),
	}
}

// Error creates an error response. Errors that are not error objects become 500s.
func Error(err error) *Response {
	e := httperrors.From(err)
	return &Response{
		status:  e.Code,
		err:     e,
		headers: make(http.Header),
	}
}

// Code sets the status code.
func (r *Response) Code(status int) *Response {
	r.status = status
	return r
}

// Type sets the Content-Type header.
func (r *Response) Type(contentType string) *Response {
	r.contentType = contentType
	return r
}

// Header adds a response header.
func (r *Response) Header(key, value string) *Response {
	r.headers.Add(key, value)
	return r
}

// State sets a cookie. The value is encoded by the cookie's definition.
func (r *Response) State(name string, value any) *Response {
	r.cookies = append(r.cookies, cookieValue{name: name, value: value})
	return r
}

// IsError reports whether the response is an error object.
func (r *Response) IsError() bool {
	return r.err != nil
}

// Err returns the error object, or nil for regular responses.
func (r *Response) Err() *httperrors.Error {
	return r.err
}

// StatusCode returns the status code the response will be sent with.
func (r *Response) StatusCode() int {
	return r.status
}

// Source returns the value being replied with.
func (r *Response) Source() any {
	return r.source
}

// ViewName returns the view being rendered, if any.
func (r *Response) ViewName() string {
	return r.view
}

// Headers returns the headers added to the response.
func (r *Response) Headers() http.Header {
	return r.headers
}
