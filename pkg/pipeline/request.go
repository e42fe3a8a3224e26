package pipeline

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/route-tour/pkg/payload"
)

type requestKey struct{}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method      string
	Path        string
	Description string
	Tags        []string
}

// Request is the per-request object passed to extensions and handlers.
// Params, Query and Payload hold validated values once validation has run.
type Request struct {
	ID       string
	Method   string
	Path     string
	Params   map[string]any
	Query    map[string]any
	Payload  any
	State    map[string]any
	Response *Response
	Received time.Time
	Raw      *http.Request

	route  *RouteInfo
	server *Server
	opened io.Closer
	span   trace.Span
	logger *slog.Logger
}

func newRequest(s *Server, r *http.Request, span trace.Span) *Request {
	id := uuid.NewString()
	return &Request{
		ID:       id,
		Method:   r.Method,
		Path:     r.URL.Path,
		Params:   make(map[string]any),
		Query:    payload.Values(r.URL.Query()),
		State:    make(map[string]any),
		Received: time.Now(),
		Raw:      r,
		server:   s,
		span:     span,
		logger:   s.logger.With("request_id", id),
	}
}

func withRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

// FromContext returns the request bound to ctx by the pipeline.
func FromContext(ctx context.Context) (*Request, bool) {
	req, ok := ctx.Value(requestKey{}).(*Request)
	return req, ok
}

// Context returns the request context.
func (r *Request) Context() context.Context {
	return r.Raw.Context()
}

// Route returns the matched route, or nil before routing and for unmatched requests.
func (r *Request) Route() *RouteInfo {
	return r.route
}

// Logger returns a logger tagged with the request ID.
func (r *Request) Logger() *slog.Logger {
	return r.logger
}

// Log emits a log event tied to this request.
func (r *Request) Log(tags []string, data any) {
	r.server.emit(Event{
		Type:      EventLog,
		Timestamp: time.Now(),
		Tags:      tags,
		Data:      data,
		RequestID: r.ID,
	})
}

// SetURL rewrites the request path and query. Only effective during onRequest.
func (r *Request) SetURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	raw := r.Raw.Clone(r.Raw.Context())
	raw.URL.Path = u.Path
	raw.URL.RawPath = u.RawPath
	raw.URL.RawQuery = u.RawQuery
	raw.RequestURI = u.RequestURI()

	r.Raw = raw
	r.Path = u.Path
	r.Query = payload.Values(u.Query())
	return nil
}

// SetMethod rewrites the request method. Only effective during onRequest.
func (r *Request) SetMethod(method string) {
	raw := r.Raw.Clone(r.Raw.Context())
	raw.Method = method
	r.Raw = raw
	r.Method = method
}
