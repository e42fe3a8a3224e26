// Package pipeline runs HTTP requests through a fixed sequence of lifecycle
// stages around route handlers dispatched by chi.
//
// The stages are:
//
//	onRequest      before routing; may rewrite the method or URL
//	               (routing, cookie parsing)
//	onPreAuth
//	               (payload parsing)
//	onPostAuth
//	               (params, query and payload validation)
//	onPreHandler
//	               (handler)
//	onPostHandler
//	onPreResponse  always runs, also for errors and unmatched routes
//
// An extension continues the request by returning nil. Returning an error
// converts it into an error response and skips straight to onPreResponse.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/route-tour/pkg/httperrors"
	"github.com/JaimeStill/route-tour/pkg/payload"
	"github.com/JaimeStill/route-tour/pkg/schema"
	"github.com/JaimeStill/route-tour/pkg/state"
)

const tracerName = "github.com/JaimeStill/route-tour/pkg/pipeline"

// Stage names a lifecycle extension point.
type Stage string

// Lifecycle stages in execution order.
const (
	OnRequest     Stage = "onRequest"
	OnPreAuth     Stage = "onPreAuth"
	OnPostAuth    Stage = "onPostAuth"
	OnPreHandler  Stage = "onPreHandler"
	OnPostHandler Stage = "onPostHandler"
	OnPreResponse Stage = "onPreResponse"
)

// Stages lists every stage in execution order.
var Stages = []Stage{OnRequest, OnPreAuth, OnPostAuth, OnPreHandler, OnPostHandler, OnPreResponse}

// ErrTakeover lets an extension end the lifecycle early with the response it
// assigned to Request.Response.
var ErrTakeover = errors.New("takeover")

var supportedMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// Ext is a lifecycle extension.
type Ext func(req *Request) error

// Handler replies to a routed request.
type Handler func(req *Request) (*Response, error)

// Renderer renders named views.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, context any) error
}

// Validate holds the schemas applied before the handler runs.
type Validate struct {
	Params  schema.Schema
	Query   schema.Schema
	Payload schema.Schema
}

// Route maps methods and a path to a handler. Tags are copied onto the
// response events of requests the route serves.
type Route struct {
	Methods     []string
	Path        string
	Description string
	Tags        []string
	Handler     Handler
	Validate    Validate
	Payload     payload.Options
}

type entry struct {
	method  string
	pattern string
	derived bool
	route   *Route
	extract func(r *http.Request) map[string]any
}

// Option configures a Server.
type Option func(*Server)

// WithStateJar sets the cookie definitions used to parse and format cookies.
func WithStateJar(jar *state.Jar) Option {
	return func(s *Server) {
		s.jar = jar
	}
}

// WithViews sets the renderer used for view responses.
func WithViews(views Renderer) Option {
	return func(s *Server) {
		s.views = views
	}
}

// WithObserver adds an event observer.
func WithObserver(o Observer) Option {
	return func(s *Server) {
		s.observers = append(s.observers, o)
	}
}

// WithPayload sets the payload defaults applied to every route.
func WithPayload(opts payload.Options) Option {
	return func(s *Server) {
		s.payload = opts
	}
}

// WithTracer replaces the tracer resolved from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// Server owns the route table, the lifecycle extensions and the chi mux built
// from them. Routes and extensions must be registered before the first request.
type Server struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	jar       *state.Jar
	views     Renderer
	observers []Observer
	payload   payload.Options

	mu      sync.Mutex
	exts    map[Stage][]Ext
	entries map[string]*entry
	order   []string
	table   []RouteInfo
	built   bool

	once sync.Once
	mux  *chi.Mux
}

// New creates a Server.
func New(logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		logger:  logger.With("system", "pipeline"),
		tracer:  otel.Tracer(tracerName),
		jar:     state.NewJar(),
		payload: payload.Options{MaxBytes: payload.DefaultMaxBytes},
		exts:    make(map[Stage][]Ext),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ext registers an extension for a stage. Extensions of one stage run in
// registration order.
func (s *Server) Ext(stage Stage, ext Ext) error {
	if !slices.Contains(Stages, stage) {
		return fmt.Errorf("unknown stage: %s", stage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.built {
		return fmt.Errorf("cannot add %s extension after the server started", stage)
	}
	s.exts[stage] = append(s.exts[stage], ext)
	return nil
}

// Route registers routes. Precedence between routes is decided by path
// specificity, not by registration order.
func (s *Server) Route(routes ...Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.built {
		return errors.New("cannot add routes after the server started")
	}

	for i := range routes {
		rt := routes[i]
		if rt.Handler == nil {
			return fmt.Errorf("route %s: handler required", rt.Path)
		}
		if len(rt.Methods) == 0 {
			return fmt.Errorf("route %s: at least one method required", rt.Path)
		}

		variants, err := compilePath(rt.Path)
		if err != nil {
			return err
		}

		for _, method := range rt.Methods {
			method = strings.ToUpper(method)
			if !slices.Contains(supportedMethods, method) {
				return fmt.Errorf("route %s: unsupported method %s", rt.Path, method)
			}
			for _, v := range variants {
				if err := s.add(&entry{
					method:  method,
					pattern: v.pattern,
					derived: v.derived,
					route:   &rt,
					extract: v.extract,
				}); err != nil {
					return err
				}
			}
			s.table = append(s.table, RouteInfo{Method: method, Path: rt.Path, Description: rt.Description, Tags: rt.Tags})
		}
	}
	return nil
}

// add stores an entry. Explicit patterns replace derived ones; two explicit
// routes claiming the same method and pattern conflict.
func (s *Server) add(e *entry) error {
	key := e.method + " " + e.pattern
	existing, ok := s.entries[key]
	switch {
	case !ok:
		s.order = append(s.order, key)
		s.entries[key] = e
	case existing.derived && !e.derived:
		s.entries[key] = e
	case !existing.derived && !e.derived:
		return fmt.Errorf("route %s %s conflicts with %s %s", e.method, e.route.Path, existing.method, existing.route.Path)
	}
	return nil
}

// Table returns the registered routes sorted by path, then method.
func (s *Server) Table() []RouteInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := slices.Clone(s.table)
	slices.SortFunc(table, func(a, b RouteInfo) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	return table
}

// Log emits a server log event.
func (s *Server) Log(tags []string, data any) {
	s.emit(Event{
		Type:      EventLog,
		Timestamp: time.Now(),
		Tags:      tags,
		Data:      data,
	})
}

func (s *Server) emit(e Event) {
	for _, o := range s.observers {
		o.Observe(e)
	}
}

func (s *Server) build() {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := chi.NewRouter()
	mux.NotFound(s.notFound)
	mux.MethodNotAllowed(s.notFound)

	for _, key := range s.order {
		e := s.entries[key]
		mux.MethodFunc(e.method, e.pattern, s.endpoint(e))
		if e.method == http.MethodGet {
			if _, explicit := s.entries[http.MethodHead+" "+e.pattern]; !explicit {
				mux.MethodFunc(http.MethodHead, e.pattern, s.endpoint(e))
			}
		}
	}

	s.mux = mux
	s.built = true
}

// ServeHTTP runs the request through the lifecycle and transmits the response.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.once.Do(s.build)

	ctx, span := s.tracer.Start(r.Context(), "pipeline.request",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		),
	)
	defer span.End()

	req := newRequest(s, r.WithContext(ctx), span)
	span.SetAttributes(attribute.String("request.id", req.ID))

	if err := s.runExts(req, OnRequest); err != nil {
		req.fail(err)
	} else {
		req.Raw = req.Raw.WithContext(withRequest(req.Raw.Context(), req))
		s.mux.ServeHTTP(w, req.Raw)
	}

	s.respond(w, req)
}

func (s *Server) endpoint(e *entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := FromContext(r.Context())
		if !ok {
			s.logger.Error("request not bound to context", "path", r.URL.Path)
			return
		}
		req.Raw = r
		req.route = &RouteInfo{Method: e.method, Path: e.route.Path, Description: e.route.Description, Tags: e.route.Tags}
		req.Params = e.extract(r)
		req.span.SetAttributes(attribute.String("http.route", e.route.Path))

		if err := s.lifecycle(req, e.route); err != nil {
			req.fail(err)
		}
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if req, ok := FromContext(r.Context()); ok {
		req.Response = Error(httperrors.NotFound(""))
	}
}

func (s *Server) lifecycle(req *Request, rt *Route) error {
	st, err := s.jar.Parse(req.Raw)
	if err != nil {
		return err
	}
	req.State = st

	if err := s.runExts(req, OnPreAuth); err != nil {
		return err
	}

	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		p, err := payload.Parse(req.Raw, rt.Payload.Merge(s.payload))
		if err != nil {
			return err
		}
		req.Payload = p
	}

	if err := s.runExts(req, OnPostAuth); err != nil {
		return err
	}

	if err := validate(req, rt.Validate); err != nil {
		return err
	}

	if err := s.runExts(req, OnPreHandler); err != nil {
		return err
	}

	var resp *Response
	err = s.safely(req, func() error {
		var herr error
		resp, herr = rt.Handler(req)
		return herr
	})
	if err != nil {
		return err
	}
	if resp == nil {
		resp = Reply(nil)
	}
	req.Response = resp

	return s.runExts(req, OnPostHandler)
}

func validate(req *Request, v Validate) error {
	if v.Params != nil {
		out, err := v.Params.Validate(req.Params)
		if err != nil {
			return invalid(err)
		}
		if m, ok := out.(map[string]any); ok {
			req.Params = m
		}
	}
	if v.Query != nil {
		out, err := v.Query.Validate(req.Query)
		if err != nil {
			return invalid(err)
		}
		if m, ok := out.(map[string]any); ok {
			req.Query = m
		}
	}
	if v.Payload != nil {
		out, err := v.Payload.Validate(req.Payload)
		if err != nil {
			return invalid(err)
		}
		req.Payload = out
	}
	return nil
}

func invalid(err error) error {
	return httperrors.Wrap(err, http.StatusBadRequest, err.Error())
}

func (s *Server) runExts(req *Request, stage Stage) error {
	req.span.AddEvent(string(stage))
	for _, ext := range s.exts[stage] {
		if err := s.safely(req, func() error { return ext(req) }); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) safely(req *Request, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			req.logger.Error("panic recovered",
				"panic", rvr,
				"path", req.Path,
				"stack", string(debug.Stack()),
			)
			err = httperrors.Internal(fmt.Errorf("panic: %v", rvr))
		}
	}()
	return fn()
}

func (s *Server) respond(w http.ResponseWriter, req *Request) {
	if req.Response == nil {
		req.Response = Error(httperrors.Internal(errors.New("request produced no response")))
	}

	openFile(req)
	defer func() {
		if req.opened != nil {
			req.opened.Close()
		}
	}()

	if err := s.runExts(req, OnPreResponse); err != nil && !errors.Is(err, ErrTakeover) {
		req.Response = Error(err)
	}

	sw := &statusWriter{ResponseWriter: w}
	s.transmit(sw, req)

	status := sw.Status()
	req.span.SetAttributes(attribute.Int("http.status_code", status))
	if status >= http.StatusInternalServerError {
		req.span.SetStatus(codes.Error, http.StatusText(status))
	}

	var (
		routePath string
		tags      []string
	)
	if req.route != nil {
		routePath = req.route.Path
		tags = req.route.Tags
	}
	s.emit(Event{
		Type:      EventResponse,
		Timestamp: time.Now(),
		Tags:      tags,
		RequestID: req.ID,
		Response: &ResponseEvent{
			Method:   req.Method,
			Path:     req.Path,
			Route:    routePath,
			Status:   status,
			Duration: time.Since(req.Received),
		},
	})
}

func (r *Request) fail(err error) {
	if errors.Is(err, ErrTakeover) && r.Response != nil {
		return
	}
	r.Response = Error(err)
}
