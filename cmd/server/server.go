package main

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/JaimeStill/route-tour/internal/config"
	"github.com/JaimeStill/route-tour/internal/server"
	"github.com/JaimeStill/route-tour/internal/tour"
	"github.com/JaimeStill/route-tour/pkg/payload"
	"github.com/JaimeStill/route-tour/pkg/pipeline"
	"github.com/JaimeStill/route-tour/pkg/routes"
	"github.com/JaimeStill/route-tour/pkg/state"
	pkgweb "github.com/JaimeStill/route-tour/pkg/web"
	"github.com/JaimeStill/route-tour/web"
)

// Server coordinates the lifecycle of all subsystems.
type Server struct {
	runtime *Runtime
	http    server.System
}

// NewServer creates and initializes the service with all subsystems.
func NewServer(cfg *config.Config) (*Server, error) {
	runtime := NewRuntime(cfg)

	p, err := buildPipeline(runtime, cfg)
	if err != nil {
		return nil, err
	}

	routeSys := routes.New()
	registerRoutes(routeSys, runtime, cfg)

	handler := buildMiddleware(runtime, cfg).Apply(routeSys.Build(p))

	runtime.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
	)

	return &Server{
		runtime: runtime,
		http:    server.New(&cfg.Server, handler, runtime.Logger),
	}, nil
}

// Start begins all subsystems and returns once the listener is bound.
func (s *Server) Start() error {
	s.runtime.Logger.Info("starting service")

	s.runtime.Start()

	if err := s.http.Start(s.runtime.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.runtime.Lifecycle.WaitForStartup()
		s.runtime.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown gracefully stops all subsystems within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.runtime.Logger.Info("initiating shutdown")
	return s.runtime.Lifecycle.Shutdown(timeout)
}

// buildPipeline assembles the request pipeline with the tour mounted on it.
func buildPipeline(runtime *Runtime, cfg *config.Config) (*pipeline.Server, error) {
	jar := state.NewJar()
	if err := tour.DefineCookies(jar, &cfg.Cookies); err != nil {
		return nil, err
	}

	views, err := web.Views()
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}

	opts := []pipeline.Option{
		pipeline.WithStateJar(jar),
		pipeline.WithViews(views),
		pipeline.WithPayload(payload.Options{MaxBytes: cfg.Payload.MaxBytesValue()}),
		pipeline.WithObserver(runtime.Reporter),
	}
	if runtime.Metrics != nil {
		opts = append(opts, pipeline.WithObserver(runtime.Metrics))
	}

	runtime.Logger.Info("cookies defined", "names", jar.Names())

	var dirOpts []pkgweb.DirectoryOption
	if cfg.Static.ShowHidden {
		dirOpts = append(dirOpts, pkgweb.WithHidden())
	}

	p := pipeline.New(runtime.Logger, opts...)
	if err := tour.Register(p, publicFS(cfg), dirOpts...); err != nil {
		return nil, err
	}

	return p, nil
}

func publicFS(cfg *config.Config) fs.FS {
	if cfg.Static.Dir != "" {
		return os.DirFS(cfg.Static.Dir)
	}
	return web.Public()
}
