package main

import (
	"github.com/JaimeStill/route-tour/internal/config"
	"github.com/JaimeStill/route-tour/pkg/middleware"
)

// buildMiddleware creates the outer middleware stack: panic recovery, CORS
// and optional trailing slash removal.
func buildMiddleware(runtime *Runtime, cfg *config.Config) middleware.System {
	mw := middleware.New()
	mw.Use(middleware.Recoverer(runtime.Logger))
	mw.Use(middleware.CORS(&cfg.CORS))
	if cfg.Router.StripTrailingSlash {
		mw.Use(middleware.TrimSlash())
	}
	return mw
}
