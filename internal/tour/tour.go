// Package tour is the route tour itself: its cookie definitions, its route
// table and the lifecycle extensions that log every stage and render errors
// as HTML.
package tour

import (
	"fmt"
	"io/fs"

	"github.com/JaimeStill/route-tour/internal/config"
	"github.com/JaimeStill/route-tour/pkg/pipeline"
	"github.com/JaimeStill/route-tour/pkg/state"
	"github.com/JaimeStill/route-tour/pkg/web"
)

// Cookie names.
const (
	CookieTest = "test"
	CookieJSON = "jsoncookiekey"
)

// ErrorView names the view that error responses are rendered with.
const ErrorView = "error"

// DefineCookies declares the tour's cookies on jar.
func DefineCookies(jar *state.Jar, cfg *config.CookiesConfig) error {
	if err := jar.Define(CookieTest, state.Definition{
		TTL:      cfg.TTLDuration(),
		HTTPOnly: true,
		Secure:   cfg.IsSecure(),
		SameSite: cfg.SameSiteMode(),
		Path:     "/",
		Encoding: state.EncodingIron,
		Password: cfg.Password,
	}); err != nil {
		return fmt.Errorf("define %s cookie: %w", CookieTest, err)
	}

	if err := jar.Define(CookieJSON, state.Definition{
		Path:     "/",
		Encoding: state.EncodingBase64JSON,
	}); err != nil {
		return fmt.Errorf("define %s cookie: %w", CookieJSON, err)
	}

	return nil
}

// Register mounts the tour routes and extensions on srv. public is the root
// of the static directory and must contain hapi.png.
func Register(srv *pipeline.Server, public fs.FS, opts ...web.DirectoryOption) error {
	h := NewHandler(web.NewDirectory(public, opts...))

	if err := srv.Route(h.Routes()...); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	for _, stage := range pipeline.Stages {
		if err := srv.Ext(stage, logStage(stage)); err != nil {
			return fmt.Errorf("register %s extension: %w", stage, err)
		}
	}

	if err := srv.Ext(pipeline.OnPreResponse, renderErrors); err != nil {
		return fmt.Errorf("register error view extension: %w", err)
	}

	return nil
}
