// Package web embeds the view templates and public assets served by the tour.
package web

import (
	"embed"
	"io/fs"

	pkgweb "github.com/JaimeStill/route-tour/pkg/web"
)

//go:embed views/layouts/*.html views/*.html
var viewFS embed.FS

//go:embed public
var publicFS embed.FS

// Layout is the template executed for every view.
const Layout = "layout.html"

var views = []pkgweb.ViewDef{
	{Template: "home.html", Title: "Home"},
	{Template: "error.html", Title: "Error"},
}

// Views parses the embedded views inside the shared layout.
func Views() (*pkgweb.TemplateSet, error) {
	return pkgweb.NewTemplateSet(viewFS, "views/layouts/*.html", "views", Layout, views)
}

// Public returns the embedded public directory rooted at its contents.
func Public() fs.FS {
	sub, err := fs.Sub(publicFS, "public")
	if err != nil {
		panic(err)
	}
	return sub
}
