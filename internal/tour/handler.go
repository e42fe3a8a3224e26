package tour

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/route-tour/pkg/payload"
	"github.com/JaimeStill/route-tour/pkg/pipeline"
	"github.com/JaimeStill/route-tour/pkg/schema"
	"github.com/JaimeStill/route-tour/pkg/web"
)

// Logo is the image served by the file routes.
const Logo = "hapi.png"

// Route tags, carried by response events for reporter filtering.
const (
	TagAPI    = "api"
	TagStatic = "static"
	TagView   = "view"
)

// Handler serves the tour routes.
type Handler struct {
	public *web.Directory
}

// NewHandler creates a Handler serving static files from public.
func NewHandler(public *web.Directory) *Handler {
	return &Handler{public: public}
}

// Routes returns the tour's route table. Registration order does not matter;
// the most specific path wins.
func (h *Handler) Routes() []pipeline.Route {
	return []pipeline.Route{
		{
			Methods:     []string{http.MethodGet},
			Path:        "/hapi.png",
			Description: "Serve the logo from a handler",
			Tags:        []string{TagStatic},
			Handler:     h.logo,
		},
		{
			Methods:     []string{http.MethodGet},
			Path:        "/customFileHandler.png",
			Description: "Serve the logo with a file handler",
			Tags:        []string{TagStatic},
			Handler:     pipeline.FileHandler(h.public.FS(), Logo),
		},
		{
			Methods:     []string{http.MethodGet},
			Path:        "/{params*}",
			Description: "Serve unmatched paths from the public directory",
			Tags:        []string{TagStatic},
			Handler:     pipeline.DirectoryHandler(h.public, "params"),
		},
		{
			Methods:     []string{http.MethodGet},
			Path:        "/",
			Description: "Greet, echo request state and set cookies",
			Tags:        []string{TagAPI},
			Handler:     h.home,
		},
		{
			Methods:     []string{http.MethodGet},
			Path:        "/users/{userId?}",
			Description: "Echo path params",
			Tags:        []string{TagAPI},
			Handler:     h.params,
		},
		{
			Methods:     []string{http.MethodPost, http.MethodPut},
			Path:        "/users/{userId?}",
			Description: "Validate and echo a user",
			Tags:        []string{TagAPI},
			Handler:     h.saveUser,
			Validate: pipeline.Validate{
				Params: schema.Object(map[string]schema.Schema{
					"userId": schema.Number(),
				}),
				Payload: schema.Object(map[string]schema.Schema{
					"id":    schema.Number(),
					"email": schema.String(),
				}).Unknown(),
			},
		},
		{
			Methods:     []string{http.MethodGet},
			Path:        "/users/{userId}/files",
			Description: "Third route",
			Tags:        []string{TagAPI},
			Handler:     matched("third"),
		},
		{
			Methods:     []string{http.MethodGet},
			Path:        "/files/{file}.jpg",
			Description: "Forth route",
			Tags:        []string{TagAPI},
			Handler:     matched("forth"),
		},
		{
			Methods:     []string{http.MethodGet},
			Path:        "/files/{files*}",
			Description: "Fifth route",
			Tags:        []string{TagAPI},
			Handler:     matched("fifth"),
		},
		{
			Methods:     []string{http.MethodGet},
			Path:        "/files/{files*2}",
			Description: "Sixth route",
			Tags:        []string{TagAPI},
			Handler:     matched("sixth"),
		},
		{
			Methods:     []string{http.MethodGet},
			Path:        "/rendering/{name?}",
			Description: "Render the home view",
			Tags:        []string{TagView},
			Handler:     h.rendering,
		},
		{
			Methods:     []string{http.MethodPost, http.MethodPut},
			Path:        "/",
			Description: "Log and echo a JSON payload",
			Tags:        []string{TagAPI},
			Handler:     h.echo,
			Payload:     payload.Options{Allow: []string{payload.MediaJSON}},
		},
	}
}

func (h *Handler) logo(req *pipeline.Request) (*pipeline.Response, error) {
	return pipeline.ServeFile(h.public.FS(), Logo)
}

func (h *Handler) home(req *pipeline.Request) (*pipeline.Response, error) {
	req.Log([]string{"error"}, "Oh no!")
	req.Log([]string{"info"}, "replying...")
	req.Log([]string{"info"}, req.State)

	st, err := json.Marshal(req.State)
	if err != nil {
		return nil, err
	}

	return pipeline.Reply("Hello Hapi"+string(st)).
		Code(http.StatusTeapot).
		Type("text/plain; charset=utf-8").
		Header("hello", "world").
		State(CookieTest, "refreshedValue").
		State(CookieJSON, map[string]any{"name": "tony"}), nil
}

func (h *Handler) params(req *pipeline.Request) (*pipeline.Response, error) {
	return pipeline.Reply(req.Params), nil
}

func (h *Handler) saveUser(req *pipeline.Request) (*pipeline.Response, error) {
	return pipeline.Reply(map[string]any{
		"params":  req.Params,
		"query":   req.Query,
		"payload": req.Payload,
	}), nil
}

func (h *Handler) rendering(req *pipeline.Request) (*pipeline.Response, error) {
	name, _ := req.Params["name"].(string)
	if name == "" {
		name = "World"
	}
	return pipeline.View("home", map[string]any{"name": name}), nil
}

func (h *Handler) echo(req *pipeline.Request) (*pipeline.Response, error) {
	req.Log([]string{"info"}, req.Payload)
	return pipeline.Reply(req.Payload), nil
}

func matched(ordinal string) pipeline.Handler {
	return func(req *pipeline.Request) (*pipeline.Response, error) {
		params, err := json.Marshal(req.Params)
		if err != nil {
			return nil, err
		}
		return pipeline.Reply(ordinal + " route matched " + string(params)), nil
	}
}
