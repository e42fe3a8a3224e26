package tour

import (
	"github.com/JaimeStill/route-tour/pkg/pipeline"
)

// TagExt marks the log events emitted by stage extensions.
const TagExt = "ext"

func logStage(stage pipeline.Stage) pipeline.Ext {
	return func(req *pipeline.Request) error {
		req.Log([]string{TagExt, string(stage)}, string(stage))
		return nil
	}
}

// renderErrors replaces JSON error payloads with the error view, keeping the
// error's status code.
func renderErrors(req *pipeline.Request) error {
	if req.Response == nil || !req.Response.IsError() {
		return nil
	}

	p := req.Response.Err().Payload()
	req.Response = pipeline.View(ErrorView, p).Code(p.StatusCode)
	return nil
}
