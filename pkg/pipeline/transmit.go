package pipeline

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"

	"github.com/JaimeStill/route-tour/pkg/httperrors"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// transmit writes the final response. Failures past this point can no longer
// reach onPreResponse and are sent as plain error payloads.
func (s *Server) transmit(w http.ResponseWriter, req *Request) {
	resp := req.Response

	cookies := make([]*http.Cookie, 0, len(resp.cookies))
	for _, c := range resp.cookies {
		cookie, err := s.jar.Format(c.name, c.value)
		if err != nil {
			s.sendError(w, req, httperrors.Internal(err))
			return
		}
		cookies = append(cookies, cookie)
	}

	header := w.Header()
	for key, values := range resp.headers {
		for _, v := range values {
			header.Add(key, v)
		}
	}
	for _, c := range cookies {
		http.SetCookie(w, c)
	}

	switch {
	case resp.err != nil:
		s.sendError(w, req, resp.err)

	case resp.view != "":
		if s.views == nil {
			s.sendError(w, req, httperrors.Internal(errors.New("no view renderer configured")))
			return
		}
		if err := s.views.Render(w, resp.status, resp.view, resp.viewContext); err != nil {
			s.sendError(w, req, httperrors.Internal(err))
		}

	case resp.file != "":
		if openFile(req); req.Response != resp {
			s.sendError(w, req, req.Response.Err())
			return
		}
		if resp.contentType != "" {
			header.Set("Content-Type", resp.contentType)
		}
		http.ServeContent(w, req.Raw, path.Base(resp.file), resp.modTime, resp.content)

	default:
		body, contentType, err := encode(resp.source)
		if err != nil {
			s.sendError(w, req, httperrors.Internal(err))
			return
		}
		if resp.contentType != "" {
			contentType = resp.contentType
		}
		if contentType != "" {
			header.Set("Content-Type", contentType)
		}
		w.WriteHeader(resp.status)
		if len(body) > 0 {
			w.Write(body)
		}
	}
}

func (s *Server) sendError(w http.ResponseWriter, req *Request, e *httperrors.Error) {
	if e.IsServer() {
		req.logger.Error("request failed", "path", req.Path, "status", e.Code, "error", e)
	}
	e.WriteJSON(w)
}

func encode(source any) ([]byte, string, error) {
	switch v := source.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(v), "text/html; charset=utf-8", nil
	case []byte:
		return v, "application/octet-stream", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json; charset=utf-8", nil
	}
}
