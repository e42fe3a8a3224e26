// Package payload reads and parses request bodies according to per-route options.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/docker/go-units"

	"github.com/JaimeStill/route-tour/pkg/httperrors"
)

// DefaultMaxBytes is the body limit applied when Options.MaxBytes is zero.
// Sizes are decimal, matching units.FromHumanSize, so "1MB" is this value.
const DefaultMaxBytes int64 = units.MB

// Supported media types.
const (
	MediaJSON = "application/json"
	MediaForm = "application/x-www-form-urlencoded"
	MediaText = "text/plain"
	MediaRaw  = "application/octet-stream"
)

// Options control how a route accepts its payload.
type Options struct {
	// Allow restricts the accepted media types. Empty accepts every supported type.
	Allow []string
	// MaxBytes limits the body size.
	MaxBytes int64
}

// Merge fills zero fields from defaults.
func (o Options) Merge(defaults Options) Options {
	if o.MaxBytes == 0 {
		o.MaxBytes = defaults.MaxBytes
	}
	if len(o.Allow) == 0 {
		o.Allow = defaults.Allow
	}
	return o
}

// Parse reads the request body and decodes it based on its content type.
// An empty body parses to nil. Missing content types are treated as JSON.
func Parse(r *http.Request, opts Options) (any, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if r.ContentLength > limit {
		return nil, tooLarge(limit)
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, httperrors.Wrap(err, http.StatusBadRequest, "Failed to read request payload")
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(limit)
	}
	if len(data) == 0 {
		return nil, nil
	}

	mediaType := MediaJSON
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, httperrors.UnsupportedMediaType("Invalid content-type header")
		}
		mediaType = mt
	}

	if len(opts.Allow) > 0 && !slices.Contains(opts.Allow, mediaType) {
		return nil, httperrors.UnsupportedMediaType("Unsupported Media Type")
	}

	switch {
	case mediaType == MediaJSON || strings.HasSuffix(mediaType, "+json"):
		return parseJSON(data)
	case mediaType == MediaForm:
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, httperrors.Wrap(err, http.StatusBadRequest, "Invalid request payload format")
		}
		return Values(values), nil
	case strings.HasPrefix(mediaType, "text/"):
		return string(data), nil
	case mediaType == MediaRaw:
		return data, nil
	default:
		return nil, httperrors.UnsupportedMediaType("Unsupported Media Type")
	}
}

// Values flattens url.Values into a map where single values are strings and
// repeated values are string slices.
func Values(values url.Values) map[string]any {
	result := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			result[k] = v[0]
		} else {
			result[k] = v
		}
	}
	return result
}

// ParseSize converts a human readable size such as "1MB" to bytes.
func ParseSize(size string) (int64, error) {
	n, err := units.FromHumanSize(size)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive: %s", size)
	}
	return n, nil
}

func parseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, httperrors.Wrap(err, http.StatusBadRequest, "Invalid request payload JSON format")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, httperrors.BadRequest("Invalid request payload JSON format")
	}
	return v, nil
}

func tooLarge(limit int64) error {
	return httperrors.EntityTooLarge(fmt.Sprintf(
		"Payload content length greater than maximum allowed: %d (%s)",
		limit, units.HumanSize(float64(limit)),
	))
}
