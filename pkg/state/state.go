// Package state manages cookie definitions. A Jar knows how each declared
// cookie is encoded, decodes incoming cookies into request state and formats
// outgoing values as Set-Cookie headers.
package state

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/JaimeStill/route-tour/pkg/httperrors"
	"github.com/JaimeStill/route-tour/pkg/iron"
)

// Encoding selects how a cookie value is serialized.
type Encoding string

// Cookie encodings.
const (
	EncodingNone       Encoding = "none"
	EncodingBase64     Encoding = "base64"
	EncodingBase64JSON Encoding = "base64json"
	EncodingIron       Encoding = "iron"
)

// Validate checks if the encoding is supported.
func (e Encoding) Validate() error {
	switch e {
	case EncodingNone, EncodingBase64, EncodingBase64JSON, EncodingIron:
		return nil
	default:
		return fmt.Errorf("invalid cookie encoding: %s (must be none, base64, base64json, or iron)", e)
	}
}

// Definition describes a declared cookie.
type Definition struct {
	TTL          time.Duration
	HTTPOnly     bool
	Secure       bool
	SameSite     http.SameSite
	Path         string
	Domain       string
	Encoding     Encoding
	Password     string
	IgnoreErrors bool

	sealer *iron.Sealer
}

// Jar holds cookie definitions keyed by cookie name.
type Jar struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewJar creates an empty jar.
func NewJar() *Jar {
	return &Jar{defs: make(map[string]*Definition)}
}

// Define registers the definition for the named cookie.
func (j *Jar) Define(name string, def Definition) error {
	if name == "" {
		return fmt.Errorf("cookie name required")
	}
	if def.Encoding == "" {
		def.Encoding = EncodingNone
	}
	if err := def.Encoding.Validate(); err != nil {
		return fmt.Errorf("cookie %s: %w", name, err)
	}
	if def.Encoding == EncodingIron {
		sealer, err := iron.New(def.Password, iron.WithTTL(def.TTL))
		if err != nil {
			return fmt.Errorf("cookie %s: %w", name, err)
		}
		def.sealer = sealer
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.defs[name] = &def
	return nil
}

// Names returns the declared cookie names in sorted order.
func (j *Jar) Names() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return slices.Sorted(maps.Keys(j.defs))
}

func (j *Jar) lookup(name string) (*Definition, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	def, ok := j.defs[name]
	return def, ok
}

// Parse decodes every cookie on the request. Undeclared cookies are returned
// as raw strings; a cookie sent more than once becomes a slice. A declared
// cookie that fails to decode yields a 400 unless its definition ignores errors.
func (j *Jar) Parse(r *http.Request) (map[string]any, error) {
	result := make(map[string]any)

	for _, c := range r.Cookies() {
		var value any = c.Value
		if def, ok := j.lookup(c.Name); ok {
			decoded, err := def.decode(c.Value)
			if err != nil {
				if def.IgnoreErrors {
					continue
				}
				return nil, httperrors.Wrap(err, http.StatusBadRequest, "Invalid cookie value")
			}
			value = decoded
		}

		switch existing := result[c.Name].(type) {
		case nil:
			result[c.Name] = value
		case []any:
			result[c.Name] = append(existing, value)
		default:
			result[c.Name] = []any{existing, value}
		}
	}

	return result, nil
}

// Format encodes value for the named cookie. Undeclared cookies use the
// default definition: no encoding, HTTP-only, path "/".
func (j *Jar) Format(name string, value any) (*http.Cookie, error) {
	def, ok := j.lookup(name)
	if !ok {
		def = &Definition{Encoding: EncodingNone, HTTPOnly: true, Path: "/"}
	}

	encoded, err := def.encode(value)
	if err != nil {
		return nil, fmt.Errorf("cookie %s: %w", name, err)
	}

	cookie := &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     def.Path,
		Domain:   def.Domain,
		HttpOnly: def.HTTPOnly,
		Secure:   def.Secure,
		SameSite: def.SameSite,
	}
	if def.TTL > 0 {
		cookie.MaxAge = int(def.TTL / time.Second)
		cookie.Expires = time.Now().Add(def.TTL).UTC()
	}
	return cookie, nil
}

func (d *Definition) encode(value any) (string, error) {
	switch d.Encoding {
	case EncodingBase64:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("base64 encoding requires a string value")
		}
		return base64.StdEncoding.EncodeToString([]byte(s)), nil
	case EncodingBase64JSON:
		data, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(data), nil
	case EncodingIron:
		return d.sealer.Seal(value)
	default:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("invalid cookie value: %v", value)
		}
		if !validValue(s) {
			return "", fmt.Errorf("invalid cookie value: %q", s)
		}
		return s, nil
	}
}

func (d *Definition) decode(raw string) (any, error) {
	switch d.Encoding {
	case EncodingBase64:
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	case EncodingBase64JSON:
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case EncodingIron:
		var v any
		if err := d.sealer.Unseal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return raw, nil
	}
}

// validValue mirrors the cookie-octet production of RFC 6265.
func validValue(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b < 0x21 || b > 0x7e || b == '"' || b == ',' || b == ';' || b == '\\' {
			return false
		}
	}
	return true
}
