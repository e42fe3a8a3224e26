package pipeline

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

var paramName = regexp.MustCompile(`^\w+$`)

type segmentKind int

const (
	segLiteral segmentKind = iota
	segParam
	segOptional
	segWildcard
	segCounted
	segMixed
)

type segment struct {
	kind    segmentKind
	literal string
	name    string
	prefix  string
	suffix  string
	count   int
}

// variant is one chi pattern a route path expands to. Optional params and
// zero-length wildcards produce a derived variant without the last segment.
type variant struct {
	pattern string
	derived bool
	extract func(r *http.Request) map[string]any
}

// compilePath translates a route path into chi patterns.
//
//	/users/{id}       one parameter per segment
//	/users/{id?}      optional last parameter
//	/files/{path*}    zero or more trailing segments
//	/files/{path*2}   exactly two trailing segments
//	/files/{name}.jpg parameter with literal prefix and/or suffix
func compilePath(p string) ([]variant, error) {
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("invalid path %q: must begin with '/'", p)
	}

	segments, err := parseSegments(p)
	if err != nil {
		return nil, err
	}

	if len(segments) == 0 {
		return []variant{{pattern: "/", extract: extractor(nil)}}, nil
	}

	base := segments[:len(segments)-1]
	last := segments[len(segments)-1]

	switch last.kind {
	case segOptional:
		withParam := append(clone(base), segment{kind: segParam, name: last.name})
		return []variant{
			{pattern: join(withParam), extract: extractor(withParam)},
			{pattern: join(base), derived: true, extract: extractor(base)},
		}, nil
	case segWildcard:
		return []variant{
			{pattern: join(segments), extract: extractor(segments)},
			{pattern: join(base), derived: true, extract: extractor(base)},
		}, nil
	default:
		return []variant{{pattern: join(segments), extract: extractor(segments)}}, nil
	}
}

func parseSegments(p string) ([]segment, error) {
	trimmed := strings.TrimPrefix(p, "/")
	if trimmed == "" {
		return nil, nil
	}

	parts := strings.Split(trimmed, "/")
	segments := make([]segment, 0, len(parts))
	seen := make(map[string]bool)

	for i, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", p, err)
		}

		multi := seg.kind == segOptional || seg.kind == segWildcard || seg.kind == segCounted
		if multi && i != len(parts)-1 {
			return nil, fmt.Errorf("invalid path %q: {%s} must be the last segment", p, seg.name)
		}
		if seg.kind == segLiteral && seg.literal == "" && i != len(parts)-1 {
			return nil, fmt.Errorf("invalid path %q: empty segment", p)
		}

		if seg.name != "" {
			if seen[seg.name] {
				return nil, fmt.Errorf("invalid path %q: duplicate parameter %s", p, seg.name)
			}
			seen[seg.name] = true
		}
		segments = append(segments, seg)
	}

	return segments, nil
}

func parseSegment(part string) (segment, error) {
	open := strings.IndexByte(part, '{')
	if open < 0 {
		if strings.ContainsAny(part, "}*") {
			return segment{}, fmt.Errorf("invalid literal segment %q", part)
		}
		return segment{kind: segLiteral, literal: part}, nil
	}

	end := strings.IndexByte(part, '}')
	if end < open || strings.Count(part, "{") != 1 || strings.Count(part, "}") != 1 {
		return segment{}, fmt.Errorf("invalid parameter segment %q", part)
	}

	prefix, inner, suffix := part[:open], part[open+1:end], part[end+1:]
	mixed := prefix != "" || suffix != ""

	switch {
	case strings.HasSuffix(inner, "?"):
		name := strings.TrimSuffix(inner, "?")
		if mixed || !paramName.MatchString(name) {
			return segment{}, fmt.Errorf("invalid optional parameter %q", part)
		}
		return segment{kind: segOptional, name: name}, nil

	case strings.Contains(inner, "*"):
		name, count, _ := strings.Cut(inner, "*")
		if mixed || !paramName.MatchString(name) {
			return segment{}, fmt.Errorf("invalid wildcard parameter %q", part)
		}
		if count == "" {
			return segment{kind: segWildcard, name: name}, nil
		}
		n, err := strconv.Atoi(count)
		if err != nil || n < 1 {
			return segment{}, fmt.Errorf("invalid wildcard count %q", part)
		}
		if n == 1 {
			return segment{kind: segParam, name: name}, nil
		}
		return segment{kind: segCounted, name: name, count: n}, nil

	default:
		if !paramName.MatchString(inner) {
			return segment{}, fmt.Errorf("invalid parameter name %q", part)
		}
		if mixed {
			return segment{kind: segMixed, name: inner, prefix: prefix, suffix: suffix}, nil
		}
		return segment{kind: segParam, name: inner}, nil
	}
}

func join(segments []segment) string {
	if len(segments) == 0 {
		return "/"
	}

	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		switch seg.kind {
		case segLiteral:
			b.WriteString(seg.literal)
		case segParam:
			b.WriteString("{" + seg.name + "}")
		case segWildcard:
			b.WriteString("*")
		case segCounted:
			for i := range seg.count {
				if i > 0 {
					b.WriteByte('/')
				}
				b.WriteString("{" + countedKey(seg.name, i) + "}")
			}
		case segMixed:
			b.WriteString("{" + seg.name + ":" + regexp.QuoteMeta(seg.prefix) + ".+" + regexp.QuoteMeta(seg.suffix) + "}")
		}
	}
	return b.String()
}

func extractor(segments []segment) func(r *http.Request) map[string]any {
	return func(r *http.Request) map[string]any {
		params := make(map[string]any)
		escaped := r.URL.RawPath != ""

		value := func(key string) string {
			v := chi.URLParam(r, key)
			if escaped {
				if u, err := url.PathUnescape(v); err == nil {
					return u
				}
			}
			return v
		}

		for _, seg := range segments {
			switch seg.kind {
			case segParam:
				params[seg.name] = value(seg.name)
			case segWildcard:
				if v := value("*"); v != "" {
					params[seg.name] = v
				}
			case segCounted:
				values := make([]string, seg.count)
				for i := range seg.count {
					values[i] = value(countedKey(seg.name, i))
				}
				params[seg.name] = strings.Join(values, "/")
			case segMixed:
				v := value(seg.name)
				v = strings.TrimPrefix(v, seg.prefix)
				params[seg.name] = strings.TrimSuffix(v, seg.suffix)
			}
		}
		return params
	}
}

func countedKey(name string, i int) string {
	return fmt.Sprintf("%s_%d", name, i)
}

func clone(segments []segment) []segment {
	return append([]segment(nil), segments...)
}
