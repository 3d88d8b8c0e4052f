package navigation

import "strings"

// DefaultPatterns lists the public pages that carry path parameters.
// "*" matches one segment without capturing it.
var DefaultPatterns = []string{
	"/blog/:slug",
	"/experience/:id",
	"/tour/:slug",
	"/careers/apply/*/:jobId",
	"/press/:articleId",
	"/whats-new/:id",
	"/book/:experienceId",
	"/confirmation/:reference",
}

type segment struct {
	literal string
	param   string
	wild    bool
}

type Route struct {
	Pattern  string
	segments []segment
}

// Router matches paths against an ordered route table; the first match wins.
type Router struct {
	routes []Route
}

func NewRouter(patterns ...string) *Router {
	r := &Router{routes: make([]Route, 0, len(patterns))}
	for _, p := range patterns {
		r.routes = append(r.routes, compile(p))
	}
	return r
}

var defaultRouter = NewRouter(DefaultPatterns...)

// Default returns the router built from DefaultPatterns.
func Default() *Router { return defaultRouter }

func compile(pattern string) Route {
	parts := splitPath(pattern)
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		switch {
		case p == "*":
			segs = append(segs, segment{wild: true})
		case strings.HasPrefix(p, ":"):
			segs = append(segs, segment{param: p[1:]})
		default:
			segs = append(segs, segment{literal: p})
		}
	}
	return Route{Pattern: pattern, segments: segs}
}

// Match returns the first route matching path and its parameters.
func (r *Router) Match(path string) (string, map[string]string, bool) {
	parts := splitPath(stripQuery(path))
	for _, rt := range r.routes {
		if params, ok := rt.match(parts); ok {
			return rt.Pattern, params, true
		}
	}
	return "", map[string]string{}, false
}

// Params returns the named parameters for path, or an empty map.
func (r *Router) Params(path string) map[string]string {
	_, params, _ := r.Match(path)
	return params
}

// Params matches against the default table.
func Params(path string) map[string]string {
	return defaultRouter.Params(path)
}

func (rt Route) match(parts []string) (map[string]string, bool) {
	if len(parts) != len(rt.segments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, seg := range rt.segments {
		part := parts[i]
		switch {
		case seg.wild:
			if part == "" {
				return nil, false
			}
		case seg.param != "":
			if part == "" {
				return nil, false
			}
			params[seg.param] = part
		default:
			if part != seg.literal {
				return nil, false
			}
		}
	}
	return params, true
}

func stripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
