package service

import (
	"net/http"
	"strings"
)

// Guard decides whether a route applies to r before its handler runs.
// false skips the route; an error rejects the request.
type Guard func(r *http.Request) (bool, error)

type route struct {
	method   string
	segments []string
	guard    Guard
	handler  http.HandlerFunc
}

// router dispatches on an ordered table of (method, pattern, guard).
// Patterns are slash separated; a {name} segment matches one non-empty
// path segment and is exposed through r.PathValue(name).
type router struct {
	routes   []route
	onError  func(http.ResponseWriter, *http.Request, error)
	notFound http.HandlerFunc
}

func (rt *router) handle(method, pattern string, guard Guard, handler http.HandlerFunc) {
	rt.routes = append(rt.routes, route{
		method:   method,
		segments: splitPath(pattern),
		guard:    guard,
		handler:  handler,
	})
}

func (rt *router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := splitPath(r.URL.Path)
	var allowed []string

	for _, rte := range rt.routes {
		params, ok := rte.match(path)
		if !ok {
			continue
		}
		if rte.method != r.Method {
			allowed = append(allowed, rte.method)
			continue
		}
		if rte.guard != nil {
			applies, err := rte.guard(r)
			if err != nil {
				rt.onError(w, r, err)
				return
			}
			if !applies {
				continue
			}
		}
		for name, value := range params {
			r.SetPathValue(name, value)
		}
		rte.handler(w, r)
		return
	}

	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", Code: "METHOD_NOT_ALLOWED"})
		return
	}
	rt.notFound(w, r)
}

func (rte route) match(path []string) (map[string]string, bool) {
	if len(path) != len(rte.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range rte.segments {
		if name, ok := paramName(seg); ok {
			if path[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, 2)
			}
			params[name] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

func paramName(seg string) (string, bool) {
	if len(seg) > 2 && seg[0] == '{' && seg[len(seg)-1] == '}' {
		return seg[1 : len(seg)-1], true
	}
	return "", false
}

func splitPath(p string) []string {
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}
