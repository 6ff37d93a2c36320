package router

import (
	"pollhttp/core/http"
	"pollhttp/core/protocol"
)

// HandlerFunc fills the response, which comes pre-initialized with 200 OK
type HandlerFunc func(request *http.Request, response *http.Response)

type routeKey struct {
	method protocol.Method
	path   string
}

// Router dispatches on the exact (method, path) pair. Paths are compared as they
// came in: no normalization, no trailing-slash redirects. A static directory may be
// mounted under a prefix and is consulted when no route matches
type Router struct {
	routes map[routeKey]HandlerFunc
	static *static
}

var _ http.Dispatcher = new(Router)

func New() *Router {
	return &Router{
		routes: make(map[routeKey]HandlerFunc),
	}
}

// Add registers the handler. Registering the same method and path again replaces
// the previous handler
func (r *Router) Add(method protocol.Method, path string, handler HandlerFunc) *Router {
	if len(path) == 0 {
		panic("router: empty path")
	}

	if handler == nil {
		panic("router: nil handler")
	}

	r.routes[routeKey{method: method, path: path}] = handler

	return r
}

func (r *Router) Get(path string, handler HandlerFunc) *Router {
	return r.Add(protocol.GET, path, handler)
}

func (r *Router) Post(path string, handler HandlerFunc) *Router {
	return r.Add(protocol.POST, path, handler)
}

func (r *Router) Put(path string, handler HandlerFunc) *Router {
	return r.Add(protocol.PUT, path, handler)
}

func (r *Router) Delete(path string, handler HandlerFunc) *Router {
	return r.Add(protocol.DELETE, path, handler)
}

// Static mounts the root directory under the URL prefix. An empty prefix or root
// unmounts it
func (r *Router) Static(prefix, root string) *Router {
	if len(prefix) == 0 || len(root) == 0 {
		r.static = nil
		return r
	}

	r.static = &static{prefix: prefix, root: root}

	return r
}

func (r *Router) Route(request *http.Request) (*http.Response, bool) {
	if handler, found := r.routes[routeKey{method: request.Method, path: request.Path}]; found {
		response := http.NewResponse()
		handler(request, response)

		return response, true
	}

	if r.static != nil {
		return r.static.serve(request)
	}

	return nil, false
}
