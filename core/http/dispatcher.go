package http

// Dispatcher resolves a complete request into a response. found=false means no route
// matched, and the caller substitutes its own Not Found response
type Dispatcher interface {
	Route(request *Request) (response *Response, found bool)
}

type DispatcherFunc func(request *Request) (*Response, bool)

func (f DispatcherFunc) Route(request *Request) (*Response, bool) {
	return f(request)
}
