package http1

import "errors"

var (
	ErrBadRequestLine   = errors.New("request line must consist of method, target and version")
	ErrBadHeader        = errors.New("header line has no colon")
	ErrBadContentLength = errors.New("bad content-length value")
	ErrHeadersTooLarge  = errors.New("headers exceed the request size limit")
)
