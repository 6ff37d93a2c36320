package http

import (
	"pollhttp/core/protocol"
	"strconv"
)

type Response struct {
	Status int
	// Reason defaults to the standard status text when empty
	Reason  string
	Headers Headers
	Body    []byte
}

func NewResponse() *Response {
	return &Response{
		Status:  protocol.StatusOK,
		Headers: make(Headers),
	}
}

// NewTextResponse builds a plain-text response whose body repeats the reason phrase
func NewTextResponse(status int) *Response {
	resp := NewResponse()
	resp.Status = status
	resp.Reason = protocol.StatusText(status)
	resp.Body = []byte(resp.Reason)
	resp.SetContentType("text/plain; charset=utf-8")

	return resp
}

func (r *Response) SetHeader(key, value string) *Response {
	if r.Headers == nil {
		r.Headers = make(Headers)
	}

	r.Headers[key] = value

	return r
}

func (r *Response) SetContentType(value string) *Response {
	return r.SetHeader(protocol.HeaderContentType, value)
}

func (r *Response) SetKeepAlive(on bool) *Response {
	if on {
		return r.SetHeader(protocol.HeaderConnection, protocol.ConnectionKeepAlive)
	}

	return r.SetHeader(protocol.HeaderConnection, protocol.ConnectionClose)
}

func (r *Response) String() string {
	return string(r.AppendTo(nil))
}

// AppendTo serializes the response onto buff: status line, Content-Length when the
// headers don't carry one, the headers in key order, an empty line and the body
func (r *Response) AppendTo(buff []byte) []byte {
	reason := r.Reason
	if len(reason) == 0 {
		reason = protocol.StatusText(r.Status)
	}

	buff = append(buff, protocol.HTTP11...)
	buff = append(buff, ' ')
	buff = strconv.AppendInt(buff, int64(r.Status), 10)
	buff = append(buff, ' ')
	buff = append(buff, reason...)
	buff = append(buff, '\r', '\n')

	if _, found := r.Headers.Find(protocol.HeaderContentLength); !found {
		buff = append(buff, protocol.HeaderContentLength...)
		buff = append(buff, ':', ' ')
		buff = strconv.AppendInt(buff, int64(len(r.Body)), 10)
		buff = append(buff, '\r', '\n')
	}

	for _, key := range r.Headers.sortedKeys() {
		buff = append(buff, key...)
		buff = append(buff, ':', ' ')
		buff = append(buff, r.Headers[key]...)
		buff = append(buff, '\r', '\n')
	}

	buff = append(buff, '\r', '\n')

	return append(buff, r.Body...)
}
