package protocol

import (
	"golang.org/x/net/http/httpguts"
	"strings"
)

/*
Terms:
- request line: `METHOD SP TARGET SP VERSION CRLF`. Tokens are separated by any run of
  whitespace; a line with less than three tokens is malformed
- target: split at the first '?' into a path and a query. The path is never normalized,
  so a target of "?a=b" has an empty path
- headers: `KEY ":" VALUE CRLF` lines, terminated by an empty line. Keys and values are
  trimmed, keys are kept as-is (no case folding)
- body: exactly Content-Length bytes after the empty line. No chunked encoding

Only CRLF terminates a line. A bare LF is just a byte of the current line.

Keep-alive negotiation:
- Connection header carrying a `close` token: close, whatever the version is
- Connection header carrying a `keep-alive` token: keep the connection
- otherwise HTTP/1.1 keeps the connection, anything older closes it
*/

type Method uint8

const (
	Unknown Method = iota
	GET
	POST
	PUT
	DELETE
	HEAD
	OPTIONS
	PATCH
)

var methods = [...]string{
	Unknown: "UNKNOWN",
	GET:     "GET",
	POST:    "POST",
	PUT:     "PUT",
	DELETE:  "DELETE",
	HEAD:    "HEAD",
	OPTIONS: "OPTIONS",
	PATCH:   "PATCH",
}

func (m Method) String() string {
	if int(m) >= len(methods) {
		return methods[Unknown]
	}

	return methods[m]
}

// ParseMethod matches the token case-sensitively. Anything unrecognized is Unknown,
// which is not an error
func ParseMethod(token string) Method {
	switch token {
	case "GET":
		return GET
	case "POST":
		return POST
	case "PUT":
		return PUT
	case "DELETE":
		return DELETE
	case "HEAD":
		return HEAD
	case "OPTIONS":
		return OPTIONS
	case "PATCH":
		return PATCH
	default:
		return Unknown
	}
}

const (
	HTTP10 = "HTTP/1.0"
	HTTP11 = "HTTP/1.1"
)

const (
	HeaderConnection         = "Connection"
	HeaderContentLength      = "Content-Length"
	HeaderContentType        = "Content-Type"
	HeaderContentDisposition = "Content-Disposition"
)

const (
	ConnectionClose     = "close"
	ConnectionKeepAlive = "keep-alive"
)

const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusRequestTooLarge     = 413
	StatusInternalServerError = 500
)

var statusText = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",
	206: "Partial Content",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	307: "Temporary Redirect",
	308: "Permanent Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	409: "Conflict",
	411: "Length Required",
	413: "Payload Too Large",
	414: "URI Too Long",
	415: "Unsupported Media Type",
	429: "Too Many Requests",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// StatusText returns an empty string for unknown codes
func StatusText(code int) string {
	return statusText[code]
}

// SplitTarget splits the request target at the first '?'
func SplitTarget(target string) (path, query string) {
	if i := strings.IndexByte(target, '?'); i != -1 {
		return target[:i], target[i+1:]
	}

	return target, ""
}

// KeepAlive decides whether the connection survives the response. connection is the
// value of the Connection header, present reports whether the header was sent at all
func KeepAlive(version, connection string, present bool) bool {
	if present {
		values := []string{connection}

		switch {
		case httpguts.HeaderValuesContainsToken(values, ConnectionClose):
			return false
		case httpguts.HeaderValuesContainsToken(values, ConnectionKeepAlive):
			return true
		}
	}

	return version == HTTP11
}
