package scan

import "pollhttp/core/http"

// Scanner is fed the whole accumulated input on every call. It keeps its own cursor,
// so already consumed bytes are never looked at twice. Once done is returned, the
// scanner stays in that state until Release
type Scanner interface {
	Scan(data []byte) (request *http.Request, done bool, err error)
	Release()
}
