package router

import (
	"os"
	"path"
	"pollhttp/core/http"
	"pollhttp/core/protocol"
	"strings"
)

const defaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".htm":   "text/html; charset=utf-8",
	".json":  "application/json",
	".css":   "text/css",
	".js":    "application/javascript",
	".txt":   "text/plain; charset=utf-8",
	".pdf":   "application/pdf",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".woff2": "font/woff2",
}

type static struct {
	prefix string
	root   string
}

func (s *static) serve(request *http.Request) (*http.Response, bool) {
	if !strings.HasPrefix(request.Path, s.prefix) {
		return nil, false
	}

	rel := strings.TrimPrefix(request.Path[len(s.prefix):], "/")
	full := s.root + "/" + rel
	if strings.Contains(full, "..") {
		response := http.NewTextResponse(protocol.StatusBadRequest)
		response.Body = []byte("Bad path")

		return response, true
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return http.NewTextResponse(protocol.StatusNotFound), true
	}

	response := http.NewResponse()
	response.Body = data
	response.SetContentType(ContentType(full))
	if strings.EqualFold(path.Ext(full), ".pdf") {
		// preview in the browser instead of downloading
		response.SetHeader(protocol.HeaderContentDisposition, "inline")
	}

	return response, true
}

// ContentType guesses the media type by the file extension
func ContentType(name string) string {
	if contentType, found := contentTypes[strings.ToLower(path.Ext(name))]; found {
		return contentType
	}

	return defaultContentType
}
