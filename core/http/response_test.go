package http

import (
	"github.com/stretchr/testify/require"
	"pollhttp/core/protocol"
	"strings"
	"testing"
)

func TestResponse(t *testing.T) {
	t.Run("synthesized content length", func(t *testing.T) {
		resp := NewResponse()
		resp.Body = []byte("hello")
		resp.SetContentType("text/plain")

		require.Equal(t,
			"HTTP/1.1 200 OK\r\n"+
				"Content-Length: 5\r\n"+
				"Content-Type: text/plain\r\n"+
				"\r\n"+
				"hello",
			resp.String(),
		)
	})

	t.Run("explicit content length is kept", func(t *testing.T) {
		resp := NewResponse()
		resp.SetHeader("content-length", "0")

		out := resp.String()
		require.Equal(t, 1, strings.Count(strings.ToLower(out), "content-length"))
		require.Contains(t, out, "content-length: 0\r\n")
	})

	t.Run("reason falls back to status text", func(t *testing.T) {
		resp := &Response{Status: protocol.StatusNotFound}
		require.True(t, strings.HasPrefix(resp.String(), "HTTP/1.1 404 Not Found\r\n"))
	})

	t.Run("custom reason", func(t *testing.T) {
		resp := &Response{Status: 299, Reason: "Whatever"}
		require.True(t, strings.HasPrefix(resp.String(), "HTTP/1.1 299 Whatever\r\n"))
	})

	t.Run("keep alive header", func(t *testing.T) {
		resp := NewResponse()
		resp.SetKeepAlive(true)
		require.Contains(t, resp.String(), "Connection: keep-alive\r\n")

		resp.SetKeepAlive(false)
		require.Contains(t, resp.String(), "Connection: close\r\n")
		require.NotContains(t, resp.String(), "keep-alive")
	})

	t.Run("text response", func(t *testing.T) {
		out := NewTextResponse(protocol.StatusNotFound).String()
		require.True(t, strings.HasPrefix(out, "HTTP/1.1 404 Not Found\r\n"))
		require.Contains(t, out, "Content-Length: 9\r\n")
		require.True(t, strings.HasSuffix(out, "\r\n\r\nNot Found"))
	})

	t.Run("append to existing buffer", func(t *testing.T) {
		buff := []byte("prefix")
		buff = NewResponse().AppendTo(buff)
		require.True(t, strings.HasPrefix(string(buff), "prefixHTTP/1.1 200 OK\r\n"))
	})
}

func TestHeaders(t *testing.T) {
	h := Headers{"Content-Length": "1", "x-custom": "a"}

	_, found := h.Get("content-length")
	require.False(t, found)

	value, found := h.Find("content-length")
	require.True(t, found)
	require.Equal(t, "1", value)

	value, found = h.Find("X-Custom")
	require.True(t, found)
	require.Equal(t, "a", value)

	_, found = h.Find("Missing")
	require.False(t, found)
}

func TestHeadersSpellings(t *testing.T) {
	t.Run("find is deterministic", func(t *testing.T) {
		h := Headers{"content-length": "1", "CONTENT-LENGTH": "3"}
		for i := 0; i < 200; i++ {
			value, found := h.Find("Content-Length")
			require.True(t, found)
			require.Equal(t, "3", value)
		}
	})

	t.Run("replace drops other spellings", func(t *testing.T) {
		h := Headers{"content-length": "1", "X-Other": "x"}
		h.Replace("CONTENT-LENGTH", "3")
		require.Equal(t, Headers{"CONTENT-LENGTH": "3", "X-Other": "x"}, h)

		h.Replace("CONTENT-LENGTH", "4")
		require.Equal(t, "4", h["CONTENT-LENGTH"])
	})
}

func TestRequestKeepAlive(t *testing.T) {
	req := NewRequest()
	req.Version = protocol.HTTP11
	require.True(t, req.KeepAlive())

	req.Headers.Set("Connection", "close")
	require.False(t, req.KeepAlive())

	req = NewRequest()
	req.Version = protocol.HTTP10
	require.False(t, req.KeepAlive())

	req.Headers.Set("connection", "keep-alive")
	require.True(t, req.KeepAlive())
}
