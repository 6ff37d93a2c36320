package http1

import (
	"github.com/stretchr/testify/require"
	"pollhttp/core/http"
	"pollhttp/core/protocol"
	"testing"
)

// feed simulates a growing connection buffer: every chunk is appended to what came
// before, and the whole buffer is handed to the scanner again
func feed(t *testing.T, scan *Scanner, chunks ...string) (*http.Request, bool, error) {
	t.Helper()

	var (
		buff    []byte
		request *http.Request
		done    bool
		err     error
	)

	for _, chunk := range chunks {
		buff = append(buff, chunk...)
		request, done, err = scan.Scan(buff)
		if done {
			return request, done, err
		}
	}

	return request, done, err
}

func TestScanner(t *testing.T) {
	t.Run("simple get", func(t *testing.T) {
		request := "GET / HTTP/1.1\r\n\r\n"
		scan := NewScanner(1024)
		req, done, err := scan.Scan([]byte(request))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, protocol.GET, req.Method)
		require.Equal(t, "/", req.Path)
		require.Empty(t, req.Query)
		require.Equal(t, protocol.HTTP11, req.Version)
		require.Empty(t, req.Headers)
		require.Empty(t, req.Body)
		require.Equal(t, len(request), scan.Consumed())
	})

	t.Run("with headers and query", func(t *testing.T) {
		request := "POST /search?q=go HTTP/1.0\r\nHost: example.com\r\nX-Token:  abc \r\n\r\n"
		scan := NewScanner(1024)
		req, done, err := scan.Scan([]byte(request))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, protocol.POST, req.Method)
		require.Equal(t, "/search?q=go", req.Target)
		require.Equal(t, "/search", req.Path)
		require.Equal(t, "q=go", req.Query)
		require.Equal(t, protocol.HTTP10, req.Version)
		require.Equal(t, http.Headers{"Host": "example.com", "X-Token": "abc"}, req.Headers)
	})

	t.Run("with content-length", func(t *testing.T) {
		request := "POST /echo HTTP/1.1\r\nContent-Length: 4\r\n\r\nabcd"
		scan := NewScanner(1024)
		req, done, err := scan.Scan([]byte(request))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "abcd", string(req.Body))
	})

	t.Run("zero content-length", func(t *testing.T) {
		scan := NewScanner(1024)
		req, done, err := scan.Scan([]byte("PUT /x HTTP/1.1\r\nContent-Length: 0\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Empty(t, req.Body)
	})

	t.Run("body arrives in two parts", func(t *testing.T) {
		scan := NewScanner(1024)
		head := "POST / HTTP/1.1\r\nContent-Length: 5\r\n\r\n"

		_, done, err := scan.Scan([]byte(head + "abc"))
		require.NoError(t, err)
		require.False(t, done)
		require.Equal(t, eBody, scan.state)

		req, done, err := scan.Scan([]byte(head + "abcde"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "abcde", string(req.Body))
	})

	t.Run("extra bytes after body are not consumed", func(t *testing.T) {
		request := "POST / HTTP/1.1\r\nContent-Length: 2\r\n\r\nokrest"
		scan := NewScanner(1024)
		req, done, err := scan.Scan([]byte(request))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "ok", string(req.Body))
		require.Equal(t, "rest", request[scan.Consumed():])
	})

	t.Run("unknown method is not an error", func(t *testing.T) {
		scan := NewScanner(1024)
		req, done, err := scan.Scan([]byte("BREW /pot HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, protocol.Unknown, req.Method)
	})

	t.Run("lowercase method is unknown", func(t *testing.T) {
		scan := NewScanner(1024)
		req, _, err := scan.Scan([]byte("get / HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		require.Equal(t, protocol.Unknown, req.Method)
	})

	t.Run("empty path is kept empty", func(t *testing.T) {
		scan := NewScanner(1024)
		req, done, err := scan.Scan([]byte("GET ?a=b HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Empty(t, req.Path)
		require.Equal(t, "a=b", req.Query)
	})

	t.Run("header keys keep their case", func(t *testing.T) {
		scan := NewScanner(1024)
		req, _, err := scan.Scan([]byte("GET / HTTP/1.1\r\nX-Custom-A: 1\r\n\r\n"))
		require.NoError(t, err)
		require.Equal(t, "1", req.Headers["X-Custom-A"])
		require.NotContains(t, req.Headers, "x-custom-a")
	})

	t.Run("differently cased duplicates, last write wins", func(t *testing.T) {
		scan := NewScanner(1024)
		req, _, err := scan.Scan([]byte("GET / HTTP/1.1\r\nX-A: 1\r\nx-a: 2\r\n\r\n"))
		require.NoError(t, err)
		require.Equal(t, http.Headers{"x-a": "2"}, req.Headers)
	})

	t.Run("conflicting content-length spellings frame the same every time", func(t *testing.T) {
		raw := []byte("POST / HTTP/1.1\r\ncontent-length: 1\r\nCONTENT-LENGTH: 3\r\n\r\nabc")
		for i := 0; i < 200; i++ {
			scan := NewScanner(1024)
			req, done, err := scan.Scan(raw)
			require.NoError(t, err)
			require.True(t, done)
			require.Equal(t, "abc", string(req.Body))
			require.Equal(t, len(raw), scan.Consumed())
		}
	})

	t.Run("conflicting connection spellings negotiate the same every time", func(t *testing.T) {
		raw := []byte("GET / HTTP/1.1\r\nconnection: close\r\nConnection: keep-alive\r\n\r\n")
		for i := 0; i < 200; i++ {
			scan := NewScanner(1024)
			req, _, err := scan.Scan(raw)
			require.NoError(t, err)
			require.True(t, req.KeepAlive())
		}
	})

	t.Run("duplicate header last write wins", func(t *testing.T) {
		scan := NewScanner(1024)
		req, _, err := scan.Scan([]byte("GET / HTTP/1.1\r\nAccept: a\r\nAccept: b\r\n\r\n"))
		require.NoError(t, err)
		require.Equal(t, "b", req.Headers["Accept"])
	})

	t.Run("colon inside value", func(t *testing.T) {
		scan := NewScanner(1024)
		req, _, err := scan.Scan([]byte("GET / HTTP/1.1\r\nHost: localhost:8080\r\n\r\n"))
		require.NoError(t, err)
		require.Equal(t, "localhost:8080", req.Headers["Host"])
	})
}

func TestScannerNeedsMoreData(t *testing.T) {
	t.Run("no request line terminator", func(t *testing.T) {
		scan := NewScanner(1024)
		req, done, err := scan.Scan([]byte("GET / HTTP/1.1"))
		require.NoError(t, err)
		require.False(t, done)
		require.Nil(t, req)
		require.Equal(t, eRequestLine, scan.state)
	})

	t.Run("bare LF does not terminate", func(t *testing.T) {
		scan := NewScanner(1024)
		_, done, err := scan.Scan([]byte("GET / HTTP/1.1\n\n"))
		require.NoError(t, err)
		require.False(t, done)
		require.Equal(t, eRequestLine, scan.state)
	})

	t.Run("headers kept across calls", func(t *testing.T) {
		scan := NewScanner(1024)
		data := []byte("GET / HTTP/1.1\r\nA: 1\r\nB: 2")
		_, done, err := scan.Scan(data)
		require.NoError(t, err)
		require.False(t, done)
		require.Equal(t, eHeaders, scan.state)
		require.Equal(t, "1", scan.request.Headers["A"])

		data = append(data, "\r\n\r\n"...)
		req, done, err := scan.Scan(data)
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, http.Headers{"A": "1", "B": "2"}, req.Headers)
	})
}

func TestScannerErrors(t *testing.T) {
	t.Run("short request line", func(t *testing.T) {
		for _, line := range []string{"GET /\r\n\r\n", "GET\r\n\r\n", "\r\n\r\n", "  \r\n"} {
			scan := NewScanner(1024)
			req, done, err := scan.Scan([]byte(line))
			require.ErrorIs(t, err, ErrBadRequestLine, line)
			require.True(t, done)
			require.Nil(t, req)
			require.Equal(t, eError, scan.state)
		}
	})

	t.Run("header without colon", func(t *testing.T) {
		scan := NewScanner(1024)
		_, done, err := scan.Scan([]byte("GET / HTTP/1.1\r\nBroken header\r\n\r\n"))
		require.ErrorIs(t, err, ErrBadHeader)
		require.True(t, done)
		require.Equal(t, eError, scan.state)
	})

	t.Run("bad content-length", func(t *testing.T) {
		for _, value := range []string{"abc", "-1", "1.5", "", "99999999999999999999999"} {
			scan := NewScanner(1024)
			_, _, err := scan.Scan([]byte("POST / HTTP/1.1\r\nContent-Length: " + value + "\r\n\r\n"))
			require.ErrorIs(t, err, ErrBadContentLength, value)
		}
	})

	t.Run("error is terminal until release", func(t *testing.T) {
		scan := NewScanner(1024)
		_, _, err := scan.Scan([]byte("GET\r\n"))
		require.Error(t, err)

		_, done, err := scan.Scan([]byte("GET / HTTP/1.1\r\n\r\n"))
		require.True(t, done)
		require.ErrorIs(t, err, ErrBadRequestLine)

		scan.Release()
		req, done, err := scan.Scan([]byte("GET / HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "/", req.Path)
	})

	t.Run("headers too large", func(t *testing.T) {
		scan := NewScanner(initialArenaSpace)
		long := make([]byte, initialArenaSpace+1)
		for i := range long {
			long[i] = 'a'
		}

		_, _, err := scan.Scan([]byte("GET / HTTP/1.1\r\nX: " + string(long) + "\r\n\r\n"))
		require.ErrorIs(t, err, ErrHeadersTooLarge)
	})
}

func TestScannerCompleteIsTerminal(t *testing.T) {
	scan := NewScanner(1024)
	first, done, err := scan.Scan([]byte("GET /a HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	require.True(t, done)

	again, done, err := scan.Scan([]byte("GET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	require.True(t, done)
	require.Same(t, first, again)

	scan.Release()
	next, done, err := scan.Scan([]byte("GET /b HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, "/b", next.Path)
	require.Equal(t, "/a", first.Path)
}

func TestScannerSplitFeed(t *testing.T) {
	requests := []string{
		"GET /x HTTP/1.1\r\nHost: h\r\n\r\n",
		"POST /echo?x=1 HTTP/1.1\r\nContent-Length: 4\r\nX-A: a:b\r\n\r\nabcd",
		"DELETE  /item   HTTP/1.0\r\nConnection: close\r\n\r\n",
		string(generateRequest(3, "www.google.com", 13)) + "Hello, world!",
	}

	for _, request := range requests {
		whole := NewScanner(4096)
		want, done, err := whole.Scan([]byte(request))
		require.NoError(t, err)
		require.True(t, done)

		t.Run("two parts", func(t *testing.T) {
			for i := 1; i < len(request); i++ {
				scan := NewScanner(4096)
				got, done, err := feed(t, scan, request[:i], request[i:])
				require.NoError(t, err)
				require.True(t, done, "split at %d", i)
				require.Equal(t, want, got, "split at %d", i)
			}
		})

		t.Run("byte by byte", func(t *testing.T) {
			chunks := make([]string, len(request))
			for i := range request {
				chunks[i] = request[i : i+1]
			}

			scan := NewScanner(4096)
			got, done, err := feed(t, scan, chunks...)
			require.NoError(t, err)
			require.True(t, done)
			require.Equal(t, want, got)
		})
	}
}
