package http1

import (
	"bytes"
	"github.com/indigo-web/utils/arena"
	"github.com/indigo-web/utils/uf"
	"pollhttp/core/http"
	"pollhttp/core/protocol"
	"pollhttp/internal/scan"
	"strconv"
	"strings"
)

var crlf = []byte("\r\n")

const initialArenaSpace = 512

var _ scan.Scanner = new(Scanner)

type Scanner struct {
	state parserState
	// pos is how many bytes of the input are already consumed
	pos           int
	contentLength int
	maxSize       int
	// strings of the current request are carved out of this arena. A fresh one is
	// taken on every Release, so a retained request is never overwritten
	headersBuffer *arena.Arena[byte]
	request       *http.Request
	err           error
}

// NewScanner returns a scanner whose per-request strings may not grow beyond maxSize
func NewScanner(maxSize int) *Scanner {
	s := &Scanner{
		maxSize: max(maxSize, initialArenaSpace),
	}
	s.Release()

	return s
}

func (s *Scanner) Scan(data []byte) (request *http.Request, done bool, err error) {
	var (
		line []byte
		ok   bool
	)

	switch s.state {
	case eRequestLine:
		goto requestLine
	case eHeaders:
		goto headers
	case eBody:
		goto body
	case eComplete:
		return s.request, true, nil
	case eError:
		return nil, true, s.err
	default:
		panic("BUG: unknown scan state")
	}

requestLine:
	line, ok = s.nextLine(data)
	if !ok {
		return nil, false, nil
	}

	if err = s.requestLine(line); err != nil {
		return s.fail(err)
	}

	s.state = eHeaders

headers:
	for {
		line, ok = s.nextLine(data)
		if !ok {
			// headers parsed so far are kept, the cursor points to the unterminated line
			return nil, false, nil
		}

		if len(line) == 0 {
			break
		}

		if err = s.header(line); err != nil {
			return s.fail(err)
		}
	}

	if err = s.bodyLength(); err != nil {
		return s.fail(err)
	}

	if s.contentLength == 0 {
		goto complete
	}

	s.state = eBody

body:
	if len(data)-s.pos < s.contentLength {
		return nil, false, nil
	}

	s.request.Body = append(make([]byte, 0, s.contentLength), data[s.pos:s.pos+s.contentLength]...)
	s.pos += s.contentLength

complete:
	s.state = eComplete

	return s.request, true, nil
}

// Release drops the current request and returns the scanner to the request line
func (s *Scanner) Release() {
	s.state = eRequestLine
	s.pos = 0
	s.contentLength = 0
	s.err = nil
	s.request = http.NewRequest()
	s.headersBuffer = arena.NewArena[byte](initialArenaSpace, s.maxSize)
}

// Consumed reports how many bytes of the input the current request took so far
func (s *Scanner) Consumed() int {
	return s.pos
}

func (s *Scanner) fail(err error) (*http.Request, bool, error) {
	s.state = eError
	s.err = err

	return nil, true, err
}

// nextLine returns the line starting at the cursor without its CRLF and moves the
// cursor past it. Only CRLF terminates a line
func (s *Scanner) nextLine(data []byte) (line []byte, ok bool) {
	end := bytes.Index(data[s.pos:], crlf)
	if end == -1 {
		return nil, false
	}

	line = data[s.pos : s.pos+end]
	s.pos += end + len(crlf)

	return line, true
}

func (s *Scanner) requestLine(line []byte) error {
	value, err := s.store(line)
	if err != nil {
		return err
	}

	fields := strings.Fields(value)
	if len(fields) < 3 {
		return ErrBadRequestLine
	}

	s.request.Method = protocol.ParseMethod(fields[0])
	s.request.Target = fields[1]
	s.request.Path, s.request.Query = protocol.SplitTarget(fields[1])
	s.request.Version = fields[2]

	return nil
}

func (s *Scanner) header(line []byte) error {
	colon := bytes.IndexByte(line, ':')
	if colon == -1 {
		return ErrBadHeader
	}

	value, err := s.store(line)
	if err != nil {
		return err
	}

	key := strings.TrimSpace(value[:colon])
	s.request.Headers.Replace(key, strings.TrimSpace(value[colon+1:]))

	return nil
}

func (s *Scanner) bodyLength() error {
	value, found := s.request.Headers.Find(protocol.HeaderContentLength)
	if !found {
		s.contentLength = 0
		return nil
	}

	length, err := strconv.ParseUint(value, 10, strconv.IntSize-1)
	if err != nil {
		return ErrBadContentLength
	}

	s.contentLength = int(length)

	return nil
}

// store copies the line into the arena and returns it as a string backed by it
func (s *Scanner) store(line []byte) (string, error) {
	if !s.headersBuffer.Append(line...) {
		return "", ErrHeadersTooLarge
	}

	return uf.B2S(s.headersBuffer.Finish()), nil
}
