package http1

type parserState int

const (
	eRequestLine parserState = iota
	eHeaders
	eBody
	eComplete
	eError
)

func (s parserState) String() string {
	switch s {
	case eRequestLine:
		return "request-line"
	case eHeaders:
		return "headers"
	case eBody:
		return "body"
	case eComplete:
		return "complete"
	case eError:
		return "error"
	default:
		return "unknown"
	}
}
