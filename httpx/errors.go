package httpx

import (
	"errors"
	"fmt"
)

var (
	ErrRedirectLimit     = errors.New("httpx: redirection limit reached, aborting")
	ErrInvalidRedirect   = errors.New("httpx: invalid redirect URL")
	ErrInvalidURL        = errors.New("httpx: invalid URL")
	ErrWriteNotSupported = errors.New("httpx: HTTP wrapper does not support writeable connections")
	ErrUnsupportedScheme = errors.New("httpx: unsupported scheme")
	ErrStatus            = errors.New("httpx: HTTP request failed")
	ErrParse             = errors.New("httpx: invalid response format")
	ErrClosed            = errors.New("httpx: read on closed stream")
)

// TransportError reports a connect, write, TLS or read failure. It is fatal
// to the hop and aborts the chain.
type TransportError struct {
	Op   string // "dial", "connect", "tls", "write", "read"
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("httpx: %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("httpx: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a malformed response header block.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return "httpx: " + e.Msg }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// RedirectError reports a Location that cannot be followed: oversized,
// unparsable, or carrying control characters once decoded.
type RedirectError struct {
	Location string
	Reason   string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("httpx: invalid redirect URL %q: %s", e.Location, e.Reason)
}

func (e *RedirectError) Unwrap() error { return ErrInvalidRedirect }

// StatusError reports a final response outside 2xx/3xx.
type StatusError struct {
	Code       int
	StatusLine string
}

func (e *StatusError) Error() string {
	return "httpx: HTTP request failed! " + e.StatusLine
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// errorKind labels err for metrics.
func errorKind(err error) string {
	var (
		te *TransportError
		pe *ParseError
		re *RedirectError
		se *StatusError
	)
	switch {
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &re):
		return "redirect_target"
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, ErrRedirectLimit):
		return "redirect_limit"
	default:
		return "request"
	}
}
