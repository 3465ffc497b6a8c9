package httpx

import (
	"errors"
	"io"
	"math"
	"strings"

	"dqx0.com/go/httpfetch/httpx/internal/http1"
)

// maxLocation is 8192 minus the length of "Location: ".
const maxLocation = 8182

var (
	errFoldAtStart = &ParseError{Msg: "HTTP invalid response format (folding header at the start)!"}
	errLeadingCR   = &ParseError{Msg: "HTTP invalid header name (cannot start with CR character)!"}
	errSpaceInName = &ParseError{Msg: "HTTP invalid response format (space in header name)!"}
	errNoColon     = &ParseError{Msg: "HTTP invalid response format (no colon in header line)!"}
	errLineTooLong = &ParseError{Msg: "HTTP invalid response format (header line too long)!"}
)

// decoderSlot owns at most one chunked decoder. Installing a decoder always
// releases the previous occupant; take hands ownership to the caller.
type decoderSlot struct {
	d *http1.ChunkedDecoder
}

func (s *decoderSlot) set(d *http1.ChunkedDecoder) {
	if s.d != nil {
		s.d.Release()
	}
	s.d = d
}

func (s *decoderSlot) take() *http1.ChunkedDecoder {
	d := s.d
	s.d = nil
	return d
}

func (s *decoderSlot) release() {
	s.set(nil)
}

// headerState accumulates what one response's header block tells the
// coordinator. It belongs to exactly one hop.
type headerState struct {
	decoder     decoderSlot
	size        int64 // -1 when no valid Content-Length was seen
	follow      bool
	location    string
	hasLocation bool
	err         error
}

func newHeaderState() *headerState {
	return &headerState{size: -1, follow: true}
}

// headerParser turns physical lines into logical header records.
type headerParser struct {
	opts        *Options
	code        int
	headersOnly bool
	notify      Notifier
	st          *headerState
	out         HeaderList
}

// parse consumes the header block up to the blank line or EOF. A folded
// continuation extends the pending line; every other line first dispatches
// the pending one.
func (p *headerParser) parse(lines *http1.LineReader) error {
	var pending string
	hasPending := false
	for {
		line, err := lines.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, http1.ErrLineTooLong) {
			return p.fail(errLineTooLong)
		}
		if err != nil {
			return p.fail(&TransportError{Op: "read", Err: err})
		}

		last := false
		switch line[0] {
		case '\r':
			if len(line) < 2 || line[1] != '\n' {
				return p.fail(errLeadingCR)
			}
			last = true
		case '\n':
			last = true
		}

		if hasPending {
			if !last {
				// A whitespace-only line is an empty fold.
				trimmed, _ := http1.TrimLine(line)
				if trimmed == "" {
					continue
				}
				if trimmed[0] == ' ' || trimmed[0] == '\t' {
					pending += " " + strings.TrimLeft(trimmed, " \t")
					continue
				}
				line = trimmed
			}
			if err := p.dispatch(pending); err != nil {
				return err
			}
			pending, hasPending = "", false
		} else if !last {
			if line[0] == ' ' || line[0] == '\t' {
				return p.fail(errFoldAtStart)
			}
			line, _ = http1.TrimLine(line)
		}
		if last {
			return nil
		}
		pending, hasPending = line, true
	}
	if hasPending {
		return p.dispatch(pending)
	}
	return nil
}

func (p *headerParser) fail(err error) error {
	p.st.err = err
	return err
}

// dispatch validates one logical line, applies its side effects and stores
// it unless a chunked decoder consumed it.
func (p *headerParser) dispatch(line string) error {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return p.fail(errNoColon)
	}
	name := line[:colon]
	if strings.ContainsAny(name, " \t") {
		return p.fail(errSpaceInName)
	}
	value := strings.TrimLeft(line[colon+1:], " \t")

	store := true
	switch {
	case strings.EqualFold(name, "Location"):
		if follow, ok := p.opts.followLocation(); ok {
			p.st.follow = follow
		} else if !http1.IsRedirect(p.code) {
			p.st.follow = false
		}
		if len(value) > maxLocation {
			return p.fail(&RedirectError{
				Location: value[:64] + "...",
				Reason:   "HTTP Location header size is over the limit of 8182 bytes",
			})
		}
		p.st.location, p.st.hasLocation = value, true
	case strings.EqualFold(name, "Content-Type"):
		p.notify.MimeType(value)
	case strings.EqualFold(name, "Content-Length"):
		if n, ok := parseContentLength(value); ok {
			p.st.size = n
			p.notify.FileSize(n, line)
		}
	case strings.EqualFold(name, "Transfer-Encoding") &&
		len(value) >= 7 && strings.EqualFold(value[:7], "chunked"):
		if !p.headersOnly && p.opts.autoDecode() {
			p.st.decoder.set(http1.NewChunkedDecoder(p.opts.MaxHeaderLine))
			store = false
		}
	}
	if store {
		p.out = append(p.out, line)
	}
	return nil
}

// parseContentLength accepts only plain decimal digits. Values beyond the
// int64 range are clamped rather than rejected.
func parseContentLength(v string) (int64, bool) {
	if v == "" || v[0] < '0' || v[0] > '9' {
		return 0, false
	}
	var n uint64
	overflow := false
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		if overflow {
			continue
		}
		d := uint64(c - '0')
		if n > (math.MaxUint64-d)/10 {
			overflow = true
			continue
		}
		n = n*10 + d
	}
	if overflow || n > math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(n), true
}
