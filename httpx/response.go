package httpx

import (
	"io"

	"dqx0.com/go/httpfetch/httpx/internal/http1"
)

// Stream is the body of a completed fetch. Headers holds the final hop's
// response; Hops summarizes every hop of the chain in order. A Stream is not
// safe for concurrent use.
type Stream struct {
	Headers HeaderList
	Size    int64 // Content-Length of the final response, -1 if unknown
	URL     string
	Hops    []Hop

	body    io.Reader
	closer  io.Closer
	decoder *http1.ChunkedDecoder
	notify  Notifier
	pos     int64
	closed  bool
}

// newStream takes ownership of c and of any decoder left in st.
func newStream(c *hopConn, st *headerState, headers HeaderList, n Notifier) *Stream {
	s := &Stream{
		Headers: headers,
		Size:    st.size,
		body:    c.br,
		closer:  c,
		notify:  n,
	}
	if d := st.decoder.take(); d != nil {
		s.decoder = d.Attach(c.br)
		s.body = s.decoder
	}
	// An unknown total is reported as 0.
	total := st.size
	if total < 0 {
		total = 0
	}
	n.ProgressInit(total)
	if b := c.br.Buffered(); b > 0 {
		n.Progress(int64(b))
	}
	c.ch.onRead = func(k int) { n.Progress(int64(k)) }
	return s
}

func (s *Stream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	n, err := s.body.Read(p)
	s.pos += int64(n)
	return n, err
}

// Close releases the channel and any decoder. It is safe to call twice.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.decoder != nil {
		s.decoder.Release()
		s.decoder = nil
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Position reports the number of body bytes delivered so far.
func (s *Stream) Position() int64 { return s.pos }

// StatusCode parses the code from the final status line.
func (s *Stream) StatusCode() int { return http1.StatusCode(s.Headers.StatusLine()) }
