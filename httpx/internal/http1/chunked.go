package http1

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	errChunkFormat     = errors.New("http1: invalid chunk format")
	ErrDecoderReleased = errors.New("http1: chunked decoder released")
	ErrDecoderDetached = errors.New("http1: chunked decoder not attached")
)

// ChunkedDecoder decodes a Transfer-Encoding: chunked body. A decoder is
// created while headers are still being parsed and only attached to the
// body reader once the response is accepted; until then it may be released
// without ever touching the stream.
type ChunkedDecoder struct {
	br       *bufio.Reader
	remain   int64
	finished bool
	released bool
	maxLine  int
}

func NewChunkedDecoder(maxLine int) *ChunkedDecoder {
	return &ChunkedDecoder{remain: -1, maxLine: maxLine}
}

// Attach binds the decoder to the stream positioned at the first chunk.
func (c *ChunkedDecoder) Attach(br *bufio.Reader) *ChunkedDecoder {
	c.br = br
	return c
}

// Release marks the decoder unusable. Releasing twice is a no-op.
func (c *ChunkedDecoder) Release() {
	c.released = true
	c.br = nil
}

func (c *ChunkedDecoder) Released() bool { return c.released }

func (c *ChunkedDecoder) Read(p []byte) (int, error) {
	if c.released {
		return 0, ErrDecoderReleased
	}
	if c.br == nil {
		return 0, ErrDecoderDetached
	}
	if c.finished {
		return 0, io.EOF
	}
	if c.remain <= 0 {
		size, err := c.readChunkSize()
		if err != nil {
			return 0, err
		}
		if size == 0 {
			if err := c.readTrailers(); err != nil {
				return 0, err
			}
			c.finished = true
			return 0, io.EOF
		}
		c.remain = size
	}
	if len(p) == 0 {
		return 0, nil
	}
	toRead := int64(len(p))
	if toRead > c.remain {
		toRead = c.remain
	}
	n, err := io.ReadFull(c.br, p[:toRead])
	c.remain -= int64(n)
	if err != nil {
		return n, err
	}
	if c.remain == 0 {
		if err := c.expectCRLF(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *ChunkedDecoder) readChunkSize() (int64, error) {
	line, err := c.readLine()
	if err == io.EOF {
		return 0, io.ErrUnexpectedEOF
	}
	if err != nil {
		return 0, err
	}
	// "<hex>;<ext>"
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, errChunkFormat
	}
	n, err := strconv.ParseInt(line, 16, 64)
	if err != nil || n < 0 {
		return 0, errChunkFormat
	}
	return n, nil
}

func (c *ChunkedDecoder) expectCRLF() error {
	b1, err := c.br.ReadByte()
	if err != nil {
		return err
	}
	if b1 == '\n' {
		return nil
	}
	b2, err := c.br.ReadByte()
	if err != nil {
		return err
	}
	if b1 != '\r' || b2 != '\n' {
		return fmt.Errorf("http1: expected CRLF after chunk, got %q%q", b1, b2)
	}
	return nil
}

func (c *ChunkedDecoder) readTrailers() error {
	for {
		line, err := c.readLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if line == "" {
			return nil
		}
	}
}

func (c *ChunkedDecoder) readLine() (string, error) {
	lr := LineReader{BR: c.br, MaxLine: c.maxLine}
	line, err := lr.ReadLine()
	if err != nil {
		return "", err
	}
	if !Terminated(line) {
		return "", io.ErrUnexpectedEOF
	}
	return TrimEOL(line), nil
}
