package http1

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// DefaultMaxLine bounds a single status or header line.
const DefaultMaxLine = 64 << 10

var ErrLineTooLong = errors.New("http1: line too long")

// LineReader reads raw protocol lines from a buffered stream. Lines are
// returned with their terminator so callers can tell a blank CRLF line from
// a line that ended at EOF.
type LineReader struct {
	BR      *bufio.Reader
	MaxLine int
}

// ReadLine returns the next line, terminator included. A final line that is
// cut short by EOF is returned with a nil error; io.EOF is only reported when
// nothing at all could be read.
func (r *LineReader) ReadLine() (string, error) {
	limit := r.MaxLine
	if limit <= 0 {
		limit = DefaultMaxLine
	}
	var sb strings.Builder
	for {
		frag, err := r.BR.ReadSlice('\n')
		if sb.Len()+len(frag) > limit {
			return "", ErrLineTooLong
		}
		sb.Write(frag)
		switch {
		case err == nil:
			return sb.String(), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if sb.Len() == 0 {
				return "", io.EOF
			}
			return sb.String(), nil
		default:
			return "", err
		}
	}
}

// Terminated reports whether line ends with LF.
func Terminated(line string) bool {
	return strings.HasSuffix(line, "\n")
}

// TrimEOL drops trailing CR and LF bytes only.
func TrimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// TrimLine drops the line terminator and any trailing space or tab. The
// second result reports whether trailing whitespace was removed.
func TrimLine(line string) (string, bool) {
	line = TrimEOL(line)
	n := len(line)
	for n > 0 && (line[n-1] == ' ' || line[n-1] == '\t') {
		n--
	}
	return line[:n], n != len(line)
}

// FindHeaderLine scans a raw CRLF or LF separated header block for the first
// line whose field name equals name (case-insensitive) and returns it with
// leading whitespace and the terminator removed.
func FindHeaderLine(block, name string) (string, bool) {
	for _, line := range strings.FieldsFunc(block, func(r rune) bool { return r == '\r' || r == '\n' }) {
		line = strings.TrimLeft(line, " \t")
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		if strings.EqualFold(line[:i], name) {
			return line, true
		}
	}
	return "", false
}
