package http1

import (
	"bufio"
	"io"
)

// WriteConnect writes an HTTP/1.0 CONNECT request for hostport, which must
// already be in authority form (IPv6 literals bracketed). proxyAuth,
// when non-empty, is a complete "Proxy-Authorization: ..." line without
// terminator.
func WriteConnect(w io.Writer, hostport, proxyAuth string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("CONNECT ")
	bw.WriteString(hostport)
	bw.WriteString(" HTTP/1.0\r\n")
	if proxyAuth != "" {
		bw.WriteString(proxyAuth)
		bw.WriteString("\r\n")
	}
	bw.WriteString("\r\n")
	return bw.Flush()
}

// SkipHeaderBlock discards lines up to and including the first blank line,
// returning the first line read (normally the proxy's status line).
func SkipHeaderBlock(r *LineReader) (string, error) {
	first := ""
	for n := 0; ; n++ {
		line, err := r.ReadLine()
		if err != nil {
			if err == io.EOF {
				return first, nil
			}
			return first, err
		}
		if n == 0 {
			first = TrimEOL(line)
		}
		if line[0] == '\r' || line[0] == '\n' {
			return first, nil
		}
	}
}
