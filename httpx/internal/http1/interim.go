package http1

import "strings"

// StatusCode extracts the numeric status from a status line the way a
// lenient client does: digits are read from the fixed offset following
// "HTTP/x.y ", and anything shorter than that yields 0.
func StatusCode(line string) int {
	if len(line) <= 9 {
		return 0
	}
	s := line[9:]
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	code := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		code = code*10 + int(s[i]-'0')
		if code > 1<<20 {
			break
		}
	}
	if neg {
		return -code
	}
	return code
}

// IsInterim reports whether code is an informational status that precedes
// the real response. 101 Switching Protocols is final.
func IsInterim(code int) bool {
	return code >= 100 && code < 200 && code != 101
}

// IsStatusLine reports whether line starts a new HTTP/1.x status line.
func IsStatusLine(line string) bool {
	return len(line) >= 6 && strings.EqualFold(line[:6], "HTTP/1")
}

// IsRedirect reports whether a Location on a response with this code is
// followed without explicit configuration.
func IsRedirect(code int) bool {
	return (code >= 300 && code <= 303) || code == 307 || code == 308
}
