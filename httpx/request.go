package httpx

import (
	"bytes"
	"encoding/base64"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// hopFlags carry the per-hop behaviour bits of a fetch chain.
type hopFlags uint8

const (
	flagFirstHop hopFlags = 1 << iota
	flagRedirected
	flagKeepMethod
)

func (f hopFlags) has(b hopFlags) bool { return f&b != 0 }

const defaultContentType = "application/x-www-form-urlencoded"

// headerLines is the user supplied header block split into lines. Presence
// checks look at line starts only, so a header name that appears inside
// another header's value is never mistaken for the header itself.
type headerLines []string

func parseHeaderLines(block string) headerLines {
	if block == "" {
		return nil
	}
	var out headerLines
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func lineIs(line, lowerName string) bool {
	return len(line) > len(lowerName) &&
		line[len(lowerName)] == ':' &&
		strings.EqualFold(line[:len(lowerName)], lowerName)
}

func (h headerLines) has(lowerName string) bool {
	for _, l := range h {
		if lineIs(l, lowerName) {
			return true
		}
	}
	return false
}

// without returns h minus every line naming one of names.
func (h headerLines) without(names ...string) headerLines {
	out := h[:0:0]
next:
	for _, l := range h {
		for _, n := range names {
			if lineIs(l, n) {
				continue next
			}
		}
		out = append(out, l)
	}
	return out
}

// buildRequest serializes the request of one hop and returns the wire bytes
// together with the method that was used. A full-URI target has already
// been checked for CR and LF by hop.
func (f *Fetcher) buildRequest(loc Locator, rt route, flags hopFlags, n Notifier, lg *zap.Logger) ([]byte, string) {
	opts := &f.Options
	var b bytes.Buffer

	// Automatically redirected requests only keep a custom method when the
	// redirect asked for it or the method is safe.
	method := "GET"
	if m := opts.Method; m != "" {
		if !flags.has(flagRedirected) || flags.has(flagKeepMethod) || m == "GET" || m == "HEAD" {
			method = m
		}
	}
	b.WriteString(method)
	b.WriteByte(' ')
	if rt.fullURI {
		b.WriteString(loc.Raw)
	} else {
		b.WriteString(loc.RequestTarget())
	}
	b.WriteString(" HTTP/")
	b.WriteString(opts.protocolVersion())
	b.WriteString("\r\n")

	user := parseHeaderLines(opts.headerBlock())
	if !flags.has(flagFirstHop) && !flags.has(flagKeepMethod) {
		user = user.without("content-length", "content-type")
	}
	if rt.tunnel() {
		user = user.without("proxy-authorization")
	}
	hasCL := user.has("content-length")
	sendBody := len(opts.Content) > 0 && (flags.has(flagFirstHop) || flags.has(flagKeepMethod))

	if !user.has("authorization") && loc.HasUser {
		cred := loc.User + ":" + loc.Password
		b.WriteString("Authorization: Basic ")
		b.WriteString(base64.StdEncoding.EncodeToString([]byte(cred)))
		b.WriteString("\r\n")
		n.AuthRequired()
	}
	if !user.has("from") && f.Defaults.FromAddress != "" {
		b.WriteString("From: " + f.Defaults.FromAddress + "\r\n")
	}
	if !user.has("host") {
		b.WriteString("Host: " + loc.Authority() + "\r\n")
	}
	if !user.has("connection") {
		b.WriteString("Connection: close\r\n")
	}
	if ua := opts.userAgent(f.Defaults); ua != "" && !user.has("user-agent") {
		b.WriteString("User-Agent: " + ua + "\r\n")
	}

	if len(user) > 0 {
		// Some servers insist on Content-Length preceding Content-Type, and
		// Content-Type may be among the user's lines.
		if sendBody && !hasCL {
			b.WriteString("Content-Length: " + strconv.Itoa(len(opts.Content)) + "\r\n")
			hasCL = true
		}
		b.WriteString(strings.Join(user, "\r\n"))
		b.WriteString("\r\n")
	}

	if sendBody {
		if !hasCL {
			b.WriteString("Content-Length: " + strconv.Itoa(len(opts.Content)) + "\r\n")
		}
		if !user.has("content-type") {
			b.WriteString("Content-Type: " + defaultContentType + "\r\n")
			lg.Info("Content-type not specified assuming " + defaultContentType)
		}
		b.WriteString("\r\n")
		b.Write(opts.Content)
	} else {
		b.WriteString("\r\n")
	}
	return b.Bytes(), method
}
