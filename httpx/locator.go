package httpx

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Locator is the per-hop snapshot of the URL being fetched. A Locator is
// never modified once parsed; a redirect produces a new one.
//
// User and Password are already percent-decoded. Path and Query keep the
// encoding they arrived with so they can be sent on the wire unchanged.
type Locator struct {
	Raw      string
	Scheme   string
	Host     string
	Port     int // 0 when the URL carries none
	User     string
	Password string
	HasUser  bool
	HasPass  bool
	Path     string
	Query    string
	HasQuery bool
}

// ParseLocator parses raw into a Locator. Hosts of http and https URLs must
// be valid Host header values.
func ParseLocator(raw string) (Locator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Opaque != "" {
		return Locator{}, fmt.Errorf("%w: %q has no scheme or authority", ErrInvalidURL, raw)
	}
	loc := Locator{
		Raw:      raw,
		Scheme:   u.Scheme,
		Host:     u.Hostname(),
		Path:     u.EscapedPath(),
		Query:    u.RawQuery,
		HasQuery: u.RawQuery != "" || u.ForceQuery,
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 65535 {
			return Locator{}, fmt.Errorf("%w: bad port %q", ErrInvalidURL, p)
		}
		loc.Port = n
	}
	if u.User != nil {
		loc.User = u.User.Username()
		loc.HasUser = true
		loc.Password, loc.HasPass = u.User.Password()
	}
	if loc.IsHTTP() {
		if loc.Host == "" || !httpguts.ValidHostHeader(u.Host) {
			return Locator{}, fmt.Errorf("%w: bad host %q", ErrInvalidURL, u.Host)
		}
	}
	return loc, nil
}

// IsHTTP reports whether the scheme is http or https.
func (l Locator) IsHTTP() bool {
	return strings.EqualFold(l.Scheme, "http") || strings.EqualFold(l.Scheme, "https")
}

// Secure reports whether the scheme requires TLS.
func (l Locator) Secure() bool {
	return strings.EqualFold(l.Scheme, "https")
}

// DefaultPort is 443 for https and 80 otherwise.
func (l Locator) DefaultPort() int {
	if l.Secure() {
		return 443
	}
	return 80
}

// WithDefaultPort returns a copy with Port filled in from the scheme.
func (l Locator) WithDefaultPort() Locator {
	if l.Port == 0 {
		l.Port = l.DefaultPort()
	}
	return l
}

// HostPort is the dial address of the target.
func (l Locator) HostPort() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

// Authority renders host and, when it differs from the scheme default, the
// port. It is the value sent in the Host header.
func (l Locator) Authority() string {
	h := l.Host
	if strings.IndexByte(h, ':') >= 0 {
		h = "[" + h + "]"
	}
	if l.Port != 0 && l.Port != l.DefaultPort() {
		h += ":" + strconv.Itoa(l.Port)
	}
	return h
}

// RequestTarget is the origin-form target: path (default "/") and query.
func (l Locator) RequestTarget() string {
	var b strings.Builder
	if l.Path != "" {
		b.WriteString(l.Path)
	} else {
		b.WriteByte('/')
	}
	if l.HasQuery {
		b.WriteByte('?')
		b.WriteString(l.Query)
	}
	return b.String()
}

// DecodedPath percent-decodes Path.
func (l Locator) DecodedPath() (string, error) {
	return url.PathUnescape(l.Path)
}

func (l Locator) String() string { return l.Raw }
