package httpx

import (
	"crypto/tls"
	"strconv"
	"strings"
	"time"
)

// Options is the named-option store consulted by a fetch. A nil pointer
// field means the option is not set, which is distinct from its zero value:
// FollowLocation=false disables redirects, an unset FollowLocation falls
// back to status-code rules.
type Options struct {
	Proxy           string
	Timeout         *float64 // seconds between reads
	FollowLocation  *bool
	RequestFullURI  *bool
	MaxRedirects    *int
	Method          string
	ProtocolVersion *float64
	// Header holds raw header lines. Each element may itself carry several
	// CRLF separated lines.
	Header       []string
	Content      []byte
	UserAgent    *string
	IgnoreErrors *bool
	AutoDecode   *bool
	PeerName     string

	// TLSConfig is cloned for every TLS handshake; ServerName is always
	// overwritten from PeerName or the target host.
	TLSConfig *tls.Config
	// MaxHeaderLine bounds a single response line; 0 means 64 KiB.
	MaxHeaderLine int
}

// Defaults are process-wide settings passed explicitly into a Fetcher.
type Defaults struct {
	SocketTimeout time.Duration
	UserAgent     string
	FromAddress   string
}

// DefaultDefaults mirrors the classic stream-wrapper defaults.
func DefaultDefaults() Defaults {
	return Defaults{SocketTimeout: 60 * time.Second}
}

// Bool, Float, Int and String return pointers for option literals.
func Bool(v bool) *bool        { return &v }
func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func String(v string) *string  { return &v }

func (o *Options) readTimeout(d Defaults) time.Duration {
	if o.Timeout != nil {
		return time.Duration(*o.Timeout * float64(time.Second))
	}
	return d.SocketTimeout
}

func (o *Options) followLocation() (follow, set bool) {
	if o.FollowLocation == nil {
		return false, false
	}
	return *o.FollowLocation, true
}

func (o *Options) autoDecode() bool {
	return o.AutoDecode == nil || *o.AutoDecode
}

func (o *Options) ignoreErrors() bool {
	return o.IgnoreErrors != nil && *o.IgnoreErrors
}

func (o *Options) fullURI() bool {
	return o.RequestFullURI != nil && *o.RequestFullURI
}

func (o *Options) protocolVersion() string {
	if o.ProtocolVersion == nil {
		return "1.1"
	}
	return strconv.FormatFloat(*o.ProtocolVersion, 'f', 1, 64)
}

func (o *Options) userAgent(d Defaults) string {
	if o.UserAgent != nil {
		return *o.UserAgent
	}
	return d.UserAgent
}

// headerBlock joins the header option into one block with surrounding
// whitespace removed.
func (o *Options) headerBlock() string {
	if len(o.Header) == 0 {
		return ""
	}
	return strings.Trim(strings.Join(o.Header, "\r\n"), " \t\r\n\v\x00")
}
