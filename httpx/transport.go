package httpx

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"dqx0.com/go/httpfetch/httpx/internal/http1"
)

// Channel is a connected duplex byte stream that can be upgraded to TLS in
// place.
type Channel interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	StartTLS(ctx context.Context, cfg *tls.Config) error
}

// Dialer opens channels. A non-nil cfg asks for TLS from the first byte.
type Dialer interface {
	Dial(ctx context.Context, addr string, cfg *tls.Config) (Channel, error)
}

// NetDialer dials TCP with the standard library and upgrades with
// crypto/tls. Dials are bounded only by ctx.
type NetDialer struct {
	Resolver *net.Resolver
}

func (d *NetDialer) Dial(ctx context.Context, addr string, cfg *tls.Config) (Channel, error) {
	nd := &net.Dialer{}
	if d != nil {
		nd.Resolver = d.Resolver
	}
	if cfg != nil {
		td := tls.Dialer{NetDialer: nd, Config: cfg}
		c, err := td.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return &netChannel{Conn: c}, nil
	}
	c, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &netChannel{Conn: c}, nil
}

type netChannel struct {
	net.Conn
}

func (c *netChannel) StartTLS(ctx context.Context, cfg *tls.Config) error {
	tc := tls.Client(c.Conn, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		return err
	}
	c.Conn = tc
	return nil
}

// route describes where a hop connects and how the request is framed.
type route struct {
	proxyAddr   string // empty for a direct connection
	proxyHost   string
	proxySecure bool
	secure      bool // target needs TLS
	fullURI     bool
}

func (r route) viaProxy() bool { return r.proxyAddr != "" }

// tunnel reports whether the hop needs CONNECT before the request.
func (r route) tunnel() bool { return r.viaProxy() && r.secure }

// parseProxy accepts tcp://, http://, ssl://, tls://, https:// or a bare
// host:port. A missing port defaults by transport.
func parseProxy(s string) (addr, host string, secure bool, err error) {
	rest := s
	if i := strings.Index(s, "://"); i >= 0 {
		switch strings.ToLower(s[:i]) {
		case "tcp", "http":
		case "ssl", "tls", "https":
			secure = true
		default:
			return "", "", false, fmt.Errorf("%w: proxy %q", ErrUnsupportedScheme, s)
		}
		rest = s[i+3:]
	}
	rest = strings.TrimRight(rest, "/")
	host, port, err := net.SplitHostPort(rest)
	if err != nil {
		host, port = strings.Trim(rest, "[]"), "80"
		if secure {
			port = "443"
		}
	}
	if host == "" {
		return "", "", false, fmt.Errorf("%w: proxy %q", ErrInvalidURL, s)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", "", false, fmt.Errorf("%w: proxy %q", ErrInvalidURL, s)
	}
	return net.JoinHostPort(host, port), host, secure, nil
}

// timeoutChannel arms a fresh read deadline before every read, giving the
// per-read timeout semantics of a classic socket stream. onRead, once set,
// observes every successful read from the wire.
type timeoutChannel struct {
	Channel
	timeout time.Duration
	onRead  func(n int)
}

func (c *timeoutChannel) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		_ = c.Channel.SetReadDeadline(time.Now().Add(c.timeout))
	}
	n, err := c.Channel.Read(p)
	if n > 0 && c.onRead != nil {
		c.onRead(n)
	}
	return n, err
}

// hopConn is the channel of a single hop together with the buffered reader
// that owns any bytes read past the header block.
type hopConn struct {
	ch    *timeoutChannel
	br    *bufio.Reader
	lines *http1.LineReader
	addr  string
}

func (c *hopConn) Close() error {
	if c == nil || c.ch == nil {
		return nil
	}
	err := c.ch.Close()
	c.ch = nil
	return err
}

func (c *hopConn) write(p []byte) error {
	if _, err := c.ch.Write(p); err != nil {
		return &TransportError{Op: "write", Addr: c.addr, Err: err}
	}
	return nil
}

func tlsConfigFor(base *tls.Config, serverName string) *tls.Config {
	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{}
	}
	cfg.ServerName = serverName
	if len(cfg.NextProtos) == 0 {
		cfg.NextProtos = []string{"http/1.1"}
	}
	return cfg
}

// connect opens the channel for one hop: directly, through a plain proxy, or
// through a CONNECT tunnel followed by a TLS upgrade to the real target.
func (f *Fetcher) connect(ctx context.Context, loc Locator, rt route, lg *zap.Logger) (*hopConn, error) {
	opts := &f.Options
	peer := opts.PeerName
	if peer == "" {
		peer = loc.Host
	}

	addr := loc.HostPort()
	var dialCfg *tls.Config
	switch {
	case rt.viaProxy():
		addr = rt.proxyAddr
		if rt.proxySecure {
			dialCfg = tlsConfigFor(opts.TLSConfig, rt.proxyHost)
		}
	case rt.secure:
		dialCfg = tlsConfigFor(opts.TLSConfig, peer)
	}

	ch, err := f.dialer().Dial(ctx, addr, dialCfg)
	if err != nil {
		return nil, &TransportError{Op: "dial", Addr: addr, Err: err}
	}
	tc := &timeoutChannel{Channel: ch, timeout: opts.readTimeout(f.Defaults)}
	c := &hopConn{ch: tc, addr: addr}
	c.br = bufio.NewReader(tc)
	c.lines = &http1.LineReader{BR: c.br, MaxLine: opts.MaxHeaderLine}

	if rt.tunnel() {
		if err := f.openTunnel(ctx, c, loc, peer, lg); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (f *Fetcher) openTunnel(ctx context.Context, c *hopConn, loc Locator, peer string, lg *zap.Logger) error {
	proxyAuth, _ := http1.FindHeaderLine(f.Options.headerBlock(), "Proxy-Authorization")
	if err := http1.WriteConnect(c.ch, loc.HostPort(), proxyAuth); err != nil {
		return &TransportError{Op: "connect", Addr: c.addr, Err: fmt.Errorf("cannot connect to HTTPS server through proxy: %w", err)}
	}
	status, err := http1.SkipHeaderBlock(c.lines)
	if err != nil {
		return &TransportError{Op: "connect", Addr: c.addr, Err: err}
	}
	lg.Debug("proxy tunnel response", zap.String("proxy", c.addr), zap.String("status", status))
	if c.br.Buffered() > 0 {
		return &TransportError{Op: "connect", Addr: c.addr, Err: errors.New("proxy sent data before TLS handshake")}
	}
	if err := c.ch.StartTLS(ctx, tlsConfigFor(f.Options.TLSConfig, peer)); err != nil {
		return &TransportError{Op: "tls", Addr: c.addr, Err: fmt.Errorf("cannot connect to HTTPS server through proxy: %w", err)}
	}
	// Bytes from here on are plaintext of the tunnelled TLS session.
	c.br.Reset(c.ch)
	return nil
}
