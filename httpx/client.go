package httpx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"dqx0.com/go/httpfetch/httpx/internal/http1"
	"dqx0.com/go/httpfetch/internal/obs"
)

// DefaultMaxRedirects is the redirect budget of a fetch chain.
const DefaultMaxRedirects = 20

// OpenFlags modify how a fetch treats the response.
type OpenFlags uint8

const (
	// HeadersOnly accepts any status and never installs a body decoder.
	HeadersOnly OpenFlags = 1 << iota
)

// Fetcher opens http and https URLs as readable streams, following
// redirects. Its fields are read-only while a fetch runs, so one Fetcher
// may serve concurrent Open calls.
type Fetcher struct {
	Options  Options
	Defaults Defaults

	Dialer   Dialer   // nil uses NetDialer
	Fallback Opener   // handles non-http schemes when no proxy is set; nil uses FileOpener
	Notifier Notifier // nil discards events

	Logger *zap.Logger
	Meter  obs.Meter
}

// NewFetcher returns a Fetcher with opts and the default process settings.
func NewFetcher(opts Options) *Fetcher {
	return &Fetcher{Options: opts, Defaults: DefaultDefaults()}
}

// Open fetches rawURL. mode follows fopen conventions; any write intent is
// refused for http and https. On success the Stream is positioned at the
// first body byte and carries the final response's headers.
func (f *Fetcher) Open(ctx context.Context, rawURL, mode string, flags OpenFlags) (*Stream, error) {
	id, ok := FetchIDFrom(ctx)
	if !ok {
		id = genID()
	}
	lg := f.logger().With(zap.String("fetch_id", id))
	start := time.Now()

	s, hop, err := f.run(ctx, rawURL, mode, flags, lg)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		kind := errorKind(err)
		lg.Warn("fetch failed",
			zap.String("url", rawURL),
			zap.Int("hop", hop),
			zap.String("kind", kind),
			zap.Error(err))
		f.meter().Counter("httpx_fetch_errors_total", 1, obs.Label{Key: "kind", Value: kind})
		f.meter().Histogram("httpx_fetch_duration_ms", elapsed, obs.Label{Key: "outcome", Value: "error"})
		return nil, err
	}
	f.meter().Histogram("httpx_fetch_duration_ms", elapsed, obs.Label{Key: "outcome", Value: "ok"})
	lg.Debug("fetch complete", zap.String("url", s.URL), zap.Int("hops", len(s.Hops)))
	return s, nil
}

// run drives the redirect chain. Each iteration is one hop with its own
// channel and header state; only the locator, budget and flags carry over.
// The returned count is the hop the chain ended on, 0 if none was started.
func (f *Fetcher) run(ctx context.Context, rawURL, mode string, flags OpenFlags, lg *zap.Logger) (*Stream, int, error) {
	loc, err := ParseLocator(rawURL)
	if err != nil {
		return nil, 0, err
	}
	budget := DefaultMaxRedirects
	fl := flagFirstHop
	var hops []Hop

	for n := 1; ; n++ {
		if budget < 1 {
			return nil, n, ErrRedirectLimit
		}

		var rt route
		if !loc.IsHTTP() {
			if f.Options.Proxy == "" {
				s, err := f.fallback(ctx, loc, mode, hops)
				return s, n, err
			}
			// A foreign scheme through an HTTP proxy is requested by full URI.
			rt.fullURI = true
		} else {
			if strings.ContainsAny(mode, "awx+") {
				return nil, n, ErrWriteNotSupported
			}
			rt.fullURI = f.Options.fullURI()
			rt.secure = loc.Secure()
			loc = loc.WithDefaultPort()
		}
		if f.Options.Proxy != "" {
			rt.proxyAddr, rt.proxyHost, rt.proxySecure, err = parseProxy(f.Options.Proxy)
			if err != nil {
				return nil, n, err
			}
		}
		if fl.has(flagFirstHop) && f.Options.MaxRedirects != nil {
			budget = *f.Options.MaxRedirects
		}

		res, err := f.hop(ctx, loc, rt, fl, budget, flags, lg.With(zap.Int("hop", n), zap.String("url", loc.Raw)))
		if err != nil {
			return nil, n, err
		}
		hops = append(hops, res.summary)
		if res.stream != nil {
			res.stream.URL = loc.Raw
			res.stream.Hops = hops
			return res.stream, n, nil
		}

		f.meter().Counter("httpx_fetch_redirects_total", 1, obs.Label{Key: "code", Value: strconv.Itoa(res.summary.StatusCode)})
		loc = res.next
		budget--
		fl = flagRedirected
		if res.keepMethod {
			fl |= flagKeepMethod
		}
	}
}

// Hop summarizes one response of a redirect chain.
type Hop struct {
	URL        string
	StatusCode int
	Headers    HeaderList
}

type hopResult struct {
	stream     *Stream // set on terminal success
	next       Locator // set when the chain continues
	keepMethod bool
	summary    Hop
}

// hop runs connect, request, status and header parsing for one URL and
// decides whether the chain ends here. Any channel or decoder that is not
// handed to the returned Stream is released before hop returns.
func (f *Fetcher) hop(ctx context.Context, loc Locator, rt route, fl hopFlags, budget int, flags OpenFlags, lg *zap.Logger) (*hopResult, error) {
	n := f.notifier()
	if rt.fullURI && strings.ContainsAny(loc.Raw, "\r\n") {
		return nil, fmt.Errorf("%w: full URI path does not allow CR or LF characters", ErrInvalidURL)
	}
	c, err := f.connect(ctx, loc, rt, lg)
	if err != nil {
		return nil, err
	}
	st := newHeaderState()
	handedOff := false
	defer func() {
		if !handedOff {
			_ = c.Close()
			st.decoder.release()
		}
	}()
	n.Connect()

	req, method := f.buildRequest(loc, rt, fl, n, lg)
	if err := c.write(req); err != nil {
		return nil, err
	}
	f.meter().Counter("httpx_fetch_hops_total", 1, obs.Label{Key: "method", Value: method})
	lg.Debug("request sent", zap.String("method", method), zap.String("addr", c.addr))

	statusLine, code, err := readStatus(c)
	if err != nil {
		return nil, err
	}
	f.meter().Counter("httpx_fetch_responses_total", 1, obs.Label{Key: "status", Value: strconv.Itoa(code)})

	headersOnly := flags&HeadersOnly != 0
	ignore := f.Options.ignoreErrors()
	ok := headersOnly || ignore
	switch {
	case code >= 200 && code < 400:
		ok = true
	case code == 403:
		n.AuthResult(statusLine, code)
	default:
		n.Failure(statusLine, code)
	}

	p := &headerParser{
		opts:        &f.Options,
		code:        code,
		headersOnly: headersOnly,
		notify:      n,
		st:          st,
		out:         HeaderList{statusLine},
	}
	if err := p.parse(c.lines); err != nil {
		return nil, err
	}
	res := &hopResult{summary: Hop{URL: loc.Raw, StatusCode: code, Headers: p.out}}
	lg.Debug("response", zap.Int("status", code), zap.Int("headers", len(p.out)-1))

	if !ok || (st.hasLocation && st.follow) {
		if !st.follow {
			return nil, &StatusError{Code: code, StatusLine: statusLine}
		}
		if (headersOnly || ignore) && budget <= 1 {
			return nil, fmt.Errorf("%w: not following %q", ErrRedirectLimit, st.location)
		}
		if !st.hasLocation {
			return nil, &StatusError{Code: code, StatusLine: statusLine}
		}
		n.Redirected(st.location)
		target := resolveLocation(loc, st.location)
		next, err := redirectTarget(target)
		if err != nil {
			return nil, err
		}
		lg.Info("following redirect", zap.Int("status", code), zap.String("location", target))
		res.next = next
		res.keepMethod = code == 307 || code == 308
		return res, nil
	}

	handedOff = true
	res.stream = newStream(c, st, p.out, n)
	return res, nil
}

// readStatus reads the status line, skipping informational responses other
// than 101. A status line cut short by EOF fails the hop.
func readStatus(c *hopConn) (string, int, error) {
	line, err := readStatusLine(c)
	if err != nil {
		return "", 0, err
	}
	code := http1.StatusCode(line)
	if http1.IsInterim(code) {
		for {
			line, err = readStatusLine(c)
			if err != nil {
				return "", 0, err
			}
			if http1.IsStatusLine(line) {
				break
			}
		}
		code = http1.StatusCode(line)
	}
	return http1.TrimEOL(line), code, nil
}

func readStatusLine(c *hopConn) (string, error) {
	line, err := c.lines.ReadLine()
	switch {
	case errors.Is(err, http1.ErrLineTooLong):
		return "", errLineTooLong
	case err != nil:
		return "", &TransportError{Op: "read", Addr: c.addr, Err: fmt.Errorf("HTTP request failed: %w", err)}
	case !http1.Terminated(line):
		return "", &TransportError{Op: "read", Addr: c.addr, Err: errors.New("HTTP request failed: incomplete status line")}
	}
	return line, nil
}

func (f *Fetcher) fallback(ctx context.Context, loc Locator, mode string, hops []Hop) (*Stream, error) {
	op := f.Fallback
	if op == nil {
		op = FileOpener{}
	}
	rc, err := op.Open(ctx, loc, mode)
	if err != nil {
		return nil, err
	}
	return &Stream{URL: loc.Raw, Size: -1, Hops: hops, body: rc, closer: rc, notify: f.notifier()}, nil
}

func (f *Fetcher) dialer() Dialer {
	if f.Dialer != nil {
		return f.Dialer
	}
	return &NetDialer{}
}

func (f *Fetcher) notifier() Notifier {
	if f.Notifier != nil {
		return f.Notifier
	}
	return NopNotifier{}
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return zap.NewNop()
}

func (f *Fetcher) meter() obs.Meter {
	if f.Meter != nil {
		return f.Meter
	}
	return obs.NopMeter{}
}
