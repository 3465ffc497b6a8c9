package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"dqx0.com/go/httpfetch/httpx"
	"dqx0.com/go/httpfetch/internal/config"
	"dqx0.com/go/httpfetch/internal/obs"
)

type headerFlags []string

func (h *headerFlags) String() string     { return strings.Join(*h, ", ") }
func (h *headerFlags) Set(v string) error { *h = append(*h, v); return nil }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("httpx-fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var headers headerFlags
	var (
		method      = fs.String("X", "", "request method")
		data        = fs.String("d", "", "request body")
		proxy       = fs.String("x", "", "proxy address (tcp://host:port)")
		timeout     = fs.Float64("timeout", 0, "read timeout in seconds (0 uses FETCH_SOCKET_TIMEOUT)")
		maxRedirs   = fs.Int("max-redirs", -1, "redirect budget (-1 keeps the default of 20)")
		noFollow    = fs.Bool("no-follow", false, "never follow Location headers")
		ignore      = fs.Bool("ignore-errors", false, "return the body of error responses")
		headersOnly = fs.Bool("I", false, "print response headers only")
		optsFile    = fs.String("options", "", "options file (.yaml, .yml or .toml)")
		metrics     = fs.Bool("metrics", false, "dump fetch metrics to stderr on exit")
	)
	fs.Var(&headers, "H", "extra request header (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: httpx-fetch [flags] URL")
		return 2
	}

	cfg := config.LoadOrDefault()
	lg := obs.MustLogger(cfg.LogConfig())
	defer lg.Sync()

	opts := httpx.Options{}
	if *optsFile != "" {
		var err error
		if opts, err = config.LoadOptions(*optsFile); err != nil {
			lg.Error("load options", zap.String("path", *optsFile), zap.Error(err))
			return 1
		}
	}
	if *method != "" {
		opts.Method = *method
	}
	if *data != "" {
		opts.Content = []byte(*data)
	}
	if *proxy != "" {
		opts.Proxy = *proxy
	}
	if *timeout > 0 {
		opts.Timeout = httpx.Float(*timeout)
	}
	if *maxRedirs >= 0 {
		opts.MaxRedirects = httpx.Int(*maxRedirs)
	}
	if *noFollow {
		opts.FollowLocation = httpx.Bool(false)
	}
	if *ignore {
		opts.IgnoreErrors = httpx.Bool(true)
	}
	opts.Header = append(opts.Header, headers...)

	reg := prometheus.NewRegistry()
	f := httpx.NewFetcher(opts)
	f.Defaults = cfg.Defaults()
	f.Logger = lg
	f.Meter = obs.NewPromMeter(reg)
	if *metrics {
		defer dumpMetrics(reg, stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var flags httpx.OpenFlags
	if *headersOnly {
		flags |= httpx.HeadersOnly
	}
	s, err := f.Open(ctx, fs.Arg(0), "r", flags)
	if err != nil {
		fmt.Fprintln(stderr, err)
		var se *httpx.StatusError
		if errors.As(err, &se) {
			return 22
		}
		return 1
	}
	defer s.Close()

	if *headersOnly {
		for _, h := range s.Headers {
			fmt.Fprintln(stdout, h)
		}
		return 0
	}
	if _, err := io.Copy(stdout, s); err != nil {
		lg.Error("read body", zap.String("url", s.URL), zap.Error(err))
		return 1
	}
	return 0
}

func dumpMetrics(g prometheus.Gatherer, w io.Writer) {
	mfs, err := g.Gather()
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			fmt.Fprintln(w, err)
			return
		}
	}
}
