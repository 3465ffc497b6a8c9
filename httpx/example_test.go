package httpx_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"dqx0.com/go/httpfetch/httpx"
)

// ExampleHeaderList shows header lookups on a final response.
func ExampleHeaderList() {
	h := httpx.HeaderList{"HTTP/1.1 200 OK", "X-Foo: a", "x-foo: b", "Content-Type: text/plain"}
	fmt.Println(h.StatusLine())
	fmt.Println(h.Get("X-FOO"))
	fmt.Println(len(h.Values("x-foo")))
	// Output:
	// HTTP/1.1 200 OK
	// a
	// 2
}

// ExampleParseLocator shows how the Host header value is derived.
func ExampleParseLocator() {
	loc, err := httpx.ParseLocator("https://user@example.com:8443/a%20b?q=1")
	if err != nil {
		panic(err)
	}
	fmt.Println(loc.Authority())
	fmt.Println(loc.RequestTarget())
	fmt.Println(loc.User)
	// Output:
	// example.com:8443
	// /a%20b?q=1
	// user
}

// ExampleFetcher_Open fetches a URL through a proxy with a custom header.
func ExampleFetcher_Open() {
	f := httpx.NewFetcher(httpx.Options{
		Proxy:        "tcp://proxy.internal:3128",
		Header:       []string{"Accept: text/plain"},
		MaxRedirects: httpx.Int(5),
		Timeout:      httpx.Float(2.5),
	})
	ctx := httpx.WithFetchID(context.Background(), "docs-1")
	s, err := f.Open(ctx, "https://example.com/", "r", 0)
	var se *httpx.StatusError
	switch {
	case errors.As(err, &se):
		fmt.Println("server said", se.Code)
		return
	case err != nil:
		fmt.Println(err)
		return
	}
	defer s.Close()
	io.Copy(os.Stdout, s)
}
