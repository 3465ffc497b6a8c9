// Package httpx opens http and https URLs as readable byte streams over a
// raw HTTP/1.x connection.
//
// A fetch is a chain of hops. Each hop connects (directly, through a plain
// proxy, or through a CONNECT tunnel followed by TLS), writes one request
// with Connection: close, parses the status line and header block, and then
// either ends the chain or follows a Location header to the next hop. The
// chain is bounded by a redirect budget of 20 unless Options.MaxRedirects
// says otherwise.
//
//	f := httpx.NewFetcher(httpx.Options{Header: []string{"Accept: text/plain"}})
//	s, err := f.Open(ctx, "https://example.com/", "r", 0)
//	if err != nil { log.Fatal(err) }
//	defer s.Close()
//	fmt.Println(s.Headers.StatusLine())
//	io.Copy(os.Stdout, s)
//
// Responses with Transfer-Encoding: chunked are decoded transparently unless
// Options.AutoDecode is false or the fetch asked for HeadersOnly. Events such
// as redirects, MIME type, size and progress are reported to a Notifier.
package httpx
