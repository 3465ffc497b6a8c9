package httpx

import "strings"

// HeaderList is the response metadata of a fetch: element 0 is the status
// line, every following element one "Name: Value" header in receipt order,
// folded continuation lines already merged.
type HeaderList []string

// StatusLine returns element 0, or "" for an empty list.
func (h HeaderList) StatusLine() string {
	if len(h) == 0 {
		return ""
	}
	return h[0]
}

// Get returns the first value of the named header.
func (h HeaderList) Get(name string) string {
	if vv := h.Values(name); len(vv) > 0 {
		return vv[0]
	}
	return ""
}

// Values returns every value of the named header in receipt order.
func (h HeaderList) Values(name string) []string {
	var out []string
	for i := 1; i < len(h); i++ {
		k, v, ok := strings.Cut(h[i], ":")
		if !ok || !strings.EqualFold(k, name) {
			continue
		}
		out = append(out, strings.TrimLeft(v, " \t"))
	}
	return out
}
