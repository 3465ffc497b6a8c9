package httpx

import "context"

type ctxKey int

const ctxKeyFetchID ctxKey = iota

// WithFetchID returns a new context whose fetches log under id.
func WithFetchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyFetchID, id)
}

// FetchIDFrom extracts the fetch ID from ctx.
func FetchIDFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxKeyFetchID)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
