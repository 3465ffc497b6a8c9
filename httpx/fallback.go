package httpx

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Opener opens locators whose scheme is not http or https.
type Opener interface {
	Open(ctx context.Context, loc Locator, mode string) (io.ReadCloser, error)
}

// FileOpener serves file:// locators read-only.
type FileOpener struct{}

func (FileOpener) Open(_ context.Context, loc Locator, mode string) (io.ReadCloser, error) {
	if loc.Scheme != "file" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, loc.Scheme)
	}
	if strings.ContainsAny(mode, "awx+") {
		return nil, ErrWriteNotSupported
	}
	path, err := loc.DecodedPath()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return os.Open(path)
}
