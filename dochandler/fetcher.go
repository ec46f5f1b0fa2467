package dochandler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dcmspec/dcmspec/dcmerr"
)

// Fetcher is the HTTP boundary DocHandler depends on. The network call
// itself is an explicit external collaborator — this interface is what
// makes it swappable in tests.
type Fetcher interface {
	Fetch(ctx context.Context, url, accept string) ([]byte, error)
}

// httpFetcher is the default Fetcher: a single timed request honoring
// Accept and the requested HTTP status, forcing UTF-8 decoding for XHTML is
// the caller's responsibility (the fetcher returns raw bytes).
type httpFetcher struct {
	client *http.Client
}

// NewHTTPFetcher returns the default net/http-backed Fetcher with a
// 30-second timeout.
func NewHTTPFetcher() Fetcher {
	return &httpFetcher{client: &http.Client{Timeout: 30 * time.Second}}
}

func (f *httpFetcher) Fetch(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, dcmerr.New(dcmerr.NetworkError, "dochandler.Fetch", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, dcmerr.New(dcmerr.NetworkError, "dochandler.Fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, dcmerr.New(dcmerr.NetworkError, "dochandler.Fetch", fmt.Errorf("unexpected status %s", resp.Status))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dcmerr.New(dcmerr.NetworkError, "dochandler.Fetch", err)
	}
	return b, nil
}
