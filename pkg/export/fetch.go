package export

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"github.com/alecthomas/units"
	"github.com/pkg/errors"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultMaxBody = 10 * units.MiB
)

var ErrFetch = errors.New("fetch failed")

// Fetcher downloads the live rendering of an error page.
type Fetcher struct {
	client  *http.Client
	maxBody int64
}

// NewFetcher verifies TLS certificates only in production, staging hosts
// usually carry self signed ones.
func NewFetcher(production bool, timeout time.Duration, maxBody units.Base2Bytes) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: !production, //nolint:gosec
	}
	return NewFetcherWithClient(&http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, maxBody)
}

func NewFetcherWithClient(client *http.Client, maxBody units.Base2Bytes) *Fetcher {
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	return &Fetcher{client: client, maxBody: int64(maxBody)}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrFetch, "%s: %v", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrFetch, "%s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errors.Wrapf(ErrFetch, "%s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, errors.Wrapf(ErrFetch, "%s: %v", url, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, errors.Wrapf(ErrFetch, "%s: body exceeds %s", url, units.Base2Bytes(f.maxBody))
	}
	return body, nil
}
