package sink

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// Uploader posts each case as JSON to a remote endpoint
type Uploader struct {
	client   *resty.Client
	endpoint string
}

// NewUploader creates an upload sink. The API key is sent both as an
// "apikey" header and as a bearer token.
func NewUploader(endpoint, apiKey string) (*Uploader, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: upload sink needs sink.upload_url", ErrUnconfigured)
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid upload URL %q", ErrUnconfigured, endpoint)
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("apikey", apiKey)
		client.SetAuthToken(apiKey)
	}

	return &Uploader{client: client, endpoint: endpoint}, nil
}

// Send implements Sink
func (u *Uploader) Send(ctx context.Context, msg Message) error {
	res, err := u.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post(u.endpoint)
	if err != nil {
		return fmt.Errorf("upload %s: %w", msg.CaseNumber, err)
	}
	if res.IsError() {
		return fmt.Errorf("upload %s: unexpected status: %d", msg.CaseNumber, res.StatusCode())
	}
	return nil
}

// Close implements Sink
func (u *Uploader) Close() error { return nil }
