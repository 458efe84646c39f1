// Package httpx is the JSON-over-HTTP client shared by the webhook style
// channel adapters.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/errors"
)

// DefaultTimeout applies when a channel configures no timeout.
const DefaultTimeout = 5 * time.Second

const maxResponseBody = 64 << 10

// Client posts JSON payloads on behalf of one channel.
type Client struct {
	channel string
	http    *http.Client
	headers map[string]string
	signer  *Signer
}

// New creates a client for channelType with the given request timeout.
func New(channelType string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		channel: channelType,
		http:    &http.Client{Timeout: timeout},
		headers: map[string]string{},
	}
}

// WithHeader sets a header sent with every request.
func (c *Client) WithHeader(key, value string) *Client {
	c.headers[key] = value
	return c
}

// WithSigner signs every request body with signer.
func (c *Client) WithSigner(signer *Signer) *Client {
	c.signer = signer
	return c
}

// Timeout returns the configured request timeout.
func (c *Client) Timeout() time.Duration { return c.http.Timeout }

// PostJSON encodes payload and posts it to url. Any non-2xx answer is an error.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) (*channel.Delivery, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrMessageEncoding, "failed to encode payload").WithChannel(c.channel)
	}

	return c.Post(ctx, url, "application/json", body)
}

// Post sends body with the given content type to url.
func (c *Client) Post(ctx context.Context, url, contentType string, body []byte) (*channel.Delivery, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidConfig, "failed to create request").
			WithChannel(c.channel).
			WithDetails(err.Error())
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.signer != nil {
		ts, sig := c.signer.headers(body)
		req.Header.Set(HeaderTimestamp, ts)
		req.Header.Set(HeaderSignature, sig)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(c.channel, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	text := strings.TrimSpace(string(raw))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewHTTPStatusError(c.channel, resp.StatusCode, text)
	}
	return &channel.Delivery{StatusCode: resp.StatusCode, Response: text}, nil
}

// DecodeID extracts a string or numeric field from a JSON object response.
func DecodeID(body string, key string) string {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

func transportError(channelType string, err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrap(err, errors.ErrNetworkTimeout, "request timed out").
			WithChannel(channelType).
			WithDetails(err.Error())
	}
	return errors.Wrap(err, errors.ErrNetworkConnection, "request failed").
		WithChannel(channelType).
		WithDetails(err.Error())
}
