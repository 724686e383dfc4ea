package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout bounds one upstream request
	DefaultTimeout = 30 * time.Second

	maxTries        = 3
	maxBodyBytes    = 4 << 20
	rawPreviewRunes = 500
)

// ErrUnavailable is returned for categories without a configured endpoint
var ErrUnavailable = errors.New("lookup category unavailable")

// Client calls the upstream lookup APIs
type Client struct {
	endpoints  map[string]string
	http       *http.Client
	newBackOff func() backoff.BackOff
}

// NewClient creates a client for the category -> endpoint prefix map
func NewClient(endpoints map[string]string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoints: endpoints,
		http:      &http.Client{Timeout: timeout},
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Has reports whether the category has a configured endpoint
func (c *Client) Has(category string) bool {
	return c.endpoints[category] != ""
}

type upstreamError struct {
	status int
	body   []byte
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.status)
}

// Fetch requests <endpoint><escaped input> and decodes the body into a tree.
// Network failures and 5xx responses are retried; a body that is not JSON
// becomes an error mapping holding the start of the raw text.
func (c *Client) Fetch(ctx context.Context, category, input string) (Node, error) {
	endpoint := c.endpoints[category]
	if endpoint == "" {
		return nil, ErrUnavailable
	}
	target := endpoint + url.QueryEscape(input)

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return &upstreamError{status: resp.StatusCode, body: data}
		}

		body = data
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), maxTries-1), ctx)
	notify := func(err error, wait time.Duration) {
		log.WithFields(log.Fields{
			"category": category,
			"attempt":  attempt,
			"wait":     wait,
		}).WithError(err).Warn("Lookup request failed, retrying")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		// A persistent 5xx still carries a body worth showing
		var upstream *upstreamError
		if !errors.As(err, &upstream) {
			return nil, err
		}
		body = upstream.body
	}

	node, err := Parse(body)
	if err != nil {
		return invalidJSON(body), nil
	}
	return node, nil
}

func invalidJSON(body []byte) *Mapping {
	raw := []rune(string(body))
	if len(raw) > rawPreviewRunes {
		raw = raw[:rawPreviewRunes]
	}
	return NewMapping().
		Set("error", String("Invalid JSON response")).
		Set("raw", String(string(raw)))
}

// ServerError is the payload shown when the upstream could not be reached
func ServerError(err error) *Mapping {
	return NewMapping().
		Set("error", String("Server Error")).
		Set("details", String(err.Error()))
}
