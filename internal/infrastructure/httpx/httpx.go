package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fxconv-service/internal/domain"

	"github.com/cenkalti/backoff/v4"
)

const maxBodyBytes = 4 << 20

// Client performs GET requests and classifies failures into the domain taxonomy.
// MaxRetries is the number of extra attempts on network errors and 5xx; zero means one attempt.
type Client struct {
	HTTP       *http.Client
	UserAgent  string
	Limiter    *HostLimiter
	MaxRetries uint64
}

// Get returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	httpc := c.HTTP
	if httpc == nil {
		httpc = http.DefaultClient
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 1 * time.Second
	exp.MaxElapsedTime = 3 * time.Second

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: build request: %v", domain.ErrNetwork, err))
		}
		if c.UserAgent != "" {
			req.Header.Set("User-Agent", c.UserAgent)
		}
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx, req.URL.Host); err != nil {
				return backoff.Permanent(fmt.Errorf("%w: rate limit: %v", domain.ErrNetwork, err))
			}
		}
		resp, err := httpc.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d", domain.ErrHTTPStatus, resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backoff.Permanent(fmt.Errorf("%w: status %d", domain.ErrHTTPStatus, resp.StatusCode))
		}
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("%w: read body: %v", domain.ErrNetwork, err)
		}
		body = b
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, c.MaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
		}
		return nil, err
	}
	return body, nil
}

// GetJSON decodes a 2xx JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode json: %v", domain.ErrParse, err)
	}
	return nil
}
