// Package rest wraps the O2 HTTP gateway with typed endpoints and the
// error classification the gateway's mixed conventions require.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/o2-exchange/sdk-go/params"
	"github.com/o2-exchange/sdk-go/pkg/apierr"
)

const (
	maxAttempts      = 3
	defaultRetryBase = time.Second
)

// Client talks to one network's gateway and faucet.
type Client struct {
	endpoints params.Endpoints
	http      *http.Client
	log       *zap.Logger

	// retryBase scales the rate-limit backoff; tests shrink it
	retryBase time.Duration
}

// New builds a Client for the given endpoints.
func New(endpoints params.Endpoints, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		endpoints: endpoints,
		http:      &http.Client{Timeout: 30 * time.Second},
		log:       log,
		retryBase: defaultRetryBase,
	}
}

// Endpoints returns the network endpoints this client targets.
func (c *Client) Endpoints() params.Endpoints { return c.endpoints }

// doJSON performs one logical request: marshal body, send, classify the
// response, decode into out. Rate-limited attempts (code 1003 or HTTP 429)
// are retried with doubling backoff up to maxAttempts before surfacing.
func (c *Client) doJSON(ctx context.Context, method, url string, body any, headers map[string]string, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	for attempt := 1; ; attempt++ {
		raw, status, err := c.send(ctx, method, url, payload, headers)
		if err != nil {
			return err
		}

		if rateLimited(status, raw) {
			if attempt >= maxAttempts {
				return apierr.New(apierr.CodeRateLimitExceeded, "rate limit exceeded after %d attempts", attempt)
			}
			wait := c.retryBase << attempt
			c.log.Warn("rate limited, backing off",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if status >= 400 {
			return classifyError(status, raw)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response from %s: %w", url, err)
		}
		return nil
	}
}

func (c *Client) send(ctx context.Context, method, url string, payload []byte, headers map[string]string) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response from %s: %w", url, err)
	}
	return raw, resp.StatusCode, nil
}

func rateLimited(status int, raw []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	var probe struct {
		Code *uint32 `json:"code"`
	}
	if json.Unmarshal(raw, &probe) == nil && probe.Code != nil {
		return apierr.Code(*probe.Code) == apierr.CodeRateLimitExceeded
	}
	return false
}

// classifyError maps a non-2xx body onto the error taxonomy: a numeric
// code means a gateway pre-flight error, a message without a code means an
// on-chain revert, anything else is a plain transport error.
func classifyError(status int, raw []byte) error {
	var probe struct {
		Code     *uint32         `json:"code"`
		Message  *string         `json:"message"`
		Reason   *string         `json:"reason"`
		Receipts json.RawMessage `json:"receipts"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil {
		if probe.Code != nil {
			msg := ""
			if probe.Message != nil {
				msg = *probe.Message
			}
			return apierr.FromCode(*probe.Code, msg)
		}
		if probe.Message != nil {
			reason := ""
			if probe.Reason != nil {
				reason = *probe.Reason
			}
			return &apierr.RevertError{
				Message:  *probe.Message,
				Reason:   reason,
				Receipts: probe.Receipts,
			}
		}
	}
	return &apierr.TransportError{Status: status, Body: string(raw)}
}
