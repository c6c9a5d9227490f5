// Package edge talks to the hosted AI-insight and text-to-speech functions.
package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// maxBody caps how much of an upstream response is read.
const maxBody = 16 << 20

// StatusError is a non-2xx answer from a hosted function.
type StatusError struct {
	Target     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Target, e.StatusCode, e.Body)
}

// HTTPStatus exposes the upstream status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Options configure a Client.
type Options struct {
	APIKey string
	// Timeout bounds each attempt.
	Timeout time.Duration
	// MaxElapsed bounds all attempts together.
	MaxElapsed time.Duration
	// InitialInterval is the first retry delay.
	InitialInterval time.Duration
	// Observe, when set, is told the outcome of every call.
	Observe func(target, outcome string)
}

// Client posts JSON to hosted functions, retrying transport errors and 5xx
// answers with exponential backoff. 4xx answers are not retried.
type Client struct {
	http *http.Client
	opts Options
	log  *logrus.Entry
}

func NewClient(opts Options, log *logrus.Entry) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxElapsed <= 0 {
		opts.MaxElapsed = 20 * time.Second
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{http: &http.Client{Timeout: opts.Timeout}, opts: opts, log: log}
}

type reply struct {
	body        []byte
	contentType string
}

func (c *Client) observe(target, outcome string) {
	if c.opts.Observe != nil {
		c.opts.Observe(target, outcome)
	}
}

func (c *Client) postJSON(ctx context.Context, target, url string, payload any) (*reply, error) {
	if url == "" {
		return nil, fmt.Errorf("%s url not configured", target)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", target, err)
	}
	log := c.log.WithField("target", target)

	var out *reply
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.opts.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			log.WithError(err).Warn("edge request failed")
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return fmt.Errorf("read %s response: %w", target, err)
		}
		if resp.StatusCode >= 300 {
			serr := &StatusError{Target: target, StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
			log.WithField("http_status", resp.StatusCode).Warn("edge request rejected")
			if resp.StatusCode < 500 {
				return backoff.Permanent(serr)
			}
			return serr
		}
		out = &reply{body: body, contentType: resp.Header.Get("Content-Type")}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.opts.MaxElapsed
	if c.opts.InitialInterval > 0 {
		b.InitialInterval = c.opts.InitialInterval
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		c.observe(target, outcomeOf(err))
		return nil, err
	}
	c.observe(target, "ok")
	return out, nil
}

func outcomeOf(err error) string {
	var serr *StatusError
	switch {
	case errors.As(err, &serr) && serr.StatusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case errors.As(err, &serr):
		return "rejected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
