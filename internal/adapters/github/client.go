// Package github provides a resilient GitHub REST v3 client for the fetch pipeline
package github

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	perr "reposcope/internal/platform/errors"
	"reposcope/internal/platform/logger"
)

const (
	baseURLDefault     = "https://api.github.com"
	codeloadURLDefault = "https://codeload.github.com"
	defaultTimeout     = 15 * time.Second
	defaultUA          = "reposcope"
	defaultMaxRetry    = 4
	defaultRetryBase   = 500 * time.Millisecond
	defaultPerPage     = 100
)

// Options configures the Client
type Options struct {
	BaseURL     string
	CodeloadURL string
	UserAgent   string
	Timeout     time.Duration

	// Personal access token; empty means anonymous public-only access
	// with a very low quota
	Token string

	// Retry config for transient and rate limited responses
	MaxRetries int
	RetryBase  time.Duration
}

// Client is a minimal GitHub REST client with retries and rate limit awareness
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(time.Duration)
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.CodeloadURL == "" {
		o.CodeloadURL = codeloadURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	o.Token = strings.TrimSpace(o.Token)
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("github"),
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Authenticated reports whether the client carries a token
func (c *Client) Authenticated() bool { return c.opts.Token != "" }

// do issues a request with auth headers, retries, and rate limit handling.
// A non-nil response always has a 2xx status; every other outcome is a coded error
func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	url := c.opts.BaseURL + path
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil, perr.Wrap(ctx.Err(), perr.ErrorCodeCanceled, "github request canceled")
		default:
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "github new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/vnd.github+json")
		if c.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.Token)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, perr.Wrap(ctx.Err(), perr.ErrorCodeCanceled, "github request canceled")
			}
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github do failed")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("github transport error retrying")
			c.sleep(back)
			attempts++
			continue
		}

		// Always log lightweight response metadata
		rem, reset, retryAfter := parseRateHeaders(resp.Header)
		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Int("rate_remaining", rem).
			Time("rate_reset", reset).
			Int("retry_after_s", retryAfter).
			Msg("github http response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil

		case resp.StatusCode == http.StatusNotFound:
			_ = drainAndClose(resp.Body)
			return nil, perr.NotFoundf("github %s not found", path)

		case resp.StatusCode == http.StatusUnauthorized:
			_ = drainAndClose(resp.Body)
			return nil, perr.Unauthorizedf("github rejected credentials")

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
			// 403 doubles as secondary rate limiting; respect Retry-After and
			// X-RateLimit-Reset when present. A 403 with quota left is a real
			// permission failure, not a rate limit
			if resp.StatusCode == http.StatusForbidden && rem > 0 && retryAfter == 0 {
				_ = drainAndClose(resp.Body)
				return nil, perr.Unauthorizedf("github forbade %s", path)
			}
			wait := computeWait(rem, reset, retryAfter, c.now())
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			if !c.shouldRetry(attempts) {
				_ = drainAndClose(resp.Body)
				return nil, perr.RateLimitedf("github rate limited")
			}
			c.log.Warn().Dur("sleep", wait).Msg("github rate limited backing off")
			_ = drainAndClose(resp.Body)
			c.sleep(wait)
			attempts++
			continue

		case resp.StatusCode >= 500:
			if !c.shouldRetry(attempts) {
				_ = drainAndClose(resp.Body)
				return nil, perr.Unavailablef("github transient server error")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("github transient error retrying")
			_ = drainAndClose(resp.Body)
			c.sleep(back)
			attempts++
			continue

		default:
			// read a small tail for diagnostics then return
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, perr.Internalf("github unexpected status %d body %s", resp.StatusCode, string(body))
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase
	// simple exponential with cap
	ms := int64(d / time.Millisecond)
	ms = ms << uint(attempt)
	capMs := int64(30 * time.Second / time.Millisecond)
	if ms > capMs {
		ms = capMs
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}
