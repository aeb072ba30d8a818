// Package httpx holds the HTTP plumbing shared by catalog adapters: bearer
// authentication, request pacing, bounded retries on rate limiting and the
// mapping of provider responses to domain errors.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/jpp0ca/tunebridge/internal/domain"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRetryMax  = 3
	defaultBaseDelay = 500 * time.Millisecond
	maxRetryWait     = 60 * time.Second
)

// Options configures a provider client.
type Options struct {
	Provider string
	Token    string

	// Base is the underlying transport; http.DefaultTransport when nil.
	Base http.RoundTripper

	Timeout time.Duration

	// RateLimit caps requests per second; zero or negative disables pacing.
	RateLimit float64

	// RetryMax is the number of retries after the first attempt.
	RetryMax int

	// BaseDelay is the first backoff step when no Retry-After is given.
	BaseDelay time.Duration

	Logger *log.Logger
}

// NewClient returns an *http.Client that authenticates every request with
// the bearer token and retries rate-limited requests.
func NewClient(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	rt := &Transport{
		Base:      base,
		Limiter:   rate.NewLimiter(limit, 1),
		RetryMax:  opts.RetryMax,
		BaseDelay: opts.BaseDelay,
		provider:  opts.Provider,
		logger:    opts.Logger,
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   rt,
		},
		Timeout: opts.Timeout,
	}
}

// Transport paces requests and retries 429 responses, and 5xx responses of
// replayable requests, with exponential backoff.
type Transport struct {
	Base      http.RoundTripper
	Limiter   *rate.Limiter
	RetryMax  int
	BaseDelay time.Duration

	provider string
	logger   *log.Logger
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	ctx := req.Context()
	canReplay := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil

	for attempt := 0; ; attempt++ {
		if t.Limiter != nil {
			if err := t.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		r, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}

		resp, err := t.Base.RoundTrip(r)
		if err != nil {
			return nil, err
		}
		if attempt >= t.RetryMax || !canReplay || !retryable(req.Method, resp.StatusCode) {
			return resp, nil
		}

		wait := RetryAfter(resp.Header)
		if wait == 0 {
			wait = t.BaseDelay << attempt
		}
		if wait > maxRetryWait {
			return resp, nil
		}
		drain(resp)

		if t.logger != nil {
			t.logger.Debug("retrying provider request",
				"provider", t.provider, "status", resp.StatusCode, "attempt", attempt+1, "wait", wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func retryable(method string, status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if status >= 500 {
		return method == http.MethodGet || method == http.MethodHead
	}
	return false
}

func rewind(req *http.Request, attempt int) (*http.Request, error) {
	r := req.Clone(req.Context())
	if attempt > 0 && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	return r, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryAfter parses a Retry-After header given in seconds or as an HTTP date.
func RetryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// CheckResponse returns nil for 2xx responses and a *domain.ProviderError
// otherwise. The body of a failed response is consumed.
func CheckResponse(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	pe := domain.NewProviderError(provider, resp.StatusCode, errorMessage(body))
	pe.RetryAfter = RetryAfter(resp.Header)
	return pe
}

// errorMessage extracts a readable message from the common provider error
// envelopes, falling back to the raw body.
func errorMessage(body []byte) string {
	var envelope struct {
		Error            json.RawMessage `json:"error"`
		UserMessage      string          `json:"userMessage"`
		Detail           string          `json:"detail"`
		Message          string          `json:"message"`
		ErrorDescription string          `json:"error_description"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, s := range []string{envelope.UserMessage, envelope.Detail, envelope.Message, envelope.ErrorDescription} {
			if s != "" {
				return s
			}
		}
		if len(envelope.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
				return nested.Message
			}
			var s string
			if err := json.Unmarshal(envelope.Error, &s); err == nil && s != "" {
				return s
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// WrapTransportError turns a failure below HTTP (DNS, reset connections)
// into an unknown provider error. Context errors pass through unchanged.
func WrapTransportError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.ProviderError{Provider: provider, Kind: domain.KindUnknown, Message: fmt.Sprint(err)}
}
