package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"subweave/internal/services"
)

const (
	defaultHTTPTimeout    = 15 * time.Second
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryMaxDelay  = 8 * time.Second
	// defaultRetryAttempts is the first attempt plus three retries.
	defaultRetryAttempts = 4
	// minCallInterval paces consecutive API calls.
	minCallInterval = 100 * time.Millisecond
)

// Config captures the runtime settings required to talk to the translation API.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client wraps the translation HTTP API. It is safe for concurrent use; the
// call pacing clock and the quota latch are guarded internally.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)

	mu            sync.Mutex
	lastCall      time.Time
	quotaExceeded bool
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the total attempt count (defaults to 4:
// one attempt plus three retries).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how pacing and retry sleeps are performed (useful
// for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a translation client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// QuotaExceeded reports whether the quota latch has tripped for this run.
func (c *Client) QuotaExceeded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quotaExceeded
}

type translateRequest struct {
	Text   string `json:"text"`
	Target string `json:"target"`
	Source string `json:"source,omitempty"`
}

type translateResponse struct {
	Translation string `json:"translation"`
	Detected    string `json:"detected_language"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Translate renders text into targetLang. sourceLang may be empty, in which
// case the service detects it. Once the quota latch has tripped every call
// fails fast with ErrQuotaExceeded.
func (c *Client) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", services.Wrap(services.ErrValidation, "translate", "translate", "text required", nil)
	}
	if strings.TrimSpace(targetLang) == "" {
		return "", services.Wrap(services.ErrValidation, "translate", "translate", "target language required", nil)
	}
	if c.cfg.BaseURL == "" {
		return "", services.Wrap(services.ErrTranslationUnavailable, "translate", "translate", "no endpoint configured", nil)
	}

	payload := translateRequest{Text: text, Target: targetLang, Source: sourceLang}
	var parsed translateResponse
	if err := c.callWithRetry(ctx, "/translate", payload, &parsed, "translate"); err != nil {
		return "", err
	}
	if parsed.Error != nil {
		return "", services.Wrap(services.ErrTranslationUnavailable, "translate", "translate",
			strings.TrimSpace(parsed.Error.Message), nil)
	}
	translation := strings.TrimSpace(parsed.Translation)
	if translation == "" {
		return "", services.Wrap(services.ErrTranslationUnavailable, "translate", "translate", "empty translation", nil)
	}
	return translation, nil
}

// DetectLanguage asks the service which language text is written in. The
// boolean is false when the service cannot tell or is unreachable.
func (c *Client) DetectLanguage(ctx context.Context, text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || c.cfg.BaseURL == "" {
		return "", false
	}
	var parsed detectResponse
	if err := c.callWithRetry(ctx, "/detect", detectRequest{Text: text}, &parsed, "detect"); err != nil {
		return "", false
	}
	lang := strings.ToLower(strings.TrimSpace(parsed.Language))
	if lang == "" {
		return "", false
	}
	return lang, true
}

func (c *Client) callWithRetry(ctx context.Context, path string, payload, target any, op string) error {
	if c.QuotaExceeded() {
		return services.Wrap(services.ErrQuotaExceeded, "translate", op, "quota latch tripped earlier in this run", nil)
	}

	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.pace(ctx); err != nil {
			return err
		}
		err := c.sendOnce(ctx, path, payload, target)
		if err == nil {
			return nil
		}
		mapped := c.mapError(op, err)
		if errors.Is(mapped, services.ErrQuotaExceeded) {
			c.mu.Lock()
			c.quotaExceeded = true
			c.mu.Unlock()
			return mapped
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return mapped
		}
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		lastErr = mapped
	}
	if lastErr == nil {
		lastErr = services.Wrap(services.ErrTransient, "translate", op, "unknown retry failure", nil)
	}
	return lastErr
}

// pace enforces the minimum interval between consecutive API calls.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := minCallInterval - now.Sub(c.lastCall)
	if wait < 0 {
		wait = 0
	}
	c.lastCall = now.Add(wait)
	c.mu.Unlock()
	return c.sleep(ctx, wait)
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("translate request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (c *Client) sendOnce(ctx context.Context, path string, payload, target any) error {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return fmt.Errorf("translate request: build url: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("translate request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("translate request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("translate request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("translate request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("translate request: decode response: %w", err)
	}
	return nil
}

// mapError folds transport errors into the run-level taxonomy.
func (c *Client) mapError(op string, err error) error {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusPaymentRequired,
			statusErr.StatusCode == http.StatusForbidden:
			return services.Wrap(services.ErrQuotaExceeded, "translate", op, statusErr.Body, nil)
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return services.Wrap(services.ErrRateLimited, "translate", op, statusErr.Body, nil)
		case statusErr.StatusCode == http.StatusRequestTimeout:
			return services.Wrap(services.ErrTimeout, "translate", op, statusErr.Body, nil)
		case statusErr.StatusCode >= http.StatusInternalServerError:
			return services.Wrap(services.ErrTransient, "translate", op, statusErr.Body, nil)
		default:
			return services.Wrap(services.ErrTranslationUnavailable, "translate", op, statusErr.Body, nil)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "translate", op, "request deadline exceeded", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "translate", op, "network timeout", err)
	}
	return services.Wrap(services.ErrTransient, "translate", op, "transport failure", err)
}

func (c *Client) retryAttempts() int {
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

// retryDelay decides whether an attempt should be retried and how long to
// wait first. Only rate limiting, timeouts, and server-side failures retry.
func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay doubles per attempt: base, base*2, base*4, capped at the max.
func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > c.retryMaxDelay/2 {
			delay = c.retryMaxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		return errors.New("translate retry: nil context")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
