// Package quote fetches random quotes for the quote typing mode.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public quotes API.
	DefaultBaseURL = "https://thequoteshub.com/api"
	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 10 * time.Second
	// DefaultRetries is the number of retries after the first failed attempt.
	DefaultRetries = 2

	unknownAuthor = "Unknown"
)

// Quote is a piece of text to type together with its attribution.
type Quote struct {
	ID         string
	Text       string
	Author     string
	AuthorSlug string
	Tags       []string
}

// FetchError reports a failed quote retrieval.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch quote: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("fetch quote: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrEmptyQuote is returned when the API answers without quote text.
var ErrEmptyQuote = errors.New("no quote found")

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    *int
	Backoff    time.Duration
	Limit      rate.Limit
	Burst      int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client retrieves quotes over HTTP.
// Every Fetch issues its own request so concurrent sessions get distinct
// quotes. Concurrent Prefetch calls share one background request.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	retries int
	backoff time.Duration
	limiter *rate.Limiter
	group   singleflight.Group
	logger  *slog.Logger

	mu      sync.Mutex
	pending *Quote
	served  string
}

type apiQuote struct {
	Text   string   `json:"text"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
	ID     int64    `json:"id"`
}

// NewClient builds a client from opts.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := DefaultRetries
	if opts.Retries != nil && *opts.Retries >= 0 {
		retries = *opts.Retries
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 300 * time.Millisecond
	}
	limit := opts.Limit
	if limit == 0 {
		limit = rate.Every(500 * time.Millisecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 2
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		timeout: timeout,
		retries: retries,
		backoff: backoff,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Fetch returns a random quote, using a prefetched one when available.
// The request is bound to ctx alone.
func (c *Client) Fetch(ctx context.Context) (Quote, error) {
	c.mu.Lock()
	if c.pending != nil {
		q := *c.pending
		c.pending = nil
		c.served = q.ID
		c.mu.Unlock()
		return q, nil
	}
	c.mu.Unlock()

	q, err := c.fetchWithRetry(ctx)
	if err != nil {
		return Quote{}, err
	}
	c.mu.Lock()
	c.served = q.ID
	if c.pending != nil && c.pending.ID == q.ID {
		c.pending = nil
	}
	c.mu.Unlock()
	return q, nil
}

// Prefetch retrieves a quote in the background and keeps it for the next
// Fetch. The request outlives ctx cancellation, bounded by the client's
// retry budget; ctx only limits how long the caller waits.
func (c *Client) Prefetch(ctx context.Context) error {
	c.mu.Lock()
	ready := c.pending != nil
	c.mu.Unlock()
	if ready {
		return nil
	}
	ch := c.group.DoChan("prefetch", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.prefetchBudget())
		defer cancel()
		q, err := c.fetchWithRetry(fctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.pending == nil && q.ID != c.served {
			c.pending = &q
		}
		return nil, nil
	})
	select {
	case <-ctx.Done():
		return &FetchError{Err: ctx.Err()}
	case res := <-ch:
		return res.Err
	}
}

func (c *Client) prefetchBudget() time.Duration {
	attempts := time.Duration(c.retries + 1)
	return attempts*c.timeout + attempts*attempts*c.backoff
}

func (c *Client) fetchWithRetry(ctx context.Context) (Quote, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying quote fetch", "attempt", attempt+1, "err", lastErr)
			timer := time.NewTimer(c.backoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return Quote{}, &FetchError{Err: ctx.Err()}
			case <-timer.C:
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return Quote{}, &FetchError{Err: err}
		}
		q, err := c.fetchOnce(ctx)
		if err == nil {
			return q, nil
		}
		lastErr = err
	}
	c.logger.Warn("quote fetch failed", "attempts", c.retries+1, "err", lastErr)
	return Quote{}, lastErr
}

func (c *Client) fetchOnce(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/random-quote", nil)
	if err != nil {
		return Quote{}, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return Quote{}, &FetchError{Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Quote{}, &FetchError{Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	var body apiQuote
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	if strings.TrimSpace(body.Text) == "" {
		return Quote{}, &FetchError{Status: resp.StatusCode, Err: ErrEmptyQuote}
	}
	return toQuote(body, time.Now()), nil
}

func toQuote(body apiQuote, now time.Time) Quote {
	author := strings.TrimSpace(body.Author)
	if author == "" {
		author = unknownAuthor
	}
	id := fmt.Sprintf("%s-%d", author, now.UnixMilli())
	if body.ID != 0 {
		id = fmt.Sprintf("%d", body.ID)
	}
	return Quote{
		ID:         id,
		Text:       strings.TrimSpace(body.Text),
		Author:     author,
		AuthorSlug: strings.Join(strings.Fields(strings.ToLower(author)), "-"),
		Tags:       body.Tags,
	}
}
