// Package ratings looks up aggregate book ratings from a Goodreads-compatible
// review_counts.json endpoint.
package ratings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"book_catalog/internal/metrics"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// DefaultURL is the Goodreads review counts endpoint.
const DefaultURL = "https://www.goodreads.com/book/review_counts.json"

// maxBodySize caps how much of a response is read.
const maxBodySize = 1 << 20

var (
	// ErrBadResponse is returned for a non-2xx status or a malformed body.
	ErrBadResponse = errors.New("ratings: bad response")
	// ErrUnavailable is returned while the circuit breaker rejects calls.
	ErrUnavailable = errors.New("ratings: service unavailable")
)

// Summary is the aggregate rating of one book. Nil fields mean the service
// reported nothing (or zero) for them.
type Summary struct {
	AverageRating *float64 `json:"average_rating"`
	RatingsCount  *int64   `json:"ratings_count"`
}

// Options configures a Client.
type Options struct {
	BaseURL    string        // Endpoint, DefaultURL when empty
	APIKey     string        // Sent as the "key" query parameter
	Timeout    time.Duration // Per-call timeout, 5s when zero
	HTTPClient *http.Client  // Optional transport override
}

// Client calls the rating service. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *breaker
}

// NewClient returns a Client with its own circuit breaker.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		httpClient: hc,
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		breaker:    newBreaker("goodreads"),
	}
}

// Lookup returns the rating summary for isbn. One outbound call, no retry.
func (c *Client) Lookup(ctx context.Context, isbn string) (*Summary, error) {
	start := time.Now()
	summary, err := c.breaker.execute(func() (*Summary, error) {
		return c.fetch(ctx, isbn)
	})
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, ErrUnavailable):
		metrics.RecordRatingLookup("rejected", 0)
	case err != nil:
		metrics.RecordRatingLookup("failure", elapsed)
		logrus.WithFields(logrus.Fields{
			"isbn":  isbn,
			"error": err.Error(),
		}).Warn("Rating lookup failed")
	default:
		metrics.RecordRatingLookup("success", elapsed)
	}
	return summary, err
}

func (c *Client) fetch(ctx context.Context, isbn string) (*Summary, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("ratings: parse url: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("isbns", isbn)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("ratings: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ratings: request: %w", err)
	}
	defer resp.Body.Close()

	// Goodreads answers 404 for ISBNs it does not know
	if resp.StatusCode == http.StatusNotFound {
		return &Summary{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("ratings: read body: %w", err)
	}
	return ParseSummary(body)
}

// ParseSummary extracts average_rating and work_ratings_count from the first
// entry of a review_counts.json body. Zero values become nil.
func ParseSummary(body []byte) (*Summary, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrBadResponse)
	}
	first := gjson.GetBytes(body, "books.0")
	if !first.Exists() {
		return &Summary{}, nil
	}

	s := &Summary{}
	// average_rating arrives as a string such as "4.04"
	if avg := first.Get("average_rating").Float(); avg != 0 {
		s.AverageRating = &avg
	}
	if count := first.Get("work_ratings_count").Int(); count != 0 {
		s.RatingsCount = &count
	}
	return s, nil
}
