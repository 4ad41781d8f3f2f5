package series

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"shademap/internal/types"
)

// DefaultBaseURL is the Open-Meteo historical archive endpoint.
const DefaultBaseURL = "https://archive-api.open-meteo.com/v1/archive"

// RetryPolicy configures the retry behavior for the live client.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns sensible defaults for archive API calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// archiveResponse mirrors the provider's wire shape: parallel hourly arrays
// keyed by field name, plus the shared time axis.
type archiveResponse struct {
	Latitude  float64                    `json:"latitude"`
	Longitude float64                    `json:"longitude"`
	Hourly    map[string]json.RawMessage `json:"hourly"`
}

// Client fetches hourly series from the Open-Meteo archive API. All calls go
// through a circuit breaker and retry with exponential backoff plus jitter on
// 429/5xx, honoring Retry-After. Any transport or parse failure surfaces as
// an upstream AppError; the client never panics past its boundary.
type Client struct {
	baseURL     string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	sleepFn     func(time.Duration) // for testability; defaults to time.Sleep
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithSleepFunc overrides the sleep function used between retries.
// This is intended for testing to avoid real delays.
func WithSleepFunc(fn func(time.Duration)) ClientOption {
	return func(c *Client) { c.sleepFn = fn }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) { c.retryPolicy = p }
}

// NewClient creates a live series client for the given base URL.
func NewClient(baseURL string, httpClient *http.Client, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	c := &Client{
		baseURL:     baseURL,
		client:      httpClient,
		breaker:     cb,
		retryPolicy: DefaultRetryPolicy(),
		sleepFn:     time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchSeries performs a live archive lookup for one field at one location.
// Dates are sent as YYYY-MM-DD with timezone=auto, matching the provider
// contract. On any failure it returns an AppError with an upstream code;
// callers are expected to have a fallback policy.
func (c *Client) FetchSeries(ctx context.Context, lat, lng float64, startDate, endDate time.Time, field string) (*types.Series, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("start_date", startDate.UTC().Format("2006-01-02"))
	q.Set("end_date", endDate.UTC().Format("2006-01-02"))
	q.Set("hourly", field)
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSeries, "building archive request", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(types.ErrCodeUpstreamSeries,
			fmt.Sprintf("archive API returned %d", resp.StatusCode), nil)
	}

	var body archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSeries, "decoding archive response", err)
	}

	return parseArchive(&body, field)
}

// parseArchive converts the wire shape into a Series. Missing samples are
// represented as NaN so the reduction can skip them.
func parseArchive(body *archiveResponse, field string) (*types.Series, error) {
	rawTimes, ok := body.Hourly["time"]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeUpstreamSeries, "archive response missing hourly time axis", nil)
	}
	var timeStrs []string
	if err := json.Unmarshal(rawTimes, &timeStrs); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSeries, "malformed hourly time axis", err)
	}

	rawValues, ok := body.Hourly[field]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeUpstreamSeries,
			fmt.Sprintf("archive response missing field %q", field), nil)
	}
	var values []*float64
	if err := json.Unmarshal(rawValues, &values); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSeries,
			fmt.Sprintf("malformed values for field %q", field), err)
	}

	if len(values) != len(timeStrs) {
		return nil, types.NewAppError(types.ErrCodeUpstreamSeries,
			fmt.Sprintf("time axis length %d does not match %d values", len(timeStrs), len(values)), nil)
	}

	out := &types.Series{
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
		Field:     field,
		Times:     make([]time.Time, 0, len(timeStrs)),
		Values:    make([]float64, 0, len(values)),
	}
	for i, ts := range timeStrs {
		t, err := parseHourlyTime(ts)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeUpstreamSeries,
				fmt.Sprintf("malformed timestamp %q", ts), err)
		}
		out.Times = append(out.Times, t)
		if values[i] == nil {
			out.Values = append(out.Values, math.NaN())
		} else {
			out.Values = append(out.Values, *values[i])
		}
	}
	return out, nil
}

// parseHourlyTime accepts the provider's minute-resolution ISO timestamps as
// well as full RFC3339.
func parseHourlyTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// do executes the request through the circuit breaker, retrying on 429/5xx.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	var lastResp *http.Response
	var lastErr error

	maxAttempts := 1 + c.retryPolicy.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			// 5xx and 429 count as failures for the breaker.
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			return r, nil
		})

		if err == nil {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if attempt < maxAttempts-1 {
				resp.Body.Close()
			} else {
				lastResp = resp
			}
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		if attempt < maxAttempts-1 {
			c.sleepFn(c.computeBackoff(attempt, resp))
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}

	if errors.Is(lastErr, gobreaker.ErrOpenState) || errors.Is(lastErr, gobreaker.ErrTooManyRequests) {
		return nil, types.NewAppError(types.ErrCodeUpstreamSeries,
			"circuit breaker is open; archive API unavailable", lastErr)
	}
	return nil, types.NewAppError(types.ErrCodeUpstreamSeries, "archive API unreachable after retries", lastErr)
}

// computeBackoff determines the wait before the next retry attempt. It
// respects the Retry-After header if present, otherwise uses exponential
// backoff with full jitter clamped to [MinWait, MaxWait].
func (c *Client) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				wait := time.Duration(seconds) * time.Second
				if wait > c.retryPolicy.MaxWait {
					wait = c.retryPolicy.MaxWait
				}
				return wait
			}
		}
	}

	base := float64(c.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	maxWait := float64(c.retryPolicy.MaxWait)
	if base > maxWait {
		base = maxWait
	}
	minWait := float64(c.retryPolicy.MinWait)
	if base <= minWait {
		return c.retryPolicy.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}
