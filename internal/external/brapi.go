package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// ErrNoQuote indicates that no price could be found for a ticker.
var ErrNoQuote = errors.New("no quote available")

// APIError is a non-retryable error response from the quote API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("brapi error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// BrapiClient fetches B3 quotes from brapi.dev with client-side rate limiting and retry on 429.
type BrapiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
}

// NewBrapiClient creates a quote API client. requestsPerSecond <= 0 disables rate limiting.
func NewBrapiClient(baseURL, token string, maxRetries int, baseDelay time.Duration, requestsPerSecond int) *BrapiClient {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
	return &BrapiClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    limiter,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

type quoteResponse struct {
	Results []struct {
		Symbol             string          `json:"symbol"`
		RegularMarketPrice decimal.Decimal `json:"regularMarketPrice"`
	} `json:"results"`
}

// FetchQuote returns the current market price of a ticker.
func (c *BrapiClient) FetchQuote(ctx context.Context, ticker string) (decimal.Decimal, error) {
	path := "/quote/" + url.PathEscape(ticker)
	params := url.Values{}
	params.Set("range", "1d")
	params.Set("interval", "1d")
	params.Set("fundamental", "true")
	if c.token != "" {
		params.Set("token", c.token)
	}

	body, err := c.get(ctx, path, params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrNoQuote, ticker)
		}
		return decimal.Zero, err
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("parsing quote for %s: %w", ticker, err)
	}
	if len(resp.Results) == 0 || !resp.Results[0].RegularMarketPrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoQuote, ticker)
	}
	return resp.Results[0].RegularMarketPrice, nil
}

// get performs a rate-limited GET request with retry on 429.
// Errors name the path only so the token never ends up in logs.
func (c *BrapiClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()

	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request to %s: %w", path, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("HTTP 429 at %s (attempt %d/%d)", path, attempt+1, c.maxRetries+1)
			if attempt < c.maxRetries {
				delay := c.baseDelay * time.Duration(1<<uint(attempt))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return nil, lastErr
		}

		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: path}
	}

	return nil, lastErr
}
