package mexc

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Application is the canonical application name recorded on transactions
// derived from MEXC data.
const Application = "MEXC"

// DefaultBaseURL is the MEXC spot REST API base.
const DefaultBaseURL = "https://api.mexc.com/api/v3"

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Credentials holds MEXC API credentials. They are injected explicitly;
// nothing in this package reads the process environment.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// Client is a minimal MEXC spot REST client covering the endpoints the
// fetcher needs.
type Client struct {
	baseURL     string
	creds       Credentials
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new MEXC REST client.
func NewClient(creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		creds:       creds,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is a non-2xx response from the API. It is not retried
// except for 5xx and 429.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mexc: status %d: %s", e.Status, e.Body)
}

// serverTimeResponse is the /time payload.
type serverTimeResponse struct {
	ServerTime int64 `json:"serverTime"`
}

// ServerTime returns the exchange server clock in Unix milliseconds.
// Signed requests must carry a timestamp from this clock, not ours.
func (c *Client) ServerTime(ctx context.Context) (int64, error) {
	var result serverTimeResponse
	if err := c.get(ctx, "/time", nil, false, &result); err != nil {
		return 0, fmt.Errorf("get server time: %w", err)
	}
	return result.ServerTime, nil
}

// Fill is one row of the myTrades response.
type Fill struct {
	Symbol          string  `json:"symbol"`
	ID              string  `json:"id"`
	OrderID         string  `json:"orderId"`
	OrderListID     int64   `json:"orderListId"`
	Price           string  `json:"price"`
	Qty             string  `json:"qty"`
	QuoteQty        string  `json:"quoteQty"`
	Commission      string  `json:"commission"`
	CommissionAsset string  `json:"commissionAsset"`
	Time            int64   `json:"time"`
	IsBuyer         bool    `json:"isBuyer"`
	IsMaker         bool    `json:"isMaker"`
	IsBestMatch     bool    `json:"isBestMatch"`
	IsSelfTrade     bool    `json:"isSelfTrade"`
	ClientOrderID   *string `json:"clientOrderId"`
}

// MyTrades returns the account's fill history for one trading symbol.
func (c *Client) MyTrades(ctx context.Context, symbol string) ([]Fill, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var fills []Fill
	if err := c.get(ctx, "/myTrades", params, true, &fills); err != nil {
		return nil, fmt.Errorf("get my trades for %s: %w", symbol, err)
	}
	return fills, nil
}

// get performs a GET request with retries and exponential backoff.
// When signed is true, the query is timestamped with the server clock and
// signed with HMAC-SHA256 over the encoded query string.
func (c *Client) get(ctx context.Context, path string, params url.Values, signed bool, result interface{}) error {
	query := ""
	if signed {
		now, err := c.ServerTime(ctx)
		if err != nil {
			return err
		}
		if params == nil {
			params = url.Values{}
		}
		params.Set("timestamp", strconv.FormatInt(now, 10))
		encoded := params.Encode()
		query = encoded + "&signature=" + c.sign(encoded)
	} else if params != nil {
		query = params.Encode()
	}

	endpoint := c.baseURL + path
	if query != "" {
		endpoint += "?" + query
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("X-MEXC-APIKEY", c.creds.AccessKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{Status: resp.StatusCode, Body: string(body)}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				lastErr = statusErr
				continue
			}
			return statusErr
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// sign computes the hex HMAC-SHA256 of the query string.
func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.creds.SecretKey))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}
