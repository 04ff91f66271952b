package coinbase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Application is the canonical application name recorded on transactions
// derived from Coinbase data.
const Application = "Coinbase"

// DefaultBaseURL is the Coinbase v2 REST API base.
const DefaultBaseURL = "https://api.coinbase.com"

// apiVersion pins the response shapes; see the Coinbase API changelog.
const apiVersion = "2024-01-01"

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Credentials holds Coinbase API credentials. They are injected
// explicitly; nothing in this package reads the process environment.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Client is a minimal Coinbase v2 REST client covering the endpoints the
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

// NewClient creates a new Coinbase REST client.
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

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("coinbase: status %d: %s", e.Status, e.Body)
}

// pagination is the cursor block on list responses.
type pagination struct {
	NextURI *string `json:"next_uri"`
}

// envelope is the standard v2 response wrapper.
type envelope[T any] struct {
	Data       T           `json:"data"`
	Pagination *pagination `json:"pagination"`
}

// timeResponse is the /v2/time payload.
type timeResponse struct {
	Epoch int64 `json:"epoch"`
}

// ServerTime returns the exchange server clock in Unix seconds. Signed
// requests must carry a timestamp from this clock, not ours.
func (c *Client) ServerTime(ctx context.Context) (int64, error) {
	var result envelope[timeResponse]
	if err := c.get(ctx, "/v2/time", false, &result); err != nil {
		return 0, fmt.Errorf("get server time: %w", err)
	}
	return result.Data.Epoch, nil
}

// Account is one row of the accounts response.
type Account struct {
	ID string `json:"id"`
}

// Accounts returns all wallet accounts, following pagination cursors.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var accounts []Account

	path := "/v2/accounts"
	for path != "" {
		var result envelope[[]Account]
		if err := c.get(ctx, path, true, &result); err != nil {
			return nil, fmt.Errorf("get accounts: %w", err)
		}
		accounts = append(accounts, result.Data...)
		path = nextPath(result.Pagination)
	}

	return accounts, nil
}

// MoneyField is an amount/currency pair on a transaction row.
type MoneyField struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// TransactionRow is one row of the account transactions response.
type TransactionRow struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Amount       MoneyField `json:"amount"`
	NativeAmount MoneyField `json:"native_amount"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Resource     string     `json:"resource"`
}

// Transactions returns all transactions of one account, following
// pagination cursors.
func (c *Client) Transactions(ctx context.Context, accountID string) ([]TransactionRow, error) {
	var rows []TransactionRow

	path := "/v2/accounts/" + accountID + "/transactions"
	for path != "" {
		var result envelope[[]TransactionRow]
		if err := c.get(ctx, path, true, &result); err != nil {
			return nil, fmt.Errorf("get transactions for account %s: %w", accountID, err)
		}
		rows = append(rows, result.Data...)
		path = nextPath(result.Pagination)
	}

	return rows, nil
}

// nextPath extracts the next page path, or "" when done.
func nextPath(p *pagination) string {
	if p == nil || p.NextURI == nil || *p.NextURI == "" {
		return ""
	}
	return *p.NextURI
}

// get performs a GET request with retries and exponential backoff.
// Signed requests carry CB-ACCESS-KEY/SIGN/TIMESTAMP headers; the
// signature is HMAC-SHA256 over timestamp+method+path using the server
// clock.
func (c *Client) get(ctx context.Context, path string, signed bool, result interface{}) error {
	var headers http.Header
	if signed {
		epoch, err := c.ServerTime(ctx)
		if err != nil {
			return err
		}
		ts := strconv.FormatInt(epoch, 10)
		headers = http.Header{}
		headers.Set("CB-ACCESS-KEY", c.creds.APIKey)
		headers.Set("CB-ACCESS-SIGN", c.sign(ts+http.MethodGet+path))
		headers.Set("CB-ACCESS-TIMESTAMP", ts)
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

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("CB-VERSION", apiVersion)
		for key, values := range headers {
			for _, value := range values {
				req.Header.Set(key, value)
			}
		}

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

// sign computes the hex HMAC-SHA256 of the prehash string.
func (c *Client) sign(prehash string) string {
	mac := hmac.New(sha256.New, []byte(c.creds.APISecret))
	mac.Write([]byte(prehash))
	return hex.EncodeToString(mac.Sum(nil))
}
