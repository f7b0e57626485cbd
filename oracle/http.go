package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTimeout bounds a balance round trip when the caller supplies no
// deadline of its own.
const DefaultTimeout = 10 * time.Second

// Client fetches the account balance from an HTTP wallet endpoint.
//
// The endpoint is expected to answer GET {baseURL}/v1/balance with a JSON
// body {"balance": "1.050000"}; the balance is a decimal string so precision
// survives the wire.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a balance client. token may be empty for endpoints that
// do not authenticate.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// GetBalance queries the wallet endpoint. Every failure, timeout and
// cancellation included, is reported as ErrUnavailable so callers have a
// single condition to deny on.
func (c *Client) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/balance", nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Decimal{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, body)
	}

	var br balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}

	return br.Balance, nil
}
