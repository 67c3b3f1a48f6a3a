// Package prices fetches current marketplace prices from the moneyplace
// API.
package prices

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	base string
	http *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// entry is one element of the API's price history array. sell_price has
// been observed both as a number and as a quoted string.
type entry struct {
	SellPrice flexInt64 `json:"sell_price"`
}

type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt64(v)
	return nil
}

// Current returns the item's current price: the sell_price of the last
// element of the history array. Any transport, status or shape problem is
// an error; callers treat it as a per-item failure.
func (c *Client) Current(ctx context.Context, market string, article int64) (int64, error) {
	url := fmt.Sprintf("%s/client/product/%s/%d", c.base, market, article)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return 0, fmt.Errorf("price api: %s/%d: http %d", market, article, resp.StatusCode)
	}

	var history []entry
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return 0, fmt.Errorf("price api: %s/%d: %w", market, article, err)
	}
	if len(history) == 0 {
		return 0, fmt.Errorf("price api: %s/%d: empty history", market, article)
	}
	return int64(history[len(history)-1].SellPrice), nil
}
