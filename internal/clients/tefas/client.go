// Package tefas provides a client for the TEFAS fund price history API
package tefas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/interfaces"
	"github.com/bobmcallan/navcast/internal/models"
)

const (
	DefaultBaseURL   = "https://www.tefas.gov.tr/api/DB"
	DefaultTimeout   = 5 * time.Second
	DefaultRateLimit = 5 // requests per second

	// FundTypeInvestment is the "YAT" (securities investment fund) segment.
	FundTypeInvestment = "YAT"
)

// flexPrice decodes FIYAT, which TEFAS sends either as a JSON number or as a
// Turkish-formatted string ("2.769,7345").
type flexPrice float64

func (f *flexPrice) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = flexPrice(math.NaN())
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexPrice(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexPrice(common.ParseLocaleNumber(s))
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into price", string(data))
}

// flexText keeps scalar values as text whatever their JSON type.
type flexText string

func (t *flexText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = flexText(s)
		return nil
	}
	if string(data) == "null" {
		*t = ""
		return nil
	}
	*t = flexText(strings.TrimSpace(string(data)))
	return nil
}

type historyRow struct {
	Date     flexText  `json:"TARIH"`
	FundCode string    `json:"FONKODU"`
	FundName string    `json:"FONUNVAN"`
	Price    flexPrice `json:"FIYAT"`
}

type historyResponse struct {
	Data []historyRow `json:"data"`
}

// Client implements the TefasClient interface
type Client struct {
	baseURL    string
	fundType   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithFundType sets the fontip form value (default YAT).
func WithFundType(fundType string) ClientOption {
	return func(c *Client) {
		c.fundType = fundType
	}
}

// NewClient creates a new TEFAS client. No API key is required.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		fundType: FundTypeInvestment,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-success response from TEFAS
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TEFAS API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// GetPriceHistory posts a BindHistoryInfo query for one fund and date range.
func (c *Client) GetPriceHistory(ctx context.Context, fundCode, from, to string) ([]models.TefasPriceRow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	form := url.Values{}
	form.Set("fontip", c.fundType)
	form.Set("fonkod", strings.ToUpper(fundCode))
	form.Set("bastarih", from)
	form.Set("bittarih", to)

	endpoint := "/BindHistoryInfo"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("User-Agent", "curl/8.7.1")
	req.Header.Set("Accept", "*/*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Debug().Err(err).Str("fund", fundCode).Str("from", from).Dur("elapsed", elapsed).Msg("TEFAS request failed")
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   endpoint,
		}
	}

	var apiResp historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	rows := make([]models.TefasPriceRow, 0, len(apiResp.Data))
	for _, r := range apiResp.Data {
		rows = append(rows, models.TefasPriceRow{
			FundCode: r.FundCode,
			FundName: r.FundName,
			Date:     string(r.Date),
			Price:    float64(r.Price),
		})
	}

	c.logger.Debug().
		Str("fund", fundCode).
		Str("from", from).
		Str("to", to).
		Int("rows", len(rows)).
		Dur("elapsed", elapsed).
		Msg("TEFAS history call")

	return rows, nil
}

// Ensure Client implements TefasClient
var _ interfaces.TefasClient = (*Client)(nil)
