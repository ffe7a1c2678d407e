package priceguide

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"figfinder/internal/catalog"
	"figfinder/internal/partkey"
)

// ErrNoPriceData is returned when the page does not carry all four segments.
var ErrNoPriceData = errors.New("no price data")

const (
	maxBodyBytes   = 2 << 20
	defaultTimeout = 10 * time.Second
	// usdCurrencyID is the vcID for US dollars, the only currency pricePattern reads.
	usdCurrencyID = "1"
)

var (
	pricePattern = regexp.MustCompile(`US \$([0-9,.]+)`)
	countPattern = regexp.MustCompile(`&nbsp;(\d+)&nbsp;</TD>`)
)

// Client scrapes the price guide summary endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	timeout    time.Duration
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// WithTimeout sets the request timeout. It is applied to a copy of the HTTP
// client, so a client passed to WithHTTPClient is never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a price guide client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("price guide base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse price guide url: %w", err)
	}
	client := &Client{
		baseURL:    baseURL,
		userAgent:  "figfinder",
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.timeout > 0 && client.httpClient.Timeout != client.timeout {
		clone := *client.httpClient
		clone.Timeout = client.timeout
		client.httpClient = &clone
	}
	return client, nil
}

// FetchPrice retrieves and parses the price guide for a minifigure id.
func (c *Client) FetchPrice(ctx context.Context, id string) (catalog.PriceRecord, error) {
	id = partkey.NormalizeID(id)
	if id == "" {
		return catalog.PriceRecord{}, errors.New("minifigure id must not be empty")
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return catalog.PriceRecord{}, fmt.Errorf("parse price guide url: %w", err)
	}
	params := endpoint.Query()
	params.Set("a", "M")
	params.Set("itemID", id)
	params.Set("colorID", "0")
	params.Set("vcID", usdCurrencyID)
	params.Set("viewExclude", "Y")
	params.Set("ajView", "Y")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return catalog.PriceRecord{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return catalog.PriceRecord{}, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return catalog.PriceRecord{}, fmt.Errorf("price guide returned %d for %s (latency=%v)", resp.StatusCode, id, latency)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return catalog.PriceRecord{}, fmt.Errorf("read price guide response: %w", err)
	}

	guide, err := ParseSummary(string(body))
	if err != nil {
		return catalog.PriceRecord{}, fmt.Errorf("%s: %w", id, err)
	}
	return catalog.NewPriceRecord(guide, c.now()), nil
}

// ParseSummary extracts the four price guide segments from a summary page.
// The page lists, per segment in order ordered-new, ordered-used,
// inventory-new, inventory-used, a lot count and a quantity followed by the
// min, average, quantity-weighted average and max prices.
func ParseSummary(html string) (catalog.PriceGuide, error) {
	priceMatches := pricePattern.FindAllStringSubmatch(html, -1)
	countMatches := countPattern.FindAllStringSubmatch(html, -1)
	if len(priceMatches) < 16 || len(countMatches) < 8 {
		return catalog.PriceGuide{}, fmt.Errorf("%w: found %d prices and %d counts", ErrNoPriceData, len(priceMatches), len(countMatches))
	}

	prices := make([]decimal.Decimal, 16)
	for i := range prices {
		value, err := decimal.NewFromString(strings.ReplaceAll(priceMatches[i][1], ",", ""))
		if err != nil {
			return catalog.PriceGuide{}, fmt.Errorf("%w: price %q: %v", ErrNoPriceData, priceMatches[i][1], err)
		}
		prices[i] = value
	}
	counts := make([]int, 8)
	for i := range counts {
		value, err := strconv.Atoi(countMatches[i][1])
		if err != nil {
			return catalog.PriceGuide{}, fmt.Errorf("%w: count %q: %v", ErrNoPriceData, countMatches[i][1], err)
		}
		counts[i] = value
	}

	segment := func(n int) *catalog.PriceStats {
		return &catalog.PriceStats{
			Lots:        counts[2*n],
			Quantity:    counts[2*n+1],
			MinPrice:    prices[4*n],
			AvgPrice:    prices[4*n+1],
			QtyAvgPrice: prices[4*n+2],
			MaxPrice:    prices[4*n+3],
		}
	}
	return catalog.PriceGuide{
		OrderedNew:    segment(0),
		OrderedUsed:   segment(1),
		InventoryNew:  segment(2),
		InventoryUsed: segment(3),
	}, nil
}
