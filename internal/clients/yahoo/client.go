// Package yahoo provides a client for the Yahoo Finance chart and search APIs
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 4 // requests per second
)

// Client implements the YahooClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
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
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo Finance client. No API key is required.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "folio-tracker/1.0")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// chartResponse mirrors the /v8/finance/chart payload. Numeric series use
// pointers because the API emits nulls for halted or partial days.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				RegularMarketVolume int64  `json:"regularMarketVolume"`
				FiftyTwoWeekHigh   float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow    float64 `json:"fiftyTwoWeekLow"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// chart performs a /v8/finance/chart request for one symbol.
func (c *Client) chart(ctx context.Context, symbol string, params url.Values) (*chartResponse, error) {
	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(symbol))

	var resp chartResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error for %s: %s (%s)",
			symbol, resp.Chart.Error.Description, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart returned no result for %s", symbol)
	}

	return &resp, nil
}

// GetQuote retrieves the current quote snapshot for a symbol from the chart
// endpoint's meta block. MarketState is left empty; the caller stamps it from
// its own market clock.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("range", "1d")
	params.Set("interval", "1d")

	resp, err := c.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	meta := resp.Chart.Result[0].Meta
	quote := &models.Quote{
		Symbol:        common.NormalizeSymbol(symbol),
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.ChartPreviousClose,
		Volume:        meta.RegularMarketVolume,
		High52Week:    meta.FiftyTwoWeekHigh,
		Low52Week:     meta.FiftyTwoWeekLow,
		Currency:      meta.Currency,
		FetchedAt:     time.Now(),
	}
	if quote.PreviousClose > 0 {
		quote.Change = quote.Price - quote.PreviousClose
		quote.ChangePct = quote.Change / quote.PreviousClose * 100
	}

	return quote, nil
}

// GetDailyBars retrieves daily bars for the inclusive date range. Days where
// the API reports a null close or volume are dropped so partial rows are never
// persisted as zero-valued bars.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10))
	params.Set("interval", "1d")

	resp, err := c.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	series := result.Indicators.Quote[0]

	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	sym := common.NormalizeSymbol(symbol)
	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(series.Close) || series.Close[i] == nil {
			continue
		}
		if i >= len(series.Volume) || series.Volume[i] == nil {
			continue
		}

		bar := models.PriceBar{
			Symbol: sym,
			Date:   common.NormalizeDate(time.Unix(ts, 0)),
			Close:  *series.Close[i],
			Volume: *series.Volume[i],
		}
		if i < len(series.Open) && series.Open[i] != nil {
			bar.Open = *series.Open[i]
		}
		if i < len(series.High) && series.High[i] != nil {
			bar.High = *series.High[i]
		}
		if i < len(series.Low) && series.Low[i] != nil {
			bar.Low = *series.Low[i]
		}
		if i < len(adj) && adj[i] != nil {
			bar.AdjClose = *adj[i]
		} else {
			bar.AdjClose = bar.Close
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// GetDividends retrieves dividend events for the inclusive date range via the
// chart endpoint's events block.
//
// The payload's per-event "date" is treated as the ex-date. Upstream
// documentation is ambiguous on whether it is the ex-date or the payment
// date, and samples have been observed both ways; the keyed provider is the
// authority when both are available.
func (c *Client) GetDividends(ctx context.Context, symbol string, from, to time.Time) ([]models.DividendEvent, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div")

	resp, err := c.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	sym := common.NormalizeSymbol(symbol)
	now := time.Now()

	dividends := resp.Chart.Result[0].Events.Dividends
	events := make([]models.DividendEvent, 0, len(dividends))
	for _, d := range dividends {
		if d.Amount <= 0 {
			continue
		}
		events = append(events, models.DividendEvent{
			Symbol:    sym,
			ExDate:    common.NormalizeDate(time.Unix(d.Date, 0)),
			Amount:    d.Amount,
			Type:      models.DividendTypeRegular,
			Source:    "yahoo",
			FetchedAt: now,
		})
	}

	return events, nil
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// Search looks up symbols matching a query string.
func (c *Client) Search(ctx context.Context, query string) ([]models.SymbolSearchResult, error) {
	params := url.Values{}
	params.Set("q", query)

	var resp searchResponse
	if err := c.get(ctx, "/v1/finance/search", params, &resp); err != nil {
		return nil, err
	}

	results := make([]models.SymbolSearchResult, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		results = append(results, models.SymbolSearchResult{
			Symbol:    common.NormalizeSymbol(q.Symbol),
			Name:      name,
			Exchange:  q.Exchange,
			QuoteType: q.QuoteType,
		})
	}

	return results, nil
}

// Ensure Client implements YahooClient
var _ interfaces.YahooClient = (*Client)(nil)
