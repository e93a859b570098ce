// Package fmp provides a client for the Financial Modeling Prep API
package fmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

const (
	DefaultBaseURL   = "https://financialmodelingprep.com/api/v3"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 4 // requests per second
)

// ErrQuotaExhausted is returned when the daily request quota has been spent.
var ErrQuotaExhausted = errors.New("fmp: daily request quota exhausted")

// QuotaTracker accounts for the provider's daily request quota. Reserve is
// called before every outbound request and returns ErrQuotaExhausted when the
// day's budget is spent.
type QuotaTracker interface {
	Reserve(ctx context.Context) error
}

// Client implements the FMPClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	quota      QuotaTracker
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

// WithQuotaTracker sets the daily-quota tracker
func WithQuotaTracker(quota QuotaTracker) ClientOption {
	return func(c *Client) {
		c.quota = quota
	}
}

// NewClient creates a new FMP client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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
	return fmt.Sprintf("FMP API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited, quota-accounted GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if c.quota != nil {
		if err := c.quota.Reserve(ctx); err != nil {
			return err
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("FMP API request")

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

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return common.NormalizeDate(t), true
}

func parseDatePtr(s string) *time.Time {
	t, ok := parseDate(s)
	if !ok {
		return nil
	}
	return &t
}

type dividendHistoryResponse struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date            string  `json:"date"` // ex-dividend date
		Dividend        float64 `json:"dividend"`
		AdjDividend     float64 `json:"adjDividend"`
		RecordDate      string  `json:"recordDate"`
		PaymentDate     string  `json:"paymentDate"`
		DeclarationDate string  `json:"declarationDate"`
	} `json:"historical"`
}

// GetDividends retrieves dividend history for a symbol. Events outside
// [from, to] are filtered out; pass zero times to keep everything.
func (c *Client) GetDividends(ctx context.Context, symbol string, from, to time.Time) ([]models.DividendEvent, error) {
	path := fmt.Sprintf("/historical-price-full/stock_dividend/%s", url.PathEscape(symbol))

	var resp dividendHistoryResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	sym := common.NormalizeSymbol(symbol)
	now := time.Now()

	events := make([]models.DividendEvent, 0, len(resp.Historical))
	for _, h := range resp.Historical {
		exDate, ok := parseDate(h.Date)
		if !ok || h.Dividend <= 0 {
			continue
		}
		if !from.IsZero() && exDate.Before(common.NormalizeDate(from)) {
			continue
		}
		if !to.IsZero() && exDate.After(common.NormalizeDate(to)) {
			continue
		}

		events = append(events, models.DividendEvent{
			Symbol:          sym,
			ExDate:          exDate,
			Amount:          h.Dividend,
			RecordDate:      parseDatePtr(h.RecordDate),
			PaymentDate:     parseDatePtr(h.PaymentDate),
			DeclarationDate: parseDatePtr(h.DeclarationDate),
			Type:            models.DividendTypeRegular,
			Source:          "fmp",
			FetchedAt:       now,
		})
	}

	return events, nil
}

type incomeStatementRow struct {
	Date      string  `json:"date"`
	Revenue   float64 `json:"revenue"`
	NetIncome float64 `json:"netIncome"`
	EPS       float64 `json:"eps"`
}

type balanceSheetRow struct {
	Date                    string  `json:"date"`
	TotalDebt               float64 `json:"totalDebt"`
	TotalStockholdersEquity float64 `json:"totalStockholdersEquity"`
}

type cashFlowRow struct {
	Date          string  `json:"date"`
	FreeCashFlow  float64 `json:"freeCashFlow"`
	DividendsPaid float64 `json:"dividendsPaid"`
}

// GetStatements retrieves annual income, balance-sheet, and cash-flow
// statements, most recent first. Each statement type is a separate request
// and counts against the daily quota.
func (c *Client) GetStatements(ctx context.Context, symbol string, limit int) (*models.FinancialStatements, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("period", "annual")
	params.Set("limit", fmt.Sprintf("%d", limit))

	sym := common.NormalizeSymbol(symbol)
	escaped := url.PathEscape(symbol)

	var income []incomeStatementRow
	if err := c.get(ctx, "/income-statement/"+escaped, params, &income); err != nil {
		return nil, err
	}

	var balance []balanceSheetRow
	if err := c.get(ctx, "/balance-sheet-statement/"+escaped, params, &balance); err != nil {
		return nil, err
	}

	var cashflow []cashFlowRow
	if err := c.get(ctx, "/cash-flow-statement/"+escaped, params, &cashflow); err != nil {
		return nil, err
	}

	statements := &models.FinancialStatements{
		Symbol:    sym,
		FetchedAt: time.Now(),
	}

	for _, row := range income {
		date, ok := parseDate(row.Date)
		if !ok {
			continue
		}
		statements.Income = append(statements.Income, models.IncomeStatement{
			Symbol:    sym,
			Date:      date,
			Revenue:   row.Revenue,
			NetIncome: row.NetIncome,
			EPS:       row.EPS,
		})
	}
	for _, row := range balance {
		date, ok := parseDate(row.Date)
		if !ok {
			continue
		}
		statements.Balance = append(statements.Balance, models.BalanceSheet{
			Symbol:      sym,
			Date:        date,
			TotalDebt:   row.TotalDebt,
			TotalEquity: row.TotalStockholdersEquity,
		})
	}
	for _, row := range cashflow {
		date, ok := parseDate(row.Date)
		if !ok {
			continue
		}
		statements.CashFlow = append(statements.CashFlow, models.CashFlowStatement{
			Symbol:        sym,
			Date:          date,
			FreeCashFlow:  row.FreeCashFlow,
			DividendsPaid: row.DividendsPaid,
		})
	}

	return statements, nil
}

type calendarRow struct {
	Date            string  `json:"date"` // ex-dividend date
	Symbol          string  `json:"symbol"`
	Dividend        float64 `json:"dividend"`
	RecordDate      string  `json:"recordDate"`
	PaymentDate     string  `json:"paymentDate"`
	DeclarationDate string  `json:"declarationDate"`
}

// GetDividendCalendar retrieves upcoming dividend events across all symbols
// for the inclusive date range.
func (c *Client) GetDividendCalendar(ctx context.Context, from, to time.Time) ([]models.DividendEvent, error) {
	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))

	var rows []calendarRow
	if err := c.get(ctx, "/stock_dividend_calendar", params, &rows); err != nil {
		return nil, err
	}

	now := time.Now()
	events := make([]models.DividendEvent, 0, len(rows))
	for _, row := range rows {
		exDate, ok := parseDate(row.Date)
		if !ok || row.Dividend <= 0 {
			continue
		}
		events = append(events, models.DividendEvent{
			Symbol:          common.NormalizeSymbol(row.Symbol),
			ExDate:          exDate,
			Amount:          row.Dividend,
			RecordDate:      parseDatePtr(row.RecordDate),
			PaymentDate:     parseDatePtr(row.PaymentDate),
			DeclarationDate: parseDatePtr(row.DeclarationDate),
			Type:            models.DividendTypeRegular,
			Source:          "fmp",
			FetchedAt:       now,
		})
	}

	return events, nil
}

// Ensure Client implements FMPClient
var _ interfaces.FMPClient = (*Client)(nil)
