package fmp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc, opts ...ClientOption) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	opts = append([]ClientOption{WithBaseURL(server.URL), WithRateLimit(1000)}, opts...)
	return NewClient("test-key", opts...), server
}

func TestGetDividendsParsesAllDates(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/historical-price-full/stock_dividend/KO", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		fmt.Fprint(w, `{
			"symbol": "KO",
			"historical": [
				{
					"date": "2024-03-14",
					"dividend": 0.485,
					"recordDate": "2024-03-15",
					"paymentDate": "2024-04-01",
					"declarationDate": "2024-02-15"
				},
				{
					"date": "2023-11-30",
					"dividend": 0.46,
					"recordDate": "",
					"paymentDate": "",
					"declarationDate": ""
				}
			]
		}`)
	})
	defer server.Close()

	events, err := client.GetDividends(context.Background(), "KO", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "KO", first.Symbol)
	assert.Equal(t, 0.485, first.Amount)
	assert.Equal(t, "2024-03-14", first.ExDate.Format("2006-01-02"))
	require.NotNil(t, first.PaymentDate)
	assert.Equal(t, "2024-04-01", first.PaymentDate.Format("2006-01-02"))
	assert.Equal(t, "fmp", first.Source)

	// Empty date strings map to nil, not zero times.
	second := events[1]
	assert.Nil(t, second.RecordDate)
	assert.Nil(t, second.PaymentDate)
	assert.Nil(t, second.DeclarationDate)
}

func TestGetDividendsFiltersRange(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"symbol": "KO", "historical": [
			{"date": "2024-03-14", "dividend": 0.485},
			{"date": "2020-03-12", "dividend": 0.41}
		]}`)
	})
	defer server.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	events, err := client.GetDividends(context.Background(), "KO", from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 0.485, events[0].Amount)
}

func TestGetStatements(t *testing.T) {
	var paths []string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Equal(t, "annual", r.URL.Query().Get("period"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		switch r.URL.Path {
		case "/income-statement/KO":
			fmt.Fprint(w, `[{"date": "2023-12-31", "revenue": 45754000000, "netIncome": 10714000000, "eps": 2.48}]`)
		case "/balance-sheet-statement/KO":
			fmt.Fprint(w, `[{"date": "2023-12-31", "totalDebt": 42064000000, "totalStockholdersEquity": 25941000000}]`)
		case "/cash-flow-statement/KO":
			fmt.Fprint(w, `[{"date": "2023-12-31", "freeCashFlow": 9747000000, "dividendsPaid": -7952000000}]`)
		default:
			http.NotFound(w, r)
		}
	})
	defer server.Close()

	statements, err := client.GetStatements(context.Background(), "KO", 5)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	require.Len(t, statements.Income, 1)
	assert.Equal(t, 2.48, statements.Income[0].EPS)
	require.Len(t, statements.Balance, 1)
	assert.Equal(t, 25941000000.0, statements.Balance[0].TotalEquity)
	require.Len(t, statements.CashFlow, 1)
	assert.Equal(t, -7952000000.0, statements.CashFlow[0].DividendsPaid)
	assert.False(t, statements.FetchedAt.IsZero())
}

func TestGetDividendCalendar(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock_dividend_calendar", r.URL.Path)
		assert.Equal(t, "2024-06-01", r.URL.Query().Get("from"))
		fmt.Fprint(w, `[
			{"date": "2024-06-14", "symbol": "KO", "dividend": 0.485},
			{"date": "2024-06-20", "symbol": "PEP", "dividend": 1.355}
		]`)
	})
	defer server.Close()

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	events, err := client.GetDividendCalendar(context.Background(), from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "PEP", events[1].Symbol)
}

// blockedTracker always reports the quota as spent.
type blockedTracker struct{}

func (blockedTracker) Reserve(context.Context) error { return ErrQuotaExhausted }

func TestQuotaExhaustedBlocksRequest(t *testing.T) {
	requests := 0
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}, WithQuotaTracker(blockedTracker{}))
	defer server.Close()

	_, err := client.GetDividends(context.Background(), "KO", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Zero(t, requests, "no HTTP request leaves the client once the quota is spent")
}

func TestNon200ReturnsAPIError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"Error Message": "Invalid API KEY"}`)
	})
	defer server.Close()

	_, err := client.GetDividends(context.Background(), "KO", time.Time{}, time.Time{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
