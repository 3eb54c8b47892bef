package massdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BarScan/internal/domain/models"
	"BarScan/internal/domain/repository"
	xhttp "BarScan/pkg/http"
	"BarScan/pkg/util"
)

// Client fetches grouped daily bars: one request per session returns every
// actively traded ticker's OHLCV for that day.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
}

// New creates a grouped-daily BarSource.
func New(baseURL, apiKey string, timeout time.Duration) repository.BarSource {
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type groupedBar struct {
	Ticker string  `json:"T"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

type groupedResponse struct {
	Status       string       `json:"status"`
	ResultsCount int          `json:"resultsCount"`
	Results      []groupedBar `json:"results"`
}

// ErrMalformedPayload marks a response that parsed but failed validation.
// Never retried: the payload will not improve on a second request.
var ErrMalformedPayload = errors.New("massdata: malformed payload")

// GroupedDaily fetches all tickers' bars for one session.
func (c *Client) GroupedDaily(ctx context.Context, session models.Session) ([]models.Bar, error) {
	url := fmt.Sprintf("%s/v2/aggs/grouped/locale/us/market/stocks/%s",
		c.baseURL, util.FormatDate(session.Date))

	var resp groupedResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
		QueryParams: map[string][]string{
			"adjusted": {"true"},
			"apiKey":   {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("grouped daily %s: %w", session.Key(), err)
	}

	if resp.Status != "OK" && resp.Status != "DELAYED" {
		return nil, fmt.Errorf("%w: session %s status %q", ErrMalformedPayload, session.Key(), resp.Status)
	}

	bars := make([]models.Bar, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Ticker == "" {
			return nil, fmt.Errorf("%w: session %s row without ticker", ErrMalformedPayload, session.Key())
		}
		bars = append(bars, models.Bar{
			Ticker: r.Ticker,
			Date:   session.Date,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return bars, nil
}

// Retryable reports whether a fetch error is worth a bounded retry.
// Transport errors and 5xx/429 are transient; parse and validation
// failures are not.
func Retryable(err error) bool {
	if errors.Is(err, ErrMalformedPayload) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Status == 429 || se.Status >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Includes timeouts: the per-fetch deadline is transient by nature.
	return true
}
