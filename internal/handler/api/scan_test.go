package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"BarScan/internal/domain/models"
	"BarScan/internal/service/calendar"
	"BarScan/internal/usecase"
	"BarScan/pkg/logger"
	"BarScan/pkg/metrics"
)

type flatSource struct{}

func (flatSource) GroupedDaily(_ context.Context, s models.Session) ([]models.Bar, error) {
	return []models.Bar{
		{Ticker: "XYZ", Date: s.Date, Open: 10, High: 11, Low: 9, Close: 10, Volume: 1000},
	}, nil
}

func testHandler() *ScanHandler {
	fetcher := usecase.NewBulkFetcher(flatSource{}, metrics.Nop{}, logger.Nop(), usecase.FetchConfig{
		Workers: 2,
		Timeout: time.Second,
	})
	scanner := usecase.NewScanner(calendar.New(), fetcher, nil, nil, metrics.Nop{}, logger.Nop(), 2)
	return NewScanHandler(scanner, logger.Nop())
}

func doRequest(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	testHandler().RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestScanEndpointFlatUniverse(t *testing.T) {
	rec := doRequest(t, `{
		"pattern": "expansion_breakout",
		"range_start": "2024-03-08",
		"range_end": "2024-03-08",
		"params": {"lookback_days": 5, "exclude_days": 1}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"signals":[]`) {
		t.Fatalf("flat universe must return an empty signal list: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"sessions_requested"`) {
		t.Fatalf("response must carry the run report: %s", rec.Body.String())
	}
}

func TestScanEndpointRejectsMissingPattern(t *testing.T) {
	rec := doRequest(t, `{"range_start": "2024-03-08", "range_end": "2024-03-08"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("envelope status is always 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":400`) {
		t.Fatalf("expected embedded 400, got %s", rec.Body.String())
	}
}

func TestScanEndpointRejectsUnknownPattern(t *testing.T) {
	rec := doRequest(t, `{
		"pattern": "cup_and_handle",
		"range_start": "2024-03-08",
		"range_end": "2024-03-08",
		"params": {"lookback_days": 5}
	}`)
	if !strings.Contains(rec.Body.String(), `"status":400`) {
		t.Fatalf("unknown pattern must be a 400: %s", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	e := echo.New()
	testHandler().RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
