package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"BarScan/internal/domain/models"
	"BarScan/internal/usecase"
	xhttp "BarScan/pkg/http"
	"BarScan/pkg/logger"
	"BarScan/pkg/util"
)

// ScanHandler exposes the pipeline as a synchronous HTTP endpoint.
type ScanHandler struct {
	scanner *usecase.Scanner
	log     *logger.Logger
}

func NewScanHandler(scanner *usecase.Scanner, log *logger.Logger) *ScanHandler {
	return &ScanHandler{scanner: scanner, log: log}
}

func (h *ScanHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/scan", h.Scan)
	e.GET("/healthz", h.Health)
}

// Scan runs one full pipeline pass and returns the signals plus the
// completeness report. Setup errors map to 400; anything past setup
// degrades inside the report instead of failing the request.
func (h *ScanHandler) Scan(c echo.Context) error {
	var body models.ScanRequestBody
	if errs := xhttp.ReadAndValidateRequest(c, &body); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	rangeStart, err := util.ParseDate(body.RangeStart)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	rangeEnd, err := util.ParseDate(body.RangeEnd)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	signals, report, err := h.scanner.Scan(c.Request().Context(), usecase.ScanRequest{
		Exchange:   body.Exchange,
		Pattern:    body.Pattern,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		Params:     models.NewScanParams(body.Params),
	})
	if err != nil {
		if errors.Is(err, models.ErrBadParams) || errors.Is(err, models.ErrCalendarUnavailable) {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.log.Error("scan failed", logger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	if signals == nil {
		signals = []models.Signal{}
	}
	return xhttp.SuccessResponse(c, models.ScanResponseBody{
		Signals: signals,
		Report:  *report,
	})
}

// Health reports process liveness.
func (h *ScanHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
