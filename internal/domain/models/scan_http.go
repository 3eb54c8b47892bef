package models

// ScanRequestBody is the HTTP payload for a synchronous scan run.
type ScanRequestBody struct {
	Exchange   string                 `json:"exchange" validate:"required" default:"XNYS"`
	Pattern    string                 `json:"pattern" validate:"required"`
	RangeStart string                 `json:"range_start" validate:"required,datetime=2006-01-02"`
	RangeEnd   string                 `json:"range_end" validate:"required,datetime=2006-01-02"`
	Params     map[string]interface{} `json:"params"`
}

// ScanResponseBody carries the signal table plus the completeness report.
type ScanResponseBody struct {
	Signals []Signal  `json:"signals"`
	Report  RunReport `json:"report"`
}
