package domain

import "errors"

// Failure classes of a single rate fetch. Every source wraps one of these.
var (
	ErrNetwork    = errors.New("network failure")
	ErrHTTPStatus = errors.New("http status failure")
	ErrParse      = errors.New("parse failure")
	ErrZeroRate   = errors.New("zero rate")
)

var (
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrNoSnapshot      = errors.New("no rate snapshot")
)

// FailureKind names the taxonomy class of err for logs and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrHTTPStatus):
		return "http_status"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrZeroRate):
		return "zero_rate"
	default:
		return "network"
	}
}
