package application

import (
	"fmt"
	"strings"
)

type FailureMode string

const (
	// ReportDegraded leaves a failed rate at 0 and marks the snapshot degraded.
	ReportDegraded FailureMode = "degraded"
	// UseFallbackConstant fills a failed rate from the policy constants.
	UseFallbackConstant FailureMode = "constant"
)

const (
	DefaultFallbackKGS = 89.5
	DefaultFallbackRUB = 95.0
)

// FailurePolicy decides what a currency gets when its whole chain failed.
type FailurePolicy struct {
	Mode FailureMode
	KGS  float64
	RUB  float64
}

func DefaultPolicy() FailurePolicy {
	return FailurePolicy{Mode: ReportDegraded, KGS: DefaultFallbackKGS, RUB: DefaultFallbackRUB}
}

func ParseFailureMode(s string) (FailureMode, error) {
	switch FailureMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ReportDegraded:
		return ReportDegraded, nil
	case UseFallbackConstant:
		return UseFallbackConstant, nil
	default:
		return "", fmt.Errorf("unknown failure mode %q", s)
	}
}

// fallback returns the constant for a failed currency, ok=false when the rate stays 0.
func (p FailurePolicy) fallback(v float64) (float64, bool) {
	if p.Mode != UseFallbackConstant || !(v > 0) {
		return 0, false
	}
	return v, true
}
