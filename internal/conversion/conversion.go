// Package conversion recomputes the displayed amounts from one edited amount.
//
// All arithmetic is decimal. Results are rounded half away from zero to two
// places, which for the non-negative amounts accepted here is round-half-up.
package conversion

import (
	"regexp"
	"strings"

	"fxconv-service/internal/domain"

	"github.com/shopspring/decimal"
)

const places = 2

// plain non-negative decimal: "10", "10.5", ".5", "10."
var amountRe = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)

var order = []domain.Currency{domain.USD, domain.KGS, domain.RUB}

func FromUSD(input string, s domain.RateSnapshot) domain.AmountTriple {
	return Convert(domain.USD, input, s)
}

func FromKGS(input string, s domain.RateSnapshot) domain.AmountTriple {
	return Convert(domain.KGS, input, s)
}

func FromRUB(input string, s domain.RateSnapshot) domain.AmountTriple {
	return Convert(domain.RUB, input, s)
}

// Convert keeps input verbatim in the from field and derives the other two.
// Empty, non-numeric and negative inputs leave the derived fields empty.
// A derived field that depends on a zero rate is domain.NotAvailable.
func Convert(from domain.Currency, input string, s domain.RateSnapshot) domain.AmountTriple {
	var out domain.AmountTriple
	set(&out, from, input)
	if !domain.SupportedCurrency[from] {
		return out
	}
	amount, ok := ParseAmount(input)
	if !ok {
		return out
	}
	fromRate := s.Rate(from)
	for _, to := range order {
		if to == from {
			continue
		}
		set(&out, to, derive(amount, fromRate, s.Rate(to)))
	}
	return out
}

// ParseAmount accepts the lexical format of the amount fields.
func ParseAmount(input string) (decimal.Decimal, bool) {
	v := strings.TrimSpace(input)
	if !amountRe.MatchString(v) {
		return decimal.Zero, false
	}
	v = strings.TrimSuffix(v, ".")
	if strings.HasPrefix(v, ".") {
		v = "0" + v
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatRate renders a rate the way the rate panel shows it.
func FormatRate(r float64) string {
	return round2(decimal.NewFromFloat(r))
}

func derive(amount decimal.Decimal, fromRate, toRate float64) string {
	if !(fromRate > 0) || !(toRate > 0) {
		return domain.NotAvailable
	}
	v := amount.Mul(decimal.NewFromFloat(toRate)).Div(decimal.NewFromFloat(fromRate))
	return round2(v)
}

func round2(d decimal.Decimal) string {
	return d.Round(places).StringFixed(places)
}

func set(t *domain.AmountTriple, c domain.Currency, v string) {
	switch c {
	case domain.USD:
		t.USD = v
	case domain.KGS:
		t.KGS = v
	case domain.RUB:
		t.RUB = v
	}
}
