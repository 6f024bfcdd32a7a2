package domain

import "strings"

type Currency string

const (
	USD Currency = "USD"
	KGS Currency = "KGS"
	RUB Currency = "RUB"
)

var SupportedCurrency = map[Currency]bool{
	USD: true,
	KGS: true,
	RUB: true,
}

// ParseCurrency accepts a currency code in any letter case.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !SupportedCurrency[c] {
		return "", ErrUnknownCurrency
	}
	return c, nil
}
