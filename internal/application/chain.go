package application

import (
	"strings"

	"fxconv-service/internal/domain"
)

// Chain is an ordered list of sources for one currency, tried until one succeeds.
type Chain struct {
	Currency domain.Currency
	Sources  []Source
}

func (c Chain) String() string {
	names := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		names = append(names, s.Name())
	}
	return string(c.Currency) + "[" + strings.Join(names, ",") + "]"
}
