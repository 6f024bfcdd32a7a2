package domain

// NotAvailable is shown in a derived amount whose rate is zero.
const NotAvailable = "N/A"

// AmountTriple holds the three displayed amounts. Empty means no value.
type AmountTriple struct {
	USD string
	KGS string
	RUB string
}

// Get returns the amount shown for c.
func (a AmountTriple) Get(c Currency) string {
	switch c {
	case USD:
		return a.USD
	case KGS:
		return a.KGS
	case RUB:
		return a.RUB
	default:
		return ""
	}
}
