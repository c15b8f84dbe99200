package engine

import "fmt"

// Currency is an ISO 4217 currency code the converter knows about.
type Currency string

const (
	CurrencyKRW Currency = "KRW"
	CurrencyUSD Currency = "USD"
)

// CurrencyConverter performs fixed-rate conversion between the two
// currencies the channels report in. Rates are fixed at construction;
// live FX lookup is out of scope.
type CurrencyConverter struct {
	krwPerUSD float64
}

// NewCurrencyConverter constructs a converter with the given fixed
// KRW-per-USD rate.
func NewCurrencyConverter(krwPerUSD float64) (*CurrencyConverter, error) {
	if krwPerUSD <= 0 {
		return nil, fmt.Errorf("invalid KRW/USD rate %v", krwPerUSD)
	}
	return &CurrencyConverter{krwPerUSD: krwPerUSD}, nil
}

// Convert converts an amount between KRW and USD. Same-currency
// conversion is the identity.
func (c *CurrencyConverter) Convert(amount float64, from, to Currency) (float64, error) {
	switch {
	case from == to:
		return amount, nil
	case from == CurrencyUSD && to == CurrencyKRW:
		return amount * c.krwPerUSD, nil
	case from == CurrencyKRW && to == CurrencyUSD:
		return amount / c.krwPerUSD, nil
	default:
		return 0, fmt.Errorf("unsupported conversion %s to %s", from, to)
	}
}

// ToKRW converts a USD amount into KRW.
func (c *CurrencyConverter) ToKRW(usd float64) float64 {
	return usd * c.krwPerUSD
}

// ToUSD converts a KRW amount into USD.
func (c *CurrencyConverter) ToUSD(krw float64) float64 {
	return krw / c.krwPerUSD
}
