package domain

import "strings"

// Currency names one of the two independently managed player balances.
type Currency string

const (
	Coins Currency = "coins"
	Stars Currency = "stars"
)

// Currencies returns every supported currency in a stable order.
func Currencies() []Currency {
	return []Currency{Coins, Stars}
}

// ParseCurrency maps a case-insensitive name to a Currency.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToLower(strings.TrimSpace(s))) {
	case Coins:
		return Coins, nil
	case Stars:
		return Stars, nil
	default:
		return "", ErrInvalidArgument("unknown currency: " + s)
	}
}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	return c == Coins || c == Stars
}

func (c Currency) String() string { return string(c) }
