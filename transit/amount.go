package transit

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencyExponents = map[string]int32{
	"JPY": 0,
	"KRW": 0,
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"JPY": "¥",
	"SGD": "S$",
}

// CurrencyExponent is the number of minor-unit digits of a currency.
func CurrencyExponent(currency string) int32 {
	if e, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return e
	}
	return 2
}

// ToDecimal converts minor units to a decimal amount.
func ToDecimal(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -CurrencyExponent(currency))
}

// FormatAmount renders amount with the default symbol of currency.
func FormatAmount(amount int64, currency string) string {
	return FormatAmountWith(amount, currency, currencySymbols[strings.ToUpper(currency)])
}

// FormatAmountWith renders amount with an explicit symbol. An empty symbol
// falls back to the ISO code as a suffix.
func FormatAmountWith(amount int64, currency, symbol string) string {
	d := ToDecimal(amount, currency)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	digits := d.StringFixed(CurrencyExponent(currency))
	if symbol == "" {
		return sign + digits + " " + strings.ToUpper(currency)
	}
	return sign + symbol + digits
}
