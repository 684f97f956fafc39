package models

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places kept for prices and balances.
const MoneyPlaces = 2

// RoundMoney rounds half away from zero to two decimal places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Cost is the price of qty tickets at the given unit price.
func Cost(price decimal.Decimal, qty int) decimal.Decimal {
	return RoundMoney(price.Mul(decimal.NewFromInt(int64(qty))))
}

// FormatMoney renders a money value with exactly two decimals ("110.00").
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}
