package service

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func formatMoney(amount int64) string {
	return "£" + decimal.NewFromInt(amount).StringFixed(0)
}

// percentOf returns part as a percentage of whole, rounded to one decimal.
func percentOf(part, whole int64) string {
	if whole <= 0 {
		return "0"
	}
	return decimal.NewFromInt(part).
		Mul(hundred).
		Div(decimal.NewFromInt(whole)).
		Round(1).
		String()
}
