package dto

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DisplayLanguage is the locale of formatted values
var DisplayLanguage = language.BrazilianPortuguese

var brlSymbol = message.NewPrinter(DisplayLanguage).Sprint(currency.Symbol(currency.BRL))

// FormatBRL renders a monetary value as Brazilian reais, e.g. "R$ 1.234,50"
func FormatBRL(v decimal.Decimal) string {
	p := message.NewPrinter(DisplayLanguage)
	return p.Sprintf("%s %.2f", brlSymbol, v.Round(2).InexactFloat64())
}

// FormatPercent renders a percentage with one decimal place, e.g. "12,5%"
func FormatPercent(v decimal.Decimal) string {
	p := message.NewPrinter(DisplayLanguage)
	return p.Sprintf("%.1f%%", v.Round(1).InexactFloat64())
}

// FormatCount renders an integer with pt-BR digit grouping
func FormatCount(n int64) string {
	return message.NewPrinter(DisplayLanguage).Sprintf("%d", n)
}
