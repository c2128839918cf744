package utils

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders a dollar amount with thousands separators.
// Whole amounts drop the cents.
func FormatAmount(amount float64) string {
	if amount == math.Trunc(amount) {
		return printer.Sprintf("$%d", int64(amount))
	}
	return printer.Sprintf("$%.2f", amount)
}
