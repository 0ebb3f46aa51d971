package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount the way the console shows money,
// e.g. 500000 → "Rp 500.000".
func FormatRupiah(amount float64) string {
	return idPrinter.Sprintf("Rp %.0f", amount)
}
