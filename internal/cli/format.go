package cli

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats numbers with grouping separators in text output.
var printer = message.NewPrinter(language.English)

// num formats v with one decimal and grouping, e.g. 12,345.6.
func num(v float64) string {
	return printer.Sprintf("%.1f", v)
}

// whole formats v rounded to an integer with grouping, e.g. 12,346.
func whole(v float64) string {
	return printer.Sprintf("%.0f", v)
}

// count formats an integer with grouping.
func count[T ~int | ~int64](v T) string {
	return printer.Sprintf("%d", v)
}

// shortHash abbreviates a fingerprint for tables.
func shortHash(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
