package utils

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const CurrencySuffix = "VNĐ"

// FormatVND renders a whole-dong amount with the locale's digit grouping, e.g. "150.000 VNĐ".
func FormatVND(amount float64, locale string) string {
	return FormatAmount(amount, locale) + " " + CurrencySuffix
}

func FormatAmount(amount float64, locale string) string {
	p := message.NewPrinter(parseLocale(locale))
	return p.Sprintf("%d", int64(math.Round(amount)))
}

func parseLocale(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Vietnamese
	}
	return tag
}
