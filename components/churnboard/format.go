package churnboard

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatFixed renders v with the given number of decimals.
func FormatFixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// FormatPercent renders a ratio in [0,1] as a percentage, e.g. 0.82 -> "82.0%".
func FormatPercent(ratio float64) string {
	return FormatFixed(ratio*100, 1) + "%"
}

// FormatInt renders n with thousands separators.
func FormatInt(n int) string {
	return humanize.Comma(int64(n))
}

// FormatNumber renders v with thousands separators and fixed decimals.
func FormatNumber(v float64, decimals int) string {
	return humanize.FormatFloat("#,###."+strings.Repeat("#", decimals), v)
}

// FormatCurrency renders v as dollars with two decimals.
func FormatCurrency(v float64) string {
	return "$" + FormatNumber(v, 2)
}

// FormatDate renders the date part of t, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// FormatDateTime renders t in a short human form, or "-" for the zero time.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
