package domain

import "github.com/dustin/go-humanize"

// FormatUSD renders an amount as dollars with thousands separators and
// cents, e.g. $53,000.00.
func FormatUSD(amount float64) string {
	if amount < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -amount)
	}
	return "$" + humanize.FormatFloat("#,###.##", amount)
}
