package services

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatUSD formats an amount as US dollars with thousands grouping and
// exactly 2 decimal places (e.g., $12,345.60).
func FormatUSD(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	result := "$" + humanize.FormatFloat("#,###.##", amount)
	if negative {
		result = "-" + result
	}
	return result
}

// FormatLastSaved renders a save timestamp for the grid header: a relative
// phrase for recent saves ("3 minutes ago") and a never-saved placeholder
// for the zero time.
func FormatLastSaved(t time.Time) string {
	if t.IsZero() {
		return "Not saved yet"
	}
	return fmt.Sprintf("Saved %s", humanize.Time(t))
}
