package models

import (
	"fmt"
	"time"
)

// NormalizeDate converts an HTML date input value (2006-01-02) into the
// 8-digit YYYYMMDD form every observatory date-range endpoint expects.
func NormalizeDate(input string) (string, error) {
	t, err := time.Parse("2006-01-02", input)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", input, err)
	}
	return t.Format("20060102"), nil
}

// Euro renders an amount the way every page displays money.
func Euro(amount float64) string {
	return fmt.Sprintf("€%.2f", amount)
}
