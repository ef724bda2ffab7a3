package models

import (
	"fmt"
	"strconv"
	"strings"

	"tollboard/internal/observatory"
)

// DebtRow is one displayed debt. IDs are assigned client-side from
// response order, starting at 1; they only identify rows within the
// currently loaded list.
type DebtRow struct {
	ID       int
	Operator string
	Cost     float64
}

// CostDisplay renders the row cost as money.
func (r DebtRow) CostDisplay() string { return Euro(r.Cost) }

// Encode serializes the row for round-tripping through a hidden form field.
func (r DebtRow) Encode() string {
	return fmt.Sprintf("%d|%s|%s", r.ID, r.Operator, strconv.FormatFloat(r.Cost, 'f', -1, 64))
}

// DecodeDebtRow parses a row previously produced by Encode.
func DecodeDebtRow(raw string) (DebtRow, error) {
	parts := strings.SplitN(raw, "|", 3)
	if len(parts) != 3 {
		return DebtRow{}, fmt.Errorf("malformed debt row %q", raw)
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return DebtRow{}, fmt.Errorf("malformed debt row id %q: %w", parts[0], err)
	}
	cost, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return DebtRow{}, fmt.Errorf("malformed debt row cost %q: %w", parts[2], err)
	}
	return DebtRow{ID: id, Operator: parts[1], Cost: cost}, nil
}

// DebtRows maps the response list 1:1 into displayed rows.
func DebtRows(entries []observatory.DebtEntry) []DebtRow {
	rows := make([]DebtRow, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, DebtRow{
			ID:       i + 1,
			Operator: e.TollOpID,
			Cost:     e.PassesCost,
		})
	}
	return rows
}

// DebtTotal sums row costs; recomputed after every load and settlement.
func DebtTotal(rows []DebtRow) float64 {
	var total float64
	for _, r := range rows {
		total += r.Cost
	}
	return total
}

// RemoveDebtRow drops exactly the row with the given id. The second return
// is the removed row; ok is false when no row matched.
func RemoveDebtRow(rows []DebtRow, id int) (remaining []DebtRow, removed DebtRow, ok bool) {
	remaining = make([]DebtRow, 0, len(rows))
	for _, r := range rows {
		if r.ID == id && !ok {
			removed = r
			ok = true
			continue
		}
		remaining = append(remaining, r)
	}
	return remaining, removed, ok
}
