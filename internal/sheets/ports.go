// Package sheets defines the outbound port used to mirror the family roster
// to a spreadsheet.
package sheets

import (
	"context"

	"gestaosocial/internal/core"
	"gestaosocial/internal/export"
)

// Ports for outbound adapters.
type (
	// RosterWriter replaces the mirrored roster with families, in order.
	RosterWriter interface {
		WriteRoster(ctx context.Context, families []core.Family) error
	}
)

// RosterValues lays families out as spreadsheet rows, header first.
func RosterValues(families []core.Family) [][]any {
	rows := make([][]any, 0, len(families)+1)
	rows = append(rows, toCells(export.RosterHeader()))
	for _, f := range families {
		rows = append(rows, toCells(export.RosterFields(f)))
	}
	return rows
}

func toCells(fields []string) []any {
	out := make([]any, len(fields))
	for i, v := range fields {
		out[i] = v
	}
	return out
}
