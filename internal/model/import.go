package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DescriptionMaxLen bounds line descriptions and seeded account names.
const DescriptionMaxLen = 255

// Import is one committed snapshot of a source file's normalized lines.
// A scope (reporting period, workspace) holds at most one live Import;
// committing again to the same scope replaces the previous one.
type Import struct {
	ID        int64
	Scope     string
	Label     string
	UploadID  string
	CreatedAt time.Time
}

// Line is a normalized trial-balance line belonging to an Import.
type Line struct {
	ID          int64
	ImportID    int64
	FundID      int64
	AccountID   int64
	Description string
	Amount      decimal.Decimal
	SourceRow   int
}

// TruncateDescription bounds free-text descriptions to DescriptionMaxLen.
func TruncateDescription(s string) string {
	if len(s) <= DescriptionMaxLen {
		return s
	}
	return s[:DescriptionMaxLen]
}
