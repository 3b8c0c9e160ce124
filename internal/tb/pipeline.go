// Package tb implements the trial-balance mapping and normalization engine:
// per-row amount normalization, fund resolution, and the shared keep/skip
// pipeline consumed by both the dry-run validator and the commit engine.
package tb

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fundbook-dev/fundbook/internal/mapping"
	"github.com/fundbook-dev/fundbook/internal/tabular"
)

// SkipReason classifies why a row is excluded. These are data anomalies, not
// errors: they are counted and reported, never raised.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipMissingAccount
	SkipMissingFund
	SkipNonNumeric
	SkipZero // deliberate exclusion via the ignore-zero filter, not an anomaly
)

// RowResult is the outcome of running one row through the shared pipeline.
// Validation and commit both build their decisions from this single function
// so a row can never be kept by one pass and skipped by the other.
type RowResult struct {
	SourceRow   int
	Account     string
	Description string
	Fund        string
	Amount      decimal.Decimal
	BothDC      bool // both debit and credit populated (amount still computed)
	Skip        SkipReason
}

// Kept reports whether the row survives all filters.
func (r RowResult) Kept() bool { return r.Skip == SkipNone }

// ProcessRow applies the mapping to one row record. The checks run in a
// fixed order (account, fund, amount, zero filter); the first failing check
// decides the skip reason and later fields are left at their zero values.
func ProcessRow(rowNum int, row tabular.Row, m mapping.ColumnMapping) RowResult {
	res := RowResult{SourceRow: rowNum}

	res.Account = strings.TrimSpace(row[m.AccountCol])
	if m.IgnoreBlankAccount && res.Account == "" {
		res.Skip = SkipMissingAccount
		return res
	}

	res.Fund = resolveFund(row, res.Account, m)
	if res.Fund == "" {
		res.Skip = SkipMissingFund
		return res
	}

	amt, ok, bothDC := normalizeAmount(row, m)
	if !ok {
		res.Skip = SkipNonNumeric
		return res
	}
	res.Amount = amt
	res.BothDC = bothDC

	if m.DescCol != "" {
		res.Description = strings.TrimSpace(row[m.DescCol])
	}

	if m.IgnoreZero && amt.IsZero() {
		res.Skip = SkipZero
		return res
	}

	return res
}
