package tb

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fundbook-dev/fundbook/internal/mapping"
	"github.com/fundbook-dev/fundbook/internal/tabular"
)

// TopExposureLimit bounds the largest-magnitude lines surfaced in a report.
const TopExposureLimit = 10

// DefaultTolerance is the balance gate: an import whose net total is within
// one currency unit of zero is considered balanced.
var DefaultTolerance = decimal.NewFromInt(1)

// Exposure is one of the largest-magnitude kept lines.
type Exposure struct {
	AbsAmount decimal.Decimal
	Fund      string
	Account   string
	SourceRow int
}

// Report aggregates one full dry-run pass. It is ephemeral: recomputed
// whenever the mapping changes, shown to the user, then discarded.
type Report struct {
	RowsRead        int
	RowsKept        int
	NetTotal        decimal.Decimal
	MissingAccount  int
	MissingFund     int
	NonNumeric      int
	BothDebitCredit int
	ZeroFiltered    int
	FundCounts      map[string]int
	TopExposures    []Exposure
}

// BalancedWithin reports whether the net total is within tolerance of zero.
func (r Report) BalancedWithin(tolerance decimal.Decimal) bool {
	return r.NetTotal.Abs().LessThanOrEqual(tolerance)
}

// Balanced applies the default one-currency-unit tolerance.
func (r Report) Balanced() bool {
	return r.BalancedWithin(DefaultTolerance)
}

// FundCodes returns the distinct fund codes seen, sorted.
func (r Report) FundCodes() []string {
	codes := make([]string, 0, len(r.FundCounts))
	for code := range r.FundCounts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Validate runs the full row set through the pipeline without persisting
// anything. It is deterministic for identical text and mapping. A mapping
// that references columns absent from the header fails the whole call.
func Validate(text string, opts tabular.Options, m mapping.ColumnMapping) (Report, error) {
	headers, err := tabular.Headers(text, opts)
	if err != nil {
		return Report{}, err
	}
	if err := m.Validate(headers); err != nil {
		return Report{}, err
	}

	report := Report{
		NetTotal:   decimal.Zero,
		FundCounts: make(map[string]int),
	}
	var candidates []Exposure

	err = tabular.Each(text, opts, func(rowNum int, row tabular.Row) error {
		report.RowsRead++

		res := ProcessRow(rowNum, row, m)

		// The both-populated anomaly is counted for every row whose amount
		// was computed, including rows the zero filter then drops.
		if res.BothDC {
			report.BothDebitCredit++
		}

		switch res.Skip {
		case SkipMissingAccount:
			report.MissingAccount++
			return nil
		case SkipMissingFund:
			report.MissingFund++
			return nil
		case SkipNonNumeric:
			report.NonNumeric++
			return nil
		case SkipZero:
			report.ZeroFiltered++
			return nil
		}

		report.RowsKept++
		report.NetTotal = report.NetTotal.Add(res.Amount)
		report.FundCounts[res.Fund]++
		candidates = append(candidates, Exposure{
			AbsAmount: res.Amount.Abs(),
			Fund:      res.Fund,
			Account:   res.Account,
			SourceRow: res.SourceRow,
		})
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	// Descending by magnitude; ties keep encounter order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].AbsAmount.GreaterThan(candidates[j].AbsAmount)
	})
	if len(candidates) > TopExposureLimit {
		candidates = candidates[:TopExposureLimit]
	}
	report.TopExposures = candidates

	return report, nil
}
