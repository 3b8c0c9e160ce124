package tb

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fundbook-dev/fundbook/internal/mapping"
	"github.com/fundbook-dev/fundbook/internal/tabular"
)

// ParseAmount parses messy accounting-export numerics: optional thousands
// commas, and parentheses for negatives ("(1,234.56)" -> -1234.56). Empty or
// whitespace-only text is "absent" (ok=false), which callers must keep
// distinct from a true zero.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// normalizeAmount computes a row's signed amount under the mapping's amount
// convention. ok=false means the row carries no usable amount (non-numeric
// balance in signed mode). bothDC reports the debit_credit anomaly where
// both columns hold non-blank text; the amount is still computed.
func normalizeAmount(row tabular.Row, m mapping.ColumnMapping) (amt decimal.Decimal, ok, bothDC bool) {
	if m.AmountMode == mapping.ModeSigned {
		amt, ok = ParseAmount(row[m.BalanceCol])
		return amt, ok, false
	}

	// debit_credit: each side defaults to zero when absent or unparsable.
	dRaw := row[m.DebitCol]
	cRaw := row[m.CreditCol]

	d, _ := ParseAmount(dRaw)
	c, _ := ParseAmount(cRaw)

	bothDC = strings.TrimSpace(dRaw) != "" && strings.TrimSpace(cRaw) != ""

	if m.ReverseCredit() {
		c = c.Neg()
	}
	return d.Sub(c), true, bothDC
}
