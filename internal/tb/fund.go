package tb

import (
	"strings"

	"github.com/fundbook-dev/fundbook/internal/mapping"
	"github.com/fundbook-dev/fundbook/internal/tabular"
)

// FundFromAccount derives a fund code from an account number prefix:
// "100-4000" with delimiter "-" yields "100". An account without the
// delimiter yields the whole trimmed account; an empty account yields "".
func FundFromAccount(account, delimiter string) string {
	s := strings.TrimSpace(account)
	if s == "" {
		return ""
	}
	prefix, _, _ := strings.Cut(s, delimiter)
	return strings.TrimSpace(prefix)
}

// resolveFund returns the row's fund code under the mapping's strategy.
// Empty means "no fund"; callers skip such rows.
func resolveFund(row tabular.Row, account string, m mapping.ColumnMapping) string {
	switch m.FundMode {
	case mapping.FundFromAccountPrefix:
		return FundFromAccount(account, m.Delimiter())
	case mapping.FundColumn:
		return strings.TrimSpace(row[m.FundCol])
	default:
		return mapping.SingleFundCode
	}
}
