// Package mapping defines the column mapping a caller supplies to interpret
// one trial-balance export: which columns hold the account, description and
// amounts, how the amount is signed, and how fund codes are derived.
package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Amount modes.
const (
	ModeSigned      = "signed"       // single signed balance column
	ModeDebitCredit = "debit_credit" // separate debit and credit columns
)

// Credit sign policies for debit_credit mode.
const (
	CreditKeep    = "keep"    // credit stored positive, subtracted
	CreditReverse = "reverse" // credit stored positive but means negative; flipped before subtraction
)

// Fund resolution strategies.
const (
	FundFromAccountPrefix = "fund_from_account_prefix"
	FundColumn            = "fund_column"
	SingleFund            = "single_fund"
)

// SingleFundCode is the sentinel fund for files with no fund segmentation.
const SingleFundCode = "SINGLE"

// DefaultFundDelimiter splits fund prefixes out of account numbers.
const DefaultFundDelimiter = "-"

// ColumnMapping is immutable per run: constructed from caller input (or a
// saved preset), validated against the file's headers, then used by both the
// validation and commit passes.
type ColumnMapping struct {
	AccountCol string `yaml:"account_col"`
	DescCol    string `yaml:"desc_col,omitempty"`

	AmountMode     string `yaml:"amount_mode"`
	BalanceCol     string `yaml:"balance_col,omitempty"`
	DebitCol       string `yaml:"debit_col,omitempty"`
	CreditCol      string `yaml:"credit_col,omitempty"`
	CreditSignMode string `yaml:"credit_sign_mode,omitempty"`

	FundMode      string `yaml:"fund_mode"`
	FundCol       string `yaml:"fund_col,omitempty"`
	FundDelimiter string `yaml:"fund_delimiter,omitempty"`

	IgnoreBlankAccount bool `yaml:"ignore_blank_account"`
	IgnoreBlankAmount  bool `yaml:"ignore_blank_amount"`
	IgnoreZero         bool `yaml:"ignore_zero"`
}

// Default returns a mapping with the filter and policy defaults applied.
// Column selections are left for the caller.
func Default() ColumnMapping {
	return ColumnMapping{
		AmountMode:         ModeSigned,
		CreditSignMode:     CreditKeep,
		FundMode:           FundFromAccountPrefix,
		FundDelimiter:      DefaultFundDelimiter,
		IgnoreBlankAccount: true,
		IgnoreBlankAmount:  true,
		IgnoreZero:         true,
	}
}

// ReverseCredit reports whether the credit column's sign should be flipped
// before the debit-credit subtraction. Matching is case-insensitive; any
// value other than "reverse" means keep.
func (m ColumnMapping) ReverseCredit() bool {
	return strings.EqualFold(m.CreditSignMode, CreditReverse)
}

// Delimiter returns the fund prefix delimiter, defaulting to "-".
func (m ColumnMapping) Delimiter() string {
	if m.FundDelimiter == "" {
		return DefaultFundDelimiter
	}
	return m.FundDelimiter
}

// Validate checks the mapping's internal consistency and that every column
// it references exists in headers. These are caller mistakes, so a failure
// here aborts the whole validate/commit call rather than producing an empty
// report.
func (m ColumnMapping) Validate(headers []string) error {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}

	requireCol := func(what, col string) error {
		if col == "" {
			return fmt.Errorf("mapping: %s column not set", what)
		}
		if !known[col] {
			return fmt.Errorf("mapping: %s column %q not found in headers", what, col)
		}
		return nil
	}

	if err := requireCol("account", m.AccountCol); err != nil {
		return err
	}
	if m.DescCol != "" && !known[m.DescCol] {
		return fmt.Errorf("mapping: description column %q not found in headers", m.DescCol)
	}

	switch m.AmountMode {
	case ModeSigned:
		if err := requireCol("balance", m.BalanceCol); err != nil {
			return err
		}
		if m.DebitCol != "" || m.CreditCol != "" {
			return fmt.Errorf("mapping: debit/credit columns set but amount mode is %q", ModeSigned)
		}
	case ModeDebitCredit:
		if err := requireCol("debit", m.DebitCol); err != nil {
			return err
		}
		if err := requireCol("credit", m.CreditCol); err != nil {
			return err
		}
		if m.BalanceCol != "" {
			return fmt.Errorf("mapping: balance column set but amount mode is %q", ModeDebitCredit)
		}
	default:
		return fmt.Errorf("mapping: unsupported amount mode %q", m.AmountMode)
	}

	if m.CreditSignMode != "" &&
		!strings.EqualFold(m.CreditSignMode, CreditKeep) &&
		!strings.EqualFold(m.CreditSignMode, CreditReverse) {
		return fmt.Errorf("mapping: unsupported credit sign mode %q", m.CreditSignMode)
	}

	switch m.FundMode {
	case FundFromAccountPrefix, SingleFund:
	case FundColumn:
		if err := requireCol("fund", m.FundCol); err != nil {
			return err
		}
	default:
		return fmt.Errorf("mapping: unsupported fund mode %q", m.FundMode)
	}

	return nil
}

// Load reads a mapping preset from a YAML file.
func Load(path string) (ColumnMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ColumnMapping{}, fmt.Errorf("reading mapping: %w", err)
	}
	m := Default()
	if err := yaml.Unmarshal(data, &m); err != nil {
		return ColumnMapping{}, fmt.Errorf("parsing mapping: %w", err)
	}
	return m, nil
}

// Save writes a mapping preset to a YAML file.
func Save(path string, m ColumnMapping) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling mapping: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}
	return nil
}
