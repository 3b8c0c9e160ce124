// Package importer is the commit engine: it re-runs the validation pipeline
// over a stored upload and persists the kept lines, idempotently upserting
// the shared Fund and Account dimensions and replacing any prior import in
// the same scope.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fundbook-dev/fundbook/internal/mapping"
	"github.com/fundbook-dev/fundbook/internal/model"
	"github.com/fundbook-dev/fundbook/internal/store"
	"github.com/fundbook-dev/fundbook/internal/tabular"
	"github.com/fundbook-dev/fundbook/internal/tb"
)

// FailedLabel marks a commit that produced no import.
const FailedLabel = "Import failed"

// ErrUnbalanced is returned when the net total exceeds tolerance and the
// caller did not explicitly override the balance gate.
var ErrUnbalanced = errors.New("net total exceeds tolerance; pass the unbalanced override to commit anyway")

// FundInfo is one entry of the caller-confirmed fund dictionary.
type FundInfo struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// Service orchestrates preview, validation, and commit over stored uploads.
type Service struct {
	store     store.Store
	tolerance decimal.Decimal
}

// NewService creates a Service with the default one-currency-unit balance
// tolerance.
func NewService(st store.Store) *Service {
	return &Service{store: st, tolerance: tb.DefaultTolerance}
}

// SetTolerance overrides the balance gate tolerance.
func (s *Service) SetTolerance(tol decimal.Decimal) {
	s.tolerance = tol
}

// Preview returns the column names and a bounded sample of rows for a
// stored upload.
func (s *Service) Preview(ctx context.Context, uploadID string, opts tabular.Options, maxRows int) ([]string, []tabular.Row, error) {
	up, err := s.store.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, nil, err
	}
	return tabular.Preview(up.Content, opts, maxRows)
}

// Validate dry-runs the full pipeline over a stored upload. Nothing is
// persisted; the report gates the commit step.
func (s *Service) Validate(ctx context.Context, uploadID string, opts tabular.Options, m mapping.ColumnMapping) (tb.Report, error) {
	up, err := s.store.GetUpload(ctx, uploadID)
	if err != nil {
		return tb.Report{}, err
	}
	return tb.Validate(up.Content, opts, m)
}

// CommitParams carries everything one commit invocation needs.
type CommitParams struct {
	UploadID string
	Scope    string
	Opts     tabular.Options
	Mapping  mapping.ColumnMapping

	// Funds is the user-confirmed dictionary from the validation step:
	// fund code to display name and classification type.
	Funds map[string]FundInfo

	// AllowUnbalanced overrides the net-to-zero gate.
	AllowUnbalanced bool
}

// CommitResult reports a finished (or failed) commit.
type CommitResult struct {
	ImportedLines int
	Label         string
	Import        model.Import
}

// Commit persists the upload's kept lines under the given scope. The
// delete-then-insert replacement runs inside one transaction: a failure
// anywhere leaves the prior import (if any) intact. The kept/skipped
// decision per row is the same pipeline the validator runs, so the two
// passes cannot disagree.
func (s *Service) Commit(ctx context.Context, p CommitParams) (CommitResult, error) {
	up, err := s.store.GetUpload(ctx, p.UploadID)
	if errors.Is(err, store.ErrUploadNotFound) {
		return CommitResult{Label: FailedLabel}, err
	}
	if err != nil {
		return CommitResult{}, err
	}

	// Dry run first: surfaces mapping errors and enforces the balance gate
	// before anything touches the store.
	report, err := tb.Validate(up.Content, p.Opts, p.Mapping)
	if err != nil {
		return CommitResult{}, err
	}
	if !p.AllowUnbalanced && !report.BalancedWithin(s.tolerance) {
		return CommitResult{}, fmt.Errorf("%w (net %s)", ErrUnbalanced, report.NetTotal.StringFixed(2))
	}

	result := CommitResult{Label: "TB Import - " + up.Filename}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		// Replace-not-append: a scope holds at most one live import.
		if err := tx.DeleteImportByScope(ctx, p.Scope); err != nil {
			return err
		}

		imp, err := tx.CreateImport(ctx, model.Import{
			Scope:    p.Scope,
			Label:    result.Label,
			UploadID: up.ID,
		})
		if err != nil {
			return err
		}
		result.Import = imp

		// Upsert the confirmed fund dictionary and prime the per-commit
		// cache. The cache is memoization for this one commit, not a
		// concurrency primitive.
		fundCache := make(map[string]model.Fund, len(p.Funds))
		for code, info := range p.Funds {
			f, err := tx.UpsertFund(ctx, code, info.Name, info.Type)
			if err != nil {
				return err
			}
			fundCache[code] = f
		}
		acctCache := make(map[string]model.Account)

		return tabular.Each(up.Content, p.Opts, func(rowNum int, row tabular.Row) error {
			res := tb.ProcessRow(rowNum, row, p.Mapping)
			if !res.Kept() {
				return nil
			}

			fund, ok := fundCache[res.Fund]
			if !ok {
				// Fund never confirmed through the dictionary step; create
				// it blank so the line still lands somewhere visible.
				fund, err = tx.GetOrCreateFund(ctx, res.Fund)
				if err != nil {
					return err
				}
				fundCache[res.Fund] = fund
			}

			desc := model.TruncateDescription(res.Description)

			acct, ok := acctCache[res.Account]
			if !ok {
				acct, err = tx.GetOrCreateAccount(ctx, res.Account, desc)
				if err != nil {
					return err
				}
				acctCache[res.Account] = acct
			}

			if _, err := tx.AddLine(ctx, model.Line{
				ImportID:    imp.ID,
				FundID:      fund.ID,
				AccountID:   acct.ID,
				Description: desc,
				Amount:      res.Amount,
				SourceRow:   res.SourceRow,
			}); err != nil {
				return err
			}
			result.ImportedLines++
			return nil
		})
	})
	if err != nil {
		return CommitResult{Label: FailedLabel, ImportedLines: 0}, err
	}
	return result, nil
}
