// Package store defines the storage contract for uploads, the shared Fund
// and Account dimensions, and committed imports, with a durable SQLite
// implementation and an in-memory one for tests.
package store

import (
	"context"
	"errors"

	"github.com/fundbook-dev/fundbook/internal/model"
)

// Sentinel errors callers branch on.
var (
	ErrUploadNotFound = errors.New("upload not found")
	ErrImportNotFound = errors.New("import not found")
)

// Store is the contract the commit engine and commands are written against.
// Dimension methods follow a lookup-else-insert discipline backed by
// uniqueness constraints: an insert lost to a concurrent commit falls back
// to re-lookup instead of failing.
type Store interface {
	// WithTx runs fn against a transactional view of the store. All writes
	// made inside fn become durable together or not at all.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	SaveUpload(ctx context.Context, up model.Upload) (model.Upload, error)
	GetUpload(ctx context.Context, id string) (model.Upload, error)
	ListUploads(ctx context.Context) ([]model.Upload, error)

	// UpsertFund creates the fund or overwrites its name and type
	// (last-write-wins on re-import).
	UpsertFund(ctx context.Context, code, name, fundType string) (model.Fund, error)
	// GetOrCreateFund returns the fund, creating it with blank name and type
	// when absent.
	GetOrCreateFund(ctx context.Context, code string) (model.Fund, error)
	// GetOrCreateAccount returns the account, creating it with the given
	// seed name when absent. Existing account names are never overwritten.
	GetOrCreateAccount(ctx context.Context, number, seedName string) (model.Account, error)

	CreateImport(ctx context.Context, imp model.Import) (model.Import, error)
	GetImportByScope(ctx context.Context, scope string) (model.Import, error)
	DeleteImportByScope(ctx context.Context, scope string) error
	AddLine(ctx context.Context, line model.Line) (model.Line, error)
	LinesByImport(ctx context.Context, importID int64) ([]model.Line, error)
}
