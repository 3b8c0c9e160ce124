package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundbook-dev/fundbook/internal/model"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "fundbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUploadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	up, err := db.SaveUpload(ctx, model.Upload{Filename: "tb.csv", Content: "Account,Balance\n"})
	require.NoError(t, err)
	assert.NotEmpty(t, up.ID)
	assert.Equal(t, "text/csv", up.ContentType)

	got, err := db.GetUpload(ctx, up.ID)
	require.NoError(t, err)
	assert.Equal(t, "tb.csv", got.Filename)
	assert.Equal(t, "Account,Balance\n", got.Content)

	_, err = db.GetUpload(ctx, "missing")
	assert.ErrorIs(t, err, ErrUploadNotFound)

	uploads, err := db.ListUploads(ctx)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	// Listing omits content to keep it cheap.
	assert.Empty(t, uploads[0].Content)
}

func TestUpsertFund_IdempotentByCode(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, err := db.UpsertFund(ctx, "100", "General Fund", model.FundTypeGovernmental)
	require.NoError(t, err)

	second, err := db.UpsertFund(ctx, "100", "General", model.FundTypeProprietary)
	require.NoError(t, err)

	// Same row, overwritten name/type.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "General", second.Name)
	assert.Equal(t, model.FundTypeProprietary, second.Type)

	got, err := db.GetOrCreateFund(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "General", got.Name)
}

func TestGetOrCreateFund_BlankFallback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	f, err := db.GetOrCreateFund(ctx, "999")
	require.NoError(t, err)
	assert.Empty(t, f.Name)
	assert.Empty(t, f.Type)

	again, err := db.GetOrCreateFund(ctx, "999")
	require.NoError(t, err)
	assert.Equal(t, f.ID, again.ID)
}

func TestGetOrCreateAccount_SeedNameNotOverwritten(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a, err := db.GetOrCreateAccount(ctx, "100-4000", "Property Taxes")
	require.NoError(t, err)
	assert.Equal(t, "Property Taxes", a.Name)

	again, err := db.GetOrCreateAccount(ctx, "100-4000", "Different Name")
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)
	assert.Equal(t, "Property Taxes", again.Name)
}

func TestImportLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	up, err := db.SaveUpload(ctx, model.Upload{Filename: "tb.csv", Content: "x"})
	require.NoError(t, err)

	imp, err := db.CreateImport(ctx, model.Import{Scope: "FY2025", Label: "TB Import - tb.csv", UploadID: up.ID})
	require.NoError(t, err)

	fund, err := db.GetOrCreateFund(ctx, "100")
	require.NoError(t, err)
	acct, err := db.GetOrCreateAccount(ctx, "100-4000", "Taxes")
	require.NoError(t, err)

	_, err = db.AddLine(ctx, model.Line{
		ImportID: imp.ID, FundID: fund.ID, AccountID: acct.ID,
		Description: "Taxes", Amount: decimal.RequireFromString("-1234.56"), SourceRow: 2,
	})
	require.NoError(t, err)

	got, err := db.GetImportByScope(ctx, "FY2025")
	require.NoError(t, err)
	assert.Equal(t, imp.ID, got.ID)

	lines, err := db.LinesByImport(ctx, imp.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Amount.Equal(decimal.RequireFromString("-1234.56")))
	assert.Equal(t, 2, lines[0].SourceRow)

	require.NoError(t, db.DeleteImportByScope(ctx, "FY2025"))
	_, err = db.GetImportByScope(ctx, "FY2025")
	assert.ErrorIs(t, err, ErrImportNotFound)

	lines, err = db.LinesByImport(ctx, imp.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Deleting an empty scope is a no-op.
	assert.NoError(t, db.DeleteImportByScope(ctx, "FY2025"))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	up, err := db.SaveUpload(ctx, model.Upload{Filename: "tb.csv", Content: "x"})
	require.NoError(t, err)
	_, err = db.CreateImport(ctx, model.Import{Scope: "FY2025", Label: "first", UploadID: up.ID})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx Store) error {
		if err := tx.DeleteImportByScope(ctx, "FY2025"); err != nil {
			return err
		}
		if _, err := tx.CreateImport(ctx, model.Import{Scope: "FY2025", Label: "second", UploadID: up.ID}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// The prior import survives the failed replacement.
	got, err := db.GetImportByScope(ctx, "FY2025")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Label)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx Store) error {
		_, err := tx.GetOrCreateFund(ctx, "100")
		return err
	})
	require.NoError(t, err)

	f, err := db.GetOrCreateFund(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "100", f.Code)
}
