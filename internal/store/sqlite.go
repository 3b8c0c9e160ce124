package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/fundbook-dev/fundbook/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT 'text/csv',
	content TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS funds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	number TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	scope TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL,
	upload_id TEXT NOT NULL REFERENCES uploads(id),
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS lines (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	import_id INTEGER NOT NULL REFERENCES imports(id),
	fund_id INTEGER NOT NULL REFERENCES funds(id),
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	description TEXT NOT NULL DEFAULT '',
	amount TEXT NOT NULL,
	source_row INTEGER NOT NULL
);
`

// querier is satisfied by both *sql.DB and *sql.Tx, so every statement can
// run either directly or inside WithTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite is the durable Store implementation.
type SQLite struct {
	db *sql.DB
	q  querier
}

// Open opens (or creates) the SQLite database at path and ensures the
// schema exists.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLite{db: db, q: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// WithTx runs fn against a transactional view. The deferred rollback is a
// no-op once the transaction commits.
func (s *SQLite) WithTx(ctx context.Context, fn func(tx Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&SQLite{db: s.db, q: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// isUniqueViolation matches SQLite's unique-constraint errors without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func (s *SQLite) SaveUpload(ctx context.Context, up model.Upload) (model.Upload, error) {
	if up.ID == "" {
		up.ID = uuid.NewString()
	}
	if up.ContentType == "" {
		up.ContentType = "text/csv"
	}
	createdAt := now()
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO uploads (id, filename, content_type, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		up.ID, up.Filename, up.ContentType, up.Content, createdAt)
	if err != nil {
		return model.Upload{}, fmt.Errorf("inserting upload: %w", err)
	}
	up.CreatedAt = parseTime(createdAt)
	return up, nil
}

func (s *SQLite) GetUpload(ctx context.Context, id string) (model.Upload, error) {
	var up model.Upload
	var createdAt string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, filename, content_type, content, created_at FROM uploads WHERE id = ?`, id).
		Scan(&up.ID, &up.Filename, &up.ContentType, &up.Content, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Upload{}, ErrUploadNotFound
	}
	if err != nil {
		return model.Upload{}, fmt.Errorf("querying upload: %w", err)
	}
	up.CreatedAt = parseTime(createdAt)
	return up, nil
}

func (s *SQLite) ListUploads(ctx context.Context) ([]model.Upload, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, filename, content_type, created_at FROM uploads ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying uploads: %w", err)
	}
	defer rows.Close()

	var uploads []model.Upload
	for rows.Next() {
		var up model.Upload
		var createdAt string
		if err := rows.Scan(&up.ID, &up.Filename, &up.ContentType, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}
		up.CreatedAt = parseTime(createdAt)
		uploads = append(uploads, up)
	}
	return uploads, rows.Err()
}

func (s *SQLite) fundByCode(ctx context.Context, code string) (model.Fund, error) {
	var f model.Fund
	var createdAt string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, code, name, type, created_at FROM funds WHERE code = ?`, code).
		Scan(&f.ID, &f.Code, &f.Name, &f.Type, &createdAt)
	if err != nil {
		return model.Fund{}, err
	}
	f.CreatedAt = parseTime(createdAt)
	return f, nil
}

func (s *SQLite) UpsertFund(ctx context.Context, code, name, fundType string) (model.Fund, error) {
	f, err := s.fundByCode(ctx, code)
	if err == nil {
		if _, err := s.q.ExecContext(ctx,
			`UPDATE funds SET name = ?, type = ? WHERE id = ?`, name, fundType, f.ID); err != nil {
			return model.Fund{}, fmt.Errorf("updating fund %s: %w", code, err)
		}
		f.Name, f.Type = name, fundType
		return f, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Fund{}, fmt.Errorf("querying fund %s: %w", code, err)
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO funds (code, name, type, created_at) VALUES (?, ?, ?, ?)`,
		code, name, fundType, now())
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the insert race; the winner's row exists now.
			return s.UpsertFund(ctx, code, name, fundType)
		}
		return model.Fund{}, fmt.Errorf("inserting fund %s: %w", code, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Fund{}, fmt.Errorf("fund insert id: %w", err)
	}
	return model.Fund{ID: id, Code: code, Name: name, Type: fundType}, nil
}

func (s *SQLite) GetOrCreateFund(ctx context.Context, code string) (model.Fund, error) {
	f, err := s.fundByCode(ctx, code)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Fund{}, fmt.Errorf("querying fund %s: %w", code, err)
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO funds (code, name, type, created_at) VALUES (?, '', '', ?)`, code, now())
	if err != nil {
		if isUniqueViolation(err) {
			return s.GetOrCreateFund(ctx, code)
		}
		return model.Fund{}, fmt.Errorf("inserting fund %s: %w", code, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Fund{}, fmt.Errorf("fund insert id: %w", err)
	}
	return model.Fund{ID: id, Code: code}, nil
}

func (s *SQLite) GetOrCreateAccount(ctx context.Context, number, seedName string) (model.Account, error) {
	var a model.Account
	var createdAt string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, number, name, created_at FROM accounts WHERE number = ?`, number).
		Scan(&a.ID, &a.Number, &a.Name, &createdAt)
	if err == nil {
		a.CreatedAt = parseTime(createdAt)
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("querying account %s: %w", number, err)
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO accounts (number, name, created_at) VALUES (?, ?, ?)`, number, seedName, now())
	if err != nil {
		if isUniqueViolation(err) {
			return s.GetOrCreateAccount(ctx, number, seedName)
		}
		return model.Account{}, fmt.Errorf("inserting account %s: %w", number, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Account{}, fmt.Errorf("account insert id: %w", err)
	}
	return model.Account{ID: id, Number: number, Name: seedName}, nil
}

func (s *SQLite) CreateImport(ctx context.Context, imp model.Import) (model.Import, error) {
	createdAt := now()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO imports (scope, label, upload_id, created_at) VALUES (?, ?, ?, ?)`,
		imp.Scope, imp.Label, imp.UploadID, createdAt)
	if err != nil {
		return model.Import{}, fmt.Errorf("inserting import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Import{}, fmt.Errorf("import insert id: %w", err)
	}
	imp.ID = id
	imp.CreatedAt = parseTime(createdAt)
	return imp, nil
}

func (s *SQLite) GetImportByScope(ctx context.Context, scope string) (model.Import, error) {
	var imp model.Import
	var createdAt string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, scope, label, upload_id, created_at FROM imports WHERE scope = ?`, scope).
		Scan(&imp.ID, &imp.Scope, &imp.Label, &imp.UploadID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Import{}, ErrImportNotFound
	}
	if err != nil {
		return model.Import{}, fmt.Errorf("querying import: %w", err)
	}
	imp.CreatedAt = parseTime(createdAt)
	return imp, nil
}

// DeleteImportByScope removes the scope's import and its lines. Deleting a
// scope with no import is a no-op.
func (s *SQLite) DeleteImportByScope(ctx context.Context, scope string) error {
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM lines WHERE import_id IN (SELECT id FROM imports WHERE scope = ?)`, scope); err != nil {
		return fmt.Errorf("deleting import lines: %w", err)
	}
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM imports WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("deleting import: %w", err)
	}
	return nil
}

func (s *SQLite) AddLine(ctx context.Context, line model.Line) (model.Line, error) {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO lines (import_id, fund_id, account_id, description, amount, source_row)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		line.ImportID, line.FundID, line.AccountID, line.Description,
		line.Amount.String(), line.SourceRow)
	if err != nil {
		return model.Line{}, fmt.Errorf("inserting line: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Line{}, fmt.Errorf("line insert id: %w", err)
	}
	line.ID = id
	return line, nil
}

func (s *SQLite) LinesByImport(ctx context.Context, importID int64) ([]model.Line, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, import_id, fund_id, account_id, description, amount, source_row
		 FROM lines WHERE import_id = ? ORDER BY id`, importID)
	if err != nil {
		return nil, fmt.Errorf("querying lines: %w", err)
	}
	defer rows.Close()

	var lines []model.Line
	for rows.Next() {
		var l model.Line
		var amount string
		if err := rows.Scan(&l.ID, &l.ImportID, &l.FundID, &l.AccountID, &l.Description, &amount, &l.SourceRow); err != nil {
			return nil, fmt.Errorf("scanning line: %w", err)
		}
		l.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parsing line amount %q: %w", amount, err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
