package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fundbook-dev/fundbook/internal/model"
)

// Memory is an in-memory Store for tests and dry runs. WithTx is simulated
// by snapshotting state and restoring it on failure; it is not meant for
// concurrent transactional use.
type Memory struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	uploads     map[string]model.Upload
	uploadOrder []string
	funds       map[string]model.Fund    // by code
	accounts    map[string]model.Account // by number
	imports     map[string]model.Import  // by scope
	lines       []model.Line

	nextFundID    int64
	nextAccountID int64
	nextImportID  int64
	nextLineID    int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: memState{
		uploads:  make(map[string]model.Upload),
		funds:    make(map[string]model.Fund),
		accounts: make(map[string]model.Account),
		imports:  make(map[string]model.Import),
	}}
}

func (s memState) clone() memState {
	c := memState{
		uploads:       make(map[string]model.Upload, len(s.uploads)),
		uploadOrder:   append([]string(nil), s.uploadOrder...),
		funds:         make(map[string]model.Fund, len(s.funds)),
		accounts:      make(map[string]model.Account, len(s.accounts)),
		imports:       make(map[string]model.Import, len(s.imports)),
		lines:         append([]model.Line(nil), s.lines...),
		nextFundID:    s.nextFundID,
		nextAccountID: s.nextAccountID,
		nextImportID:  s.nextImportID,
		nextLineID:    s.nextLineID,
	}
	for k, v := range s.uploads {
		c.uploads[k] = v
	}
	for k, v := range s.funds {
		c.funds[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.imports {
		c.imports[k] = v
	}
	return c
}

// WithTx snapshots state, runs fn, and restores the snapshot if fn fails.
func (s *Memory) WithTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Memory) SaveUpload(ctx context.Context, up model.Upload) (model.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if up.ID == "" {
		up.ID = uuid.NewString()
	}
	if up.ContentType == "" {
		up.ContentType = "text/csv"
	}
	up.CreatedAt = time.Now().UTC()
	s.state.uploads[up.ID] = up
	s.state.uploadOrder = append(s.state.uploadOrder, up.ID)
	return up, nil
}

func (s *Memory) GetUpload(ctx context.Context, id string) (model.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	up, ok := s.state.uploads[id]
	if !ok {
		return model.Upload{}, ErrUploadNotFound
	}
	return up, nil
}

func (s *Memory) ListUploads(ctx context.Context) ([]model.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uploads := make([]model.Upload, 0, len(s.state.uploadOrder))
	for _, id := range s.state.uploadOrder {
		uploads = append(uploads, s.state.uploads[id])
	}
	return uploads, nil
}

func (s *Memory) UpsertFund(ctx context.Context, code, name, fundType string) (model.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.state.funds[code]
	if !ok {
		s.state.nextFundID++
		f = model.Fund{ID: s.state.nextFundID, Code: code, CreatedAt: time.Now().UTC()}
	}
	f.Name, f.Type = name, fundType
	s.state.funds[code] = f
	return f, nil
}

func (s *Memory) GetOrCreateFund(ctx context.Context, code string) (model.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.state.funds[code]; ok {
		return f, nil
	}
	s.state.nextFundID++
	f := model.Fund{ID: s.state.nextFundID, Code: code, CreatedAt: time.Now().UTC()}
	s.state.funds[code] = f
	return f, nil
}

func (s *Memory) GetOrCreateAccount(ctx context.Context, number, seedName string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.state.accounts[number]; ok {
		return a, nil
	}
	s.state.nextAccountID++
	a := model.Account{ID: s.state.nextAccountID, Number: number, Name: seedName, CreatedAt: time.Now().UTC()}
	s.state.accounts[number] = a
	return a, nil
}

func (s *Memory) CreateImport(ctx context.Context, imp model.Import) (model.Import, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.nextImportID++
	imp.ID = s.state.nextImportID
	imp.CreatedAt = time.Now().UTC()
	s.state.imports[imp.Scope] = imp
	return imp, nil
}

func (s *Memory) GetImportByScope(ctx context.Context, scope string) (model.Import, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	imp, ok := s.state.imports[scope]
	if !ok {
		return model.Import{}, ErrImportNotFound
	}
	return imp, nil
}

func (s *Memory) DeleteImportByScope(ctx context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	imp, ok := s.state.imports[scope]
	if !ok {
		return nil
	}
	kept := s.state.lines[:0]
	for _, l := range s.state.lines {
		if l.ImportID != imp.ID {
			kept = append(kept, l)
		}
	}
	s.state.lines = kept
	delete(s.state.imports, scope)
	return nil
}

func (s *Memory) AddLine(ctx context.Context, line model.Line) (model.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.nextLineID++
	line.ID = s.state.nextLineID
	s.state.lines = append(s.state.lines, line)
	return line, nil
}

func (s *Memory) LinesByImport(ctx context.Context, importID int64) ([]model.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []model.Line
	for _, l := range s.state.lines {
		if l.ImportID == importID {
			lines = append(lines, l)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}
