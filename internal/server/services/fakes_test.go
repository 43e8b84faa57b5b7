package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/dbx"
	"github.com/dmolchanov/packvault/internal/server/dispatch"
	"github.com/dmolchanov/packvault/internal/server/models"
	"github.com/dmolchanov/packvault/internal/server/registry"
	"github.com/dmolchanov/packvault/internal/server/repositories/allocations"
	"github.com/dmolchanov/packvault/internal/server/repositories/audit"
	"github.com/dmolchanov/packvault/internal/server/repositories/packs"
	"github.com/dmolchanov/packvault/internal/server/repositories/pool"
	"github.com/dmolchanov/packvault/internal/server/repositories/staged"
)

// -------- test fakes --------

type fakePacksRepo struct {
	packs.Repository
	byID   map[int64]*models.PackDefinition
	nextID int64
}

func newFakePacksRepo() *fakePacksRepo {
	return &fakePacksRepo{byID: map[int64]*models.PackDefinition{}}
}

func (f *fakePacksRepo) Create(ctx context.Context, pack *models.PackDefinition) (*models.PackDefinition, error) {
	if pack.PackID == 0 {
		f.nextID++
		pack.PackID = f.nextID
	} else if pack.PackID > f.nextID {
		f.nextID = pack.PackID
	}
	f.byID[pack.PackID] = pack
	return pack, nil
}

func (f *fakePacksRepo) GetByID(ctx context.Context, packID int64) (*models.PackDefinition, error) {
	pack, ok := f.byID[packID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return pack, nil
}

func (f *fakePacksRepo) GetByTemplate(ctx context.Context, templateRef string) (*models.PackDefinition, error) {
	for _, pack := range f.byID {
		if pack.TemplateRef == templateRef {
			return pack, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakePacksRepo) DeleteAll(ctx context.Context) error {
	f.byID = map[int64]*models.PackDefinition{}
	return nil
}

type fakePoolRepo struct {
	pool.Repository
	entries []*models.AvailabilityEntry
	nextID  int64
}

func (f *fakePoolRepo) Insert(ctx context.Context, packID int64, bundle []string) (*models.AvailabilityEntry, error) {
	f.nextID++
	entry := &models.AvailabilityEntry{EntryID: f.nextID, PackID: packID, Bundle: bundle}
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakePoolRepo) CountByPack(ctx context.Context, packID int64) (int64, error) {
	var n int64
	for _, entry := range f.entries {
		if entry.PackID == packID {
			n++
		}
	}
	return n, nil
}

func (f *fakePoolRepo) SelectAndRemove(ctx context.Context, packID int64, index int64) (*models.AvailabilityEntry, error) {
	var i int64
	for pos, entry := range f.entries {
		if entry.PackID != packID {
			continue
		}
		if i == index {
			f.entries = append(f.entries[:pos], f.entries[pos+1:]...)
			return entry, nil
		}
		i++
	}
	return nil, common.ErrPoolExhausted
}

func (f *fakePoolRepo) DeleteAll(ctx context.Context) error {
	f.entries = nil
	return nil
}

type fakeAllocationsRepo struct {
	allocations.Repository
	m map[string]*models.AllocationRequest
}

func newFakeAllocationsRepo() *fakeAllocationsRepo {
	return &fakeAllocationsRepo{m: map[string]*models.AllocationRequest{}}
}

func (f *fakeAllocationsRepo) Create(ctx context.Context, req *models.AllocationRequest) error {
	if _, ok := f.m[req.ItemID]; ok {
		return common.ErrAlreadyExists
	}
	clone := *req
	f.m[req.ItemID] = &clone
	return nil
}

func (f *fakeAllocationsRepo) GetByItemID(ctx context.Context, itemID string) (*models.AllocationRequest, error) {
	req, ok := f.m[itemID]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (f *fakeAllocationsRepo) MarkResolved(ctx context.Context, itemID string, bundle []string) error {
	req, ok := f.m[itemID]
	if !ok || req.Status != models.AllocationPending {
		return common.ErrInvalidState
	}
	req.Status = models.AllocationResolved
	req.Bundle = bundle
	return nil
}

func (f *fakeAllocationsRepo) Delete(ctx context.Context, itemID string) error {
	if _, ok := f.m[itemID]; !ok {
		return common.ErrNotFound
	}
	delete(f.m, itemID)
	return nil
}

func (f *fakeAllocationsRepo) DeleteAll(ctx context.Context) error {
	f.m = map[string]*models.AllocationRequest{}
	return nil
}

type fakeStagedRepo struct {
	staged.Repository
	m map[string]*models.StagedEntry
}

func newFakeStagedRepo() *fakeStagedRepo {
	return &fakeStagedRepo{m: map[string]*models.StagedEntry{}}
}

func (f *fakeStagedRepo) Create(ctx context.Context, entry *models.StagedEntry) error {
	if _, ok := f.m[entry.ItemID]; ok {
		return common.ErrAlreadyStaged
	}
	for _, existing := range f.m {
		if existing.Requester == entry.Requester {
			return common.ErrAlreadyStaged
		}
	}
	clone := *entry
	f.m[entry.ItemID] = &clone
	return nil
}

func (f *fakeStagedRepo) GetByItemID(ctx context.Context, itemID string) (*models.StagedEntry, error) {
	entry, ok := f.m[itemID]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *entry
	return &clone, nil
}

func (f *fakeStagedRepo) Approve(ctx context.Context, itemID string) error {
	entry, ok := f.m[itemID]
	if !ok {
		return common.ErrNotFound
	}
	entry.Approved = true
	return nil
}

func (f *fakeStagedRepo) Delete(ctx context.Context, itemID string) error {
	if _, ok := f.m[itemID]; !ok {
		return common.ErrNotFound
	}
	delete(f.m, itemID)
	return nil
}

func (f *fakeStagedRepo) DeleteAll(ctx context.Context) error {
	f.m = map[string]*models.StagedEntry{}
	return nil
}

type fakeAuditRepo struct {
	audit.Repository
	events []*models.AuditEvent
}

func (f *fakeAuditRepo) Append(ctx context.Context, event *models.AuditEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeAuditRepo) DeleteAll(ctx context.Context) error {
	f.events = nil
	return nil
}

type fakeRepoManager struct {
	packs       *fakePacksRepo
	pool        *fakePoolRepo
	allocations *fakeAllocationsRepo
	staged      *fakeStagedRepo
	audit       *fakeAuditRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		packs:       newFakePacksRepo(),
		pool:        &fakePoolRepo{},
		allocations: newFakeAllocationsRepo(),
		staged:      newFakeStagedRepo(),
		audit:       &fakeAuditRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Packs(db dbx.DBTX) packs.Repository                  { return m.packs }
func (m *fakeRepoManager) Pool(db dbx.DBTX) pool.Repository                    { return m.pool }
func (m *fakeRepoManager) Allocations(db dbx.DBTX) allocations.Repository      { return m.allocations }
func (m *fakeRepoManager) Staged(db dbx.DBTX) staged.Repository                { return m.staged }
func (m *fakeRepoManager) Audit(db dbx.DBTX) audit.Repository                  { return m.audit }

type fakeRegistry struct {
	assets      map[string]*registry.Asset
	collections map[string]*registry.Collection
	owned       []*registry.Asset
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		assets:      map[string]*registry.Asset{},
		collections: map[string]*registry.Collection{},
	}
}

func (f *fakeRegistry) GetAsset(ctx context.Context, assetID string) (*registry.Asset, error) {
	asset, ok := f.assets[assetID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return asset, nil
}

func (f *fakeRegistry) GetCollection(ctx context.Context, name string) (*registry.Collection, error) {
	collection, ok := f.collections[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	return collection, nil
}

func (f *fakeRegistry) ListOwnedAssets(ctx context.Context, account string) ([]*registry.Asset, error) {
	return f.owned, nil
}

func (f *fakeRegistry) Transfer(ctx context.Context, to string, assetIDs []string, memo string) error {
	return nil
}

func (f *fakeRegistry) Mint(ctx context.Context, collection, category, templateRef, newOwner string) error {
	return nil
}

func (f *fakeRegistry) Burn(ctx context.Context, assetID string) error { return nil }

type fakeQueue struct {
	cmds []dispatch.Command
}

func (f *fakeQueue) Enqueue(cmds ...dispatch.Command) {
	f.cmds = append(f.cmds, cmds...)
}

// -------- helpers --------

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}
