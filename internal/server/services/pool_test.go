package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/server/events"
	"github.com/dmolchanov/packvault/internal/server/models"
	"github.com/dmolchanov/packvault/internal/server/registry"
)

type poolFixture struct {
	svc *PoolService
	rm  *fakeRepoManager
	reg *fakeRegistry
}

func setupPool(t *testing.T) (*poolFixture, func()) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	rm := newFakeRepoManager()
	rm.packs.byID[1] = &models.PackDefinition{
		PackID: 1, Collection: "heroes", TemplateRef: "tpl-1",
		UnlockTime: time.Now().Add(-time.Hour),
	}
	reg := newFakeRegistry()

	svc := NewPoolService(db, rm, testConfig(), reg, events.NopPublisher{})
	return &poolFixture{svc: svc, rm: rm, reg: reg}, func() { db.Close() }
}

func TestPoolInsert_SystemOnly(t *testing.T) {
	f, done := setupPool(t)
	defer done()

	_, err := f.svc.Insert(context.Background(), "alice", 1, []string{"a"})
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestPoolInsert_EmptyBundleRejected(t *testing.T) {
	f, done := setupPool(t)
	defer done()

	_, err := f.svc.Insert(context.Background(), "vault", 1, nil)
	if !errors.Is(err, common.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestPoolInsert_UnknownPackRejected(t *testing.T) {
	f, done := setupPool(t)
	defer done()

	_, err := f.svc.Insert(context.Background(), "vault", 99, []string{"a"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPoolInsert_AssignsSequentialEntryIDs(t *testing.T) {
	f, done := setupPool(t)
	defer done()

	first, err := f.svc.Insert(context.Background(), "vault", 1, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.EntryID != 1 {
		t.Fatalf("first entry id must be 1, got %d", first.EntryID)
	}

	second, err := f.svc.Insert(context.Background(), "vault", 1, []string{"c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.EntryID != 2 {
		t.Fatalf("second entry id must be 2, got %d", second.EntryID)
	}
}

func TestPoolGenerate_FiltersAndChunks(t *testing.T) {
	f, done := setupPool(t)
	defer done()

	// 7 eligible assets plus noise from other collections and categories.
	for i := 0; i < 7; i++ {
		f.reg.owned = append(f.reg.owned, &registry.Asset{
			ID: fmt.Sprintf("card-%d", i), Collection: "heroes", Category: "cards",
		})
	}
	f.reg.owned = append(f.reg.owned,
		&registry.Asset{ID: "other-1", Collection: "villains", Category: "cards"},
		&registry.Asset{ID: "pack-1", Collection: "heroes", Category: "packs"},
	)

	count, err := f.svc.Generate(context.Background(), "vault", 1, "cards", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 7 eligible in bundles of 2 gives 3 full bundles; the remainder is left
	// in custody.
	if count != 3 {
		t.Fatalf("expected 3 bundles, got %d", count)
	}
	if n, _ := f.rm.pool.CountByPack(context.Background(), 1); n != 3 {
		t.Fatalf("expected 3 pool entries, got %d", n)
	}
	for _, entry := range f.rm.pool.entries {
		if len(entry.Bundle) != 2 {
			t.Fatalf("bundle size mismatch: %v", entry.Bundle)
		}
	}
}

func TestPoolGenerate_NoEligibleAssets(t *testing.T) {
	f, done := setupPool(t)
	defer done()

	_, err := f.svc.Generate(context.Background(), "vault", 1, "cards", 2)
	if !errors.Is(err, common.ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
}

func TestPoolGenerate_RecordsAuditEvent(t *testing.T) {
	f, done := setupPool(t)
	defer done()

	f.reg.owned = []*registry.Asset{
		{ID: "card-1", Collection: "heroes", Category: "cards"},
		{ID: "card-2", Collection: "heroes", Category: "cards"},
	}

	if _, err := f.svc.Generate(context.Background(), "vault", 1, "cards", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.rm.audit.events) != 1 || f.rm.audit.events[0].Kind != models.AuditPoolGenerated {
		t.Fatalf("expected one %s audit event, got %+v", models.AuditPoolGenerated, f.rm.audit.events)
	}
}
