package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/server/models"
)

func setupAdmin(t *testing.T) (*AdminService, *fakeRepoManager, func()) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	rm := newFakeRepoManager()
	svc := NewAdminService(db, rm, testConfig())
	return svc, rm, func() { db.Close() }
}

func TestRemoveAll_SystemOnly(t *testing.T) {
	svc, _, done := setupAdmin(t)
	defer done()

	err := svc.RemoveAll(context.Background(), "alice", ScopePacks)
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRemoveAll_ClearsNamedScope(t *testing.T) {
	svc, rm, done := setupAdmin(t)
	defer done()

	rm.packs.byID[1] = &models.PackDefinition{PackID: 1}
	rm.allocations.m["i"] = &models.AllocationRequest{ItemID: "i"}

	if err := svc.RemoveAll(context.Background(), "vault", ScopePacks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rm.packs.byID) != 0 {
		t.Fatal("packs must be cleared")
	}
	if len(rm.allocations.m) != 1 {
		t.Fatal("other scopes must be untouched")
	}
}

func TestRemoveAll_UnknownScopeIsNoOp(t *testing.T) {
	svc, rm, done := setupAdmin(t)
	defer done()

	rm.packs.byID[1] = &models.PackDefinition{PackID: 1}

	if err := svc.RemoveAll(context.Background(), "vault", "everything"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rm.packs.byID) != 1 {
		t.Fatal("unknown scope must not change state")
	}
}
