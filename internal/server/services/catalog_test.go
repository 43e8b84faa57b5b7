package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/server/events"
	"github.com/dmolchanov/packvault/internal/server/models"
	"github.com/dmolchanov/packvault/internal/server/registry"
)

type catalogFixture struct {
	svc *CatalogService
	rm  *fakeRepoManager
	reg *fakeRegistry
}

func setupCatalog(t *testing.T) (*catalogFixture, func()) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	rm := newFakeRepoManager()
	reg := newFakeRegistry()
	reg.collections["heroes"] = &registry.Collection{
		Name:               "heroes",
		AuthorizedAccounts: []string{"alice", "vault"},
	}

	svc := NewCatalogService(db, rm, testConfig(), reg, events.NopPublisher{})
	return &catalogFixture{svc: svc, rm: rm, reg: reg}, func() { db.Close() }
}

func samplePack() *models.PackDefinition {
	return &models.PackDefinition{
		Collection:  "heroes",
		UnlockTime:  time.Now().Add(-time.Hour),
		TemplateRef: "tpl-1",
	}
}

func TestCreatePack_AssignsSequentialIDs(t *testing.T) {
	f, done := setupCatalog(t)
	defer done()

	first, err := f.svc.CreatePack(context.Background(), "alice", samplePack())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.PackID != 1 {
		t.Fatalf("first pack id must be 1, got %d", first.PackID)
	}

	second := samplePack()
	second.TemplateRef = "tpl-2"
	created, err := f.svc.CreatePack(context.Background(), "alice", second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.PackID != 2 {
		t.Fatalf("second pack id must be 2, got %d", created.PackID)
	}
}

func TestCreatePack_ActorMustBeAuthorized(t *testing.T) {
	f, done := setupCatalog(t)
	defer done()

	_, err := f.svc.CreatePack(context.Background(), "mallory", samplePack())
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreatePack_ServiceAccountMustBeAuthorized(t *testing.T) {
	f, done := setupCatalog(t)
	defer done()

	f.reg.collections["heroes"].AuthorizedAccounts = []string{"alice"}

	_, err := f.svc.CreatePack(context.Background(), "alice", samplePack())
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreatePack_DuplicateTemplateRejected(t *testing.T) {
	f, done := setupCatalog(t)
	defer done()

	if _, err := f.svc.CreatePack(context.Background(), "alice", samplePack()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := f.svc.CreatePack(context.Background(), "alice", samplePack())
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreatePack_UnknownCollectionRejected(t *testing.T) {
	f, done := setupCatalog(t)
	defer done()

	pack := samplePack()
	pack.Collection = "ghosts"

	_, err := f.svc.CreatePack(context.Background(), "alice", pack)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePack_RecordsAuditEvent(t *testing.T) {
	f, done := setupCatalog(t)
	defer done()

	if _, err := f.svc.CreatePack(context.Background(), "alice", samplePack()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.rm.audit.events) != 1 || f.rm.audit.events[0].Kind != models.AuditPackCreated {
		t.Fatalf("expected one %s audit event, got %+v", models.AuditPackCreated, f.rm.audit.events)
	}
}
