package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/server/dispatch"
	"github.com/dmolchanov/packvault/internal/server/models"
	"github.com/dmolchanov/packvault/internal/server/registry"
)

type stagingFixture struct {
	svc   *StagingService
	rm    *fakeRepoManager
	reg   *fakeRegistry
	queue *fakeQueue
}

func setupStaging(t *testing.T) (*stagingFixture, func()) {
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
	queue := &fakeQueue{}

	svc := NewStagingService(db, rm, testConfig(), reg, queue)
	return &stagingFixture{svc: svc, rm: rm, reg: reg, queue: queue}, func() { db.Close() }
}

func stagedEntry(f *stagingFixture, itemID string, approved bool) {
	f.rm.staged.m[itemID] = &models.StagedEntry{
		ItemID: itemID, Requester: "alice", Category: "avatars", Approved: approved,
	}
}

func TestApprove_SystemOnly(t *testing.T) {
	f, done := setupStaging(t)
	defer done()

	stagedEntry(f, "av-1", false)

	err := f.svc.Approve(context.Background(), "alice", "av-1", "alice")
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestApprove_RequesterMustMatch(t *testing.T) {
	f, done := setupStaging(t)
	defer done()

	stagedEntry(f, "av-1", false)

	err := f.svc.Approve(context.Background(), "vault", "av-1", "bob")
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestApprove_FlipsFlag(t *testing.T) {
	f, done := setupStaging(t)
	defer done()

	stagedEntry(f, "av-1", false)

	if err := f.svc.Approve(context.Background(), "vault", "av-1", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.rm.staged.m["av-1"].Approved {
		t.Fatal("entry must be approved")
	}
}

func TestSettle_UnapprovedRejected(t *testing.T) {
	f, done := setupStaging(t)
	defer done()

	stagedEntry(f, "av-1", false)

	err := f.svc.Settle(context.Background(), "vault", "av-1", "tpl-final")
	if !errors.Is(err, common.ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
}

func TestSettle_MissingTemplateRejected(t *testing.T) {
	f, done := setupStaging(t)
	defer done()

	stagedEntry(f, "av-1", true)

	err := f.svc.Settle(context.Background(), "vault", "av-1", "")
	if !errors.Is(err, common.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
	if _, ok := f.rm.staged.m["av-1"]; !ok {
		t.Fatal("entry must survive a rejected settlement")
	}
}

func TestSettle_MintsAndBurns(t *testing.T) {
	f, done := setupStaging(t)
	defer done()

	stagedEntry(f, "av-1", true)
	f.reg.assets["av-1"] = &registry.Asset{
		ID: "av-1", Collection: "heroes", Category: "avatars", TemplateRef: "tpl-av",
	}

	if err := f.svc.Settle(context.Background(), "vault", "av-1", "tpl-final"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := f.rm.staged.m["av-1"]; ok {
		t.Fatal("settled entry must be removed")
	}
	if len(f.queue.cmds) != 2 {
		t.Fatalf("expected mint and burn, got %+v", f.queue.cmds)
	}
	if f.queue.cmds[0].Kind != dispatch.KindMint || f.queue.cmds[0].NewOwner != "alice" {
		t.Fatalf("unexpected mint command: %+v", f.queue.cmds[0])
	}
	// The deliverable comes from the supplied template, not from the
	// surrendered placeholder's own template.
	if f.queue.cmds[0].TemplateRef != "tpl-final" {
		t.Fatalf("mint must use the supplied template, got %s", f.queue.cmds[0].TemplateRef)
	}
	if f.queue.cmds[1].Kind != dispatch.KindBurn || f.queue.cmds[1].AssetID != "av-1" {
		t.Fatalf("unexpected burn command: %+v", f.queue.cmds[1])
	}
}

func TestWithdraw_StrangerRejected(t *testing.T) {
	f, done := setupStaging(t)
	defer done()

	stagedEntry(f, "av-1", false)

	err := f.svc.Withdraw(context.Background(), "bob", "av-1")
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestWithdraw_ReturnsItem(t *testing.T) {
	f, done := setupStaging(t)
	defer done()

	// Withdrawal works in any state, approved included.
	stagedEntry(f, "av-1", true)

	if err := f.svc.Withdraw(context.Background(), "alice", "av-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := f.rm.staged.m["av-1"]; ok {
		t.Fatal("withdrawn entry must be removed")
	}
	if len(f.queue.cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(f.queue.cmds))
	}
	cmd := f.queue.cmds[0]
	if cmd.Kind != dispatch.KindTransfer || cmd.To != "alice" || cmd.AssetIDs[0] != "av-1" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}
