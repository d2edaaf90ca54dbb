package ledger_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/memory"
)

type recordingPublisher struct {
	synced  []int64
	deleted []int64
	fail    bool
}

func (p *recordingPublisher) PublishEntrySync(_ context.Context, id int64) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.synced = append(p.synced, id)
	return nil
}

func (p *recordingPublisher) PublishEntryDelete(_ context.Context, id int64) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.deleted = append(p.deleted, id)
	return nil
}

func newTestService(pub ledger.Publisher) (*ledger.Service, *memory.Store) {
	store := memory.New()
	return ledger.NewService(core.DefaultGroup(), store, pub), store
}

func TestCreateValidatesAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc, store := newTestService(pub)
	ctx := context.Background()
	g := svc.Group()

	id, err := svc.Create(ctx, core.Entry{
		Kind: core.LegalExpense, Date: core.NewDate(2025, 3, 1),
		Amount: 30000, Payer: "b1", Split: core.EqualSplit(g),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("entry not stored")
	}
	if len(pub.synced) != 1 || pub.synced[0] != id {
		t.Fatalf("sync message not published: %v", pub.synced)
	}

	// Invalid split must be rejected at admission, before storage.
	_, err = svc.Create(ctx, core.Entry{
		Kind: core.LegalExpense, Date: core.NewDate(2025, 3, 1),
		Amount: 100, Payer: "b1", Split: core.SplitRatio{"b1": 0.5},
	})
	if err == nil {
		t.Fatalf("expected split validation error")
	}
	if store.Len() != 1 {
		t.Fatalf("invalid entry must not reach the store")
	}
}

func TestCreateSurvivesPublisherFailure(t *testing.T) {
	pub := &recordingPublisher{fail: true}
	svc, store := newTestService(pub)
	g := svc.Group()

	_, err := svc.Create(context.Background(), core.Entry{
		Kind: core.OtherExpense, Date: core.NewDate(2025, 3, 1),
		Amount: 100, Payer: "b2", Split: core.EqualSplit(g),
	})
	if err != nil {
		t.Fatalf("publish failure must not fail the request: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("entry must still be stored")
	}
}

func TestSnapshotComputesBalancesAndPlan(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	g := svc.Group()

	mustCreate(t, svc, core.Entry{Kind: core.LegalExpense, Date: core.NewDate(2025, 3, 1), Amount: 30000, Payer: "b1", Split: core.EqualSplit(g)})
	mustCreate(t, svc, core.Entry{Kind: core.RentIncome, Date: core.NewDate(2025, 3, 31), Amount: 9000, Payer: "b3", Split: core.EqualSplit(g)})

	snap, err := svc.Snapshot(ctx, "")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap.Entries))
	}
	// Newest first.
	if snap.Entries[0].Kind != core.RentIncome {
		t.Fatalf("expected newest entry first, got %s", snap.Entries[0].Kind)
	}
	if math.Abs(snap.Balances["b1"]-17000) > 1e-6 {
		t.Fatalf("b1 balance: %v", snap.Balances["b1"])
	}
	if len(snap.Instructions) == 0 || snap.Instructions[0].To != "b1" {
		t.Fatalf("unexpected plan: %v", snap.Instructions)
	}
}

func TestSnapshotKindFilterKeepsFullBalances(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	g := svc.Group()

	mustCreate(t, svc, core.Entry{Kind: core.LegalExpense, Date: core.NewDate(2025, 3, 1), Amount: 30000, Payer: "b1", Split: core.EqualSplit(g)})
	mustCreate(t, svc, core.Entry{Kind: core.RentIncome, Date: core.NewDate(2025, 3, 31), Amount: 9000, Payer: "b3", Split: core.EqualSplit(g)})

	snap, err := svc.Snapshot(ctx, core.RentIncome)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Entries) != 1 || snap.Entries[0].Kind != core.RentIncome {
		t.Fatalf("filter broken: %v", snap.Entries)
	}
	// Filtering is display-only: balances still reflect every entry.
	if math.Abs(snap.Balances["b1"]-17000) > 1e-6 {
		t.Fatalf("filtered snapshot changed balances: %v", snap.Balances)
	}
}

func TestDeleteRemovesAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc, store := newTestService(pub)
	ctx := context.Background()
	g := svc.Group()

	id := mustCreate(t, svc, core.Entry{Kind: core.OtherExpense, Date: core.NewDate(2025, 3, 1), Amount: 100, Payer: "b2", Split: core.EqualSplit(g)})
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("entry still stored after delete")
	}
	if len(pub.deleted) != 1 || pub.deleted[0] != id {
		t.Fatalf("delete message not published: %v", pub.deleted)
	}
}

func TestSettledFlagDoesNotAffectBalances(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	g := svc.Group()

	id := mustCreate(t, svc, core.Entry{Kind: core.LegalExpense, Date: core.NewDate(2025, 3, 1), Amount: 30000, Payer: "b1", Split: core.EqualSplit(g)})
	before, _ := svc.Snapshot(ctx, "")

	if err := svc.SetSettled(ctx, id, true); err != nil {
		t.Fatalf("set settled: %v", err)
	}
	after, _ := svc.Snapshot(ctx, "")
	for _, mid := range g.IDs() {
		if before.Balances[mid] != after.Balances[mid] {
			t.Fatalf("settled flag changed balance for %s", mid)
		}
	}
	if !after.Entries[0].Settled {
		t.Fatalf("settled flag not visible in snapshot")
	}
}

func mustCreate(t *testing.T, svc *ledger.Service, e core.Entry) int64 {
	t.Helper()
	id, err := svc.Create(context.Background(), e)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return id
}
