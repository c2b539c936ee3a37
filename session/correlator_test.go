package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/common"
	"github.com/dmitrijs2005/authkeeper/logging"
)

// ---- fake registry ----

type fakeRegistry struct {
	activated bool
	records   map[string]*Record

	findErr   map[string]error
	createErr error
	updateErr map[string]error

	// updateErrOnce fails the first update for a slot, then succeeds.
	updateErrOnce map[string]error

	created []string
	updated []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		activated:     true,
		records:       make(map[string]*Record),
		findErr:       make(map[string]error),
		updateErr:     make(map[string]error),
		updateErrOnce: make(map[string]error),
	}
}

func (f *fakeRegistry) Activated() bool { return f.activated }

func (f *fakeRegistry) Find(ctx context.Context, slot string) (*Record, error) {
	if err := f.findErr[slot]; err != nil {
		return nil, err
	}
	rec, ok := f.records[slot]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRegistry) Create(ctx context.Context, rec *Record) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.records[rec.Slot]; exists {
		return common.ErrSlotOccupied
	}
	rec.ID = "id-" + rec.Slot
	cp := *rec
	f.records[rec.Slot] = &cp
	f.created = append(f.created, rec.Slot)
	return nil
}

func (f *fakeRegistry) Update(ctx context.Context, rec *Record) error {
	if err := f.updateErrOnce[rec.Slot]; err != nil {
		delete(f.updateErrOnce, rec.Slot)
		return err
	}
	if err := f.updateErr[rec.Slot]; err != nil {
		return err
	}
	cp := *rec
	f.records[rec.Slot] = &cp
	f.updated = append(f.updated, rec.Slot)
	return nil
}

func newCorrelator(t *testing.T, reg Registry, slots []string) *Correlator {
	t.Helper()
	c, err := NewCorrelator(reg, slots, 1, time.Millisecond, logging.Nop())
	if err != nil {
		t.Fatalf("NewCorrelator error: %v", err)
	}
	return c
}

// ---- tests ----

func TestSnapshot_AllSlotsEmpty_IsLoggedOut(t *testing.T) {
	reg := newFakeRegistry()
	c := newCorrelator(t, reg, []string{"web", "mobile"})

	snap, err := c.Snapshot(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if snap.State() != StateLoggedOut {
		t.Fatalf("expected StateLoggedOut, got %v", snap.State())
	}
}

func TestSnapshot_PrincipalActive_RecordsSessionsInSlotOrder(t *testing.T) {
	reg := newFakeRegistry()
	reg.records["web"] = &Record{ID: "s1", Slot: "web", PrincipalID: "p1", Token: "old"}
	reg.records["mobile"] = &Record{ID: "s2", Slot: "mobile", PrincipalID: "p1", Token: "old"}
	c := newCorrelator(t, reg, []string{"web", "mobile"})

	snap, err := c.Snapshot(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if snap.State() != StateLoggedIn {
		t.Fatalf("expected StateLoggedIn, got %v", snap.State())
	}
	active := snap.Active()
	if len(active) != 2 || active[0].Slot != "web" || active[1].Slot != "mobile" {
		t.Fatalf("expected active sessions in slot order, got %+v", active)
	}
}

func TestSnapshot_SlotsOccupiedByOther_IsUnknown(t *testing.T) {
	reg := newFakeRegistry()
	reg.records["web"] = &Record{ID: "s1", Slot: "web", PrincipalID: "someone-else"}
	c := newCorrelator(t, reg, []string{"web", "mobile"})

	snap, err := c.Snapshot(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if snap.State() != StateUnknown {
		t.Fatalf("expected StateUnknown, got %v", snap.State())
	}
	if len(snap.Active()) != 0 {
		t.Fatalf("expected no active sessions, got %d", len(snap.Active()))
	}
}

func TestSnapshot_EmptyPrincipalID_NeverMatches(t *testing.T) {
	reg := newFakeRegistry()
	reg.records["web"] = &Record{ID: "s1", Slot: "web", PrincipalID: ""}
	c := newCorrelator(t, reg, []string{"web"})

	snap, err := c.Snapshot(context.Background(), "")
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if snap.State() != StateUnknown {
		t.Fatalf("expected StateUnknown, got %v", snap.State())
	}
}

func TestSnapshot_LookupFailure_Surfaces(t *testing.T) {
	reg := newFakeRegistry()
	reg.findErr["web"] = errors.New("registry down")
	c := newCorrelator(t, reg, []string{"web"})

	if _, err := c.Snapshot(context.Background(), "p1"); err == nil {
		t.Fatalf("expected lookup error to surface")
	}
}

func TestReconcile_LoggedOut_CreatesPrimaryOnly(t *testing.T) {
	reg := newFakeRegistry()
	c := newCorrelator(t, reg, []string{"web", "mobile"})
	ctx := context.Background()

	snap, _ := c.Snapshot(ctx, "p1")
	if err := c.Reconcile(ctx, "p1", "tok-new", snap); err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}

	if len(reg.created) != 1 || reg.created[0] != "web" {
		t.Fatalf("expected single creation in primary slot, got %v", reg.created)
	}
	if rec := reg.records["web"]; rec.PrincipalID != "p1" || rec.Token != "tok-new" {
		t.Fatalf("primary session not associated with principal: %+v", rec)
	}
	if _, exists := reg.records["mobile"]; exists {
		t.Fatalf("secondary slot must not be auto-created")
	}
}

func TestReconcile_CreateRace_FirstWriterWins(t *testing.T) {
	reg := newFakeRegistry()
	c := newCorrelator(t, reg, []string{"web"})
	ctx := context.Background()

	snap, _ := c.Snapshot(ctx, "p1")

	// Another login lands between snapshot and reconcile.
	reg.records["web"] = &Record{ID: "s-race", Slot: "web", PrincipalID: "p2", Token: "other"}

	if err := c.Reconcile(ctx, "p1", "tok-new", snap); err != nil {
		t.Fatalf("expected silent skip, got %v", err)
	}
	if rec := reg.records["web"]; rec.PrincipalID != "p2" {
		t.Fatalf("existing session must survive the race, got %+v", rec)
	}
}

func TestReconcile_LoggedIn_UpdatesAllActiveSlots(t *testing.T) {
	reg := newFakeRegistry()
	reg.records["web"] = &Record{ID: "s1", Slot: "web", PrincipalID: "p1", Token: "old"}
	reg.records["mobile"] = &Record{ID: "s2", Slot: "mobile", PrincipalID: "p1", Token: "old"}
	c := newCorrelator(t, reg, []string{"web", "mobile"})
	ctx := context.Background()

	snap, _ := c.Snapshot(ctx, "p1")
	if err := c.Reconcile(ctx, "p1", "tok-new", snap); err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}

	for _, slot := range []string{"web", "mobile"} {
		if rec := reg.records[slot]; rec.Token != "tok-new" {
			t.Fatalf("slot %s not updated: %+v", slot, rec)
		}
	}
	if len(reg.created) != 0 {
		t.Fatalf("no sessions should be created when already logged in")
	}
}

func TestReconcile_PartialFailure_OtherSlotsStillUpdated(t *testing.T) {
	reg := newFakeRegistry()
	reg.records["web"] = &Record{ID: "s1", Slot: "web", PrincipalID: "p1", Token: "old"}
	reg.records["mobile"] = &Record{ID: "s2", Slot: "mobile", PrincipalID: "p1", Token: "old"}
	reg.updateErr["mobile"] = errors.New("mobile registry down")
	c := newCorrelator(t, reg, []string{"web", "mobile"})
	ctx := context.Background()

	snap, _ := c.Snapshot(ctx, "p1")
	err := c.Reconcile(ctx, "p1", "tok-new", snap)

	var pe *PartialError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PartialError, got %v", err)
	}
	if len(pe.Failures) != 1 || pe.Failures[0].Slot != "mobile" {
		t.Fatalf("expected one failure for mobile, got %+v", pe.Failures)
	}
	if rec := reg.records["web"]; rec.Token != "tok-new" {
		t.Fatalf("web must still be updated, got %+v", rec)
	}
}

func TestReconcile_TransientFailure_RetryRecovers(t *testing.T) {
	reg := newFakeRegistry()
	reg.records["web"] = &Record{ID: "s1", Slot: "web", PrincipalID: "p1", Token: "old"}
	reg.updateErrOnce["web"] = errors.New("transient")
	c := newCorrelator(t, reg, []string{"web"})
	ctx := context.Background()

	snap, _ := c.Snapshot(ctx, "p1")
	if err := c.Reconcile(ctx, "p1", "tok-new", snap); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if rec := reg.records["web"]; rec.Token != "tok-new" {
		t.Fatalf("expected update after retry, got %+v", rec)
	}
}

func TestReconcile_Unknown_IsNoOp(t *testing.T) {
	reg := newFakeRegistry()
	reg.records["web"] = &Record{ID: "s1", Slot: "web", PrincipalID: "p2", Token: "theirs"}
	c := newCorrelator(t, reg, []string{"web"})
	ctx := context.Background()

	snap, _ := c.Snapshot(ctx, "p1")
	if err := c.Reconcile(ctx, "p1", "tok-new", snap); err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if rec := reg.records["web"]; rec.Token != "theirs" {
		t.Fatalf("foreign session must not be touched, got %+v", rec)
	}
	if len(reg.created) != 0 {
		t.Fatalf("no session should be created over a foreign slot")
	}
}

func TestEnabled(t *testing.T) {
	reg := newFakeRegistry()

	c := newCorrelator(t, reg, []string{"web"})
	if !c.Enabled() {
		t.Fatalf("expected enabled with active registry and slots")
	}

	c = newCorrelator(t, reg, nil)
	if c.Enabled() {
		t.Fatalf("expected disabled with empty slot list")
	}

	reg.activated = false
	c = newCorrelator(t, reg, []string{"web"})
	if c.Enabled() {
		t.Fatalf("expected disabled when registry is not activated")
	}
}

func TestNewCorrelator_RequiresRegistry(t *testing.T) {
	if _, err := NewCorrelator(nil, []string{"web"}, 0, 0, nil); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
