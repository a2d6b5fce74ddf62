package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"paga/internal/core"
	"paga/internal/storage"
)

func newProfileFixture(t *testing.T) (*storage.MemoryRepository, *ProfileService) {
	t.Helper()
	repo := storage.NewMemoryRepository()
	return repo, NewProfileService(repo, nil, testLogger())
}

// waitForRecord polls until a record for uid exists or the deadline passes.
func waitForRecord(t *testing.T, repo *storage.MemoryRepository, uid string) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		raw, err := repo.LoadRecord(context.Background(), uid)
		if err == nil {
			return raw
		}
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("LoadRecord() error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("record never persisted")
	return nil
}

func TestProfileService_HydrateAbsentRecord(t *testing.T) {
	_, svc := newProfileFixture(t)
	sess := newSession("u1", nil)

	if err := svc.HydrateSession(context.Background(), sess); err != nil {
		t.Fatalf("HydrateSession() error = %v", err)
	}
	if !sess.Hydrated() {
		t.Error("session not hydrated after absent-record load")
	}
	p := sess.Profile()
	if p.HourlyWage != 0 {
		t.Errorf("default HourlyWage = %v, want 0", p.HourlyWage)
	}
	if len(p.Calendar) != 0 {
		t.Errorf("default calendar has %d years, want 0", len(p.Calendar))
	}
}

func TestProfileService_HydrateExistingRecord(t *testing.T) {
	repo, svc := newProfileFixture(t)
	ctx := context.Background()

	raw := []byte(`{"year":2025,"month":4,"hourly":1500,"yearData":{"2025":{"4":{"12":[{"hours":8,"bonus":0}]}}}}`)
	if err := repo.SaveRecord(ctx, "u1", raw); err != nil {
		t.Fatalf("SaveRecord() error = %v", err)
	}

	sess := newSession("u1", nil)
	if err := svc.HydrateSession(ctx, sess); err != nil {
		t.Fatalf("HydrateSession() error = %v", err)
	}

	p := sess.Profile()
	if p.Year != 2025 || p.Month != 4 {
		t.Errorf("selected month = %d/%d, want 2025/4", p.Year, p.Month)
	}
	if p.HourlyWage != 1500 {
		t.Errorf("HourlyWage = %v, want 1500", p.HourlyWage)
	}
	entries := sess.MonthEntries(2025, 4)
	if len(entries[12]) != 1 || entries[12][0].Hours != 8 {
		t.Errorf("day 12 entries = %v, want one 8h entry", entries[12])
	}
}

func TestProfileService_PersistDroppedBeforeHydration(t *testing.T) {
	repo, svc := newProfileFixture(t)
	sess := newSession("u1", nil)

	svc.SchedulePersist(sess)

	// The drop is synchronous; nothing should ever land.
	time.Sleep(50 * time.Millisecond)
	if _, err := repo.LoadRecord(context.Background(), "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("LoadRecord() error = %v, want ErrNotFound", err)
	}
}

func TestProfileService_PersistAfterCommit(t *testing.T) {
	repo, svc := newProfileFixture(t)
	ctx := context.Background()

	sess := newSession("u1", svc.SchedulePersist)
	if err := svc.HydrateSession(ctx, sess); err != nil {
		t.Fatalf("HydrateSession() error = %v", err)
	}

	if err := sess.OpenDay(5); err != nil {
		t.Fatalf("OpenDay() error = %v", err)
	}
	if err := sess.AddEntry(); err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	if err := sess.UpdateEntry(0, 8, 0); err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}
	if err := sess.SaveDay(); err != nil {
		t.Fatalf("SaveDay() error = %v", err)
	}

	raw := waitForRecord(t, repo, "u1")

	// A fresh session sees the committed day.
	sess2 := newSession("u1", nil)
	if err := svc.HydrateSession(ctx, sess2); err != nil {
		t.Fatalf("HydrateSession() error = %v", err)
	}
	p := sess2.Profile()
	entries := sess2.MonthEntries(p.Year, p.Month)
	if len(entries[5]) != 1 || entries[5][0].Hours != 8 {
		t.Errorf("persisted day 5 = %v (raw %s), want one 8h entry", entries[5], raw)
	}
}

func TestProfileService_RequestExportWithoutBroker(t *testing.T) {
	_, svc := newProfileFixture(t)
	if err := svc.RequestExport(context.Background(), "u1", 2025, 3); err != nil {
		t.Errorf("RequestExport() without broker error = %v, want nil", err)
	}
}

func TestProfileService_DeleteUserData(t *testing.T) {
	repo, svc := newProfileFixture(t)
	ctx := context.Background()

	if err := repo.SaveRecord(ctx, "u1", []byte(`{}`)); err != nil {
		t.Fatalf("SaveRecord() error = %v", err)
	}
	if err := svc.DeleteUserData(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUserData() error = %v", err)
	}
	if _, err := repo.LoadRecord(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("LoadRecord() after delete error = %v, want ErrNotFound", err)
	}
	// Deleting again is a no-op.
	if err := svc.DeleteUserData(ctx, "u1"); err != nil {
		t.Errorf("second DeleteUserData() error = %v, want nil", err)
	}
}

func TestSessionManager_GetHydratesOnce(t *testing.T) {
	_, svc := newProfileFixture(t)
	mgr := NewSessionManager(svc, testLogger(), time.Hour)
	defer mgr.Shutdown()
	ctx := context.Background()

	sess, err := mgr.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !sess.Hydrated() {
		t.Error("session not hydrated after Get")
	}

	again, err := mgr.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if again != sess {
		t.Error("Get() returned a different session for the same uid")
	}

	mgr.Evict("u1")
	fresh, err := mgr.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() after evict error = %v", err)
	}
	if fresh == sess {
		t.Error("Get() after evict returned the evicted session")
	}
}

func TestSession_EditRoundTrip(t *testing.T) {
	var changes int
	sess := newSession("u1", func(*Session) { changes++ })
	sess.store.Hydrate(nil)

	if _, ok := sess.OpenedDay(); ok {
		t.Error("OpenedDay() reports an open day on a fresh session")
	}
	if err := sess.OpenDay(3); err != nil {
		t.Fatalf("OpenDay() error = %v", err)
	}
	if day, ok := sess.OpenedDay(); !ok || day != 3 {
		t.Errorf("OpenedDay() = %d, %v, want 3, true", day, ok)
	}
	if err := sess.AddEntry(); err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	if err := sess.CancelDay(); err != nil {
		t.Fatalf("CancelDay() error = %v", err)
	}
	if changes != 0 {
		t.Errorf("onChange fired %d times after cancel, want 0", changes)
	}

	if err := sess.OpenDay(3); err != nil {
		t.Fatalf("OpenDay() error = %v", err)
	}
	if err := sess.AddEntry(); err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	if err := sess.UpdateEntry(0, 6, 0.3); err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}
	if err := sess.SaveDay(); err != nil {
		t.Fatalf("SaveDay() error = %v", err)
	}
	if changes != 1 {
		t.Errorf("onChange fired %d times after save, want 1", changes)
	}

	p := sess.Profile()
	got := sess.MonthEntries(p.Year, p.Month)
	want := core.WorkEntry{Hours: 6, Bonus: 0.3}
	if len(got[3]) != 1 || got[3][0] != want {
		t.Errorf("day 3 = %v, want [%v]", got[3], want)
	}
}
