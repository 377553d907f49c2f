package session

import (
	"testing"
	"time"

	"viz-agent/dataset"
)

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore(16)

	sess, err := store.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, ok := store.Get(sess.ID())
	if !ok || got != sess {
		t.Error("Get() did not return the created session")
	}
	if !store.Has(sess.ID()) {
		t.Error("Has() = false for live session")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestSetDatasetPurgesCacheAndHistory(t *testing.T) {
	store := NewStore(16)
	sess, err := store.Create()
	if err != nil {
		t.Fatal(err)
	}

	sess.Cache().Store("key", nil)
	sess.Append(Record{Question: "old question"})

	ds, err := dataset.LoadSample()
	if err != nil {
		t.Fatal(err)
	}
	sess.SetDataset(ds)

	if sess.Cache().Len() != 0 {
		t.Error("result cache survived a dataset reload")
	}
	if len(sess.History()) != 0 {
		t.Error("history survived a dataset reload")
	}
	if sess.Dataset() != ds {
		t.Error("Dataset() did not return the new dataset")
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	store := NewStore(16)
	sess, err := store.Create()
	if err != nil {
		t.Fatal(err)
	}

	sess.Append(Record{Question: "q1"})
	h := sess.History()
	h[0].Question = "mutated"

	if sess.History()[0].Question != "q1" {
		t.Error("History() exposed internal state")
	}
}

func TestDeleteStale(t *testing.T) {
	store := NewStore(16)

	stale, err := store.Create()
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := store.Create()
	if err != nil {
		t.Fatal(err)
	}

	// Backdate the stale session.
	stale.mu.Lock()
	stale.lastAccess = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	deleted := store.DeleteStale(time.Now().Add(-time.Hour))
	if deleted != 1 {
		t.Errorf("DeleteStale() = %d, want 1", deleted)
	}
	if store.Has(stale.ID()) {
		t.Error("stale session survived")
	}
	if !store.Has(fresh.ID()) {
		t.Error("fresh session was evicted")
	}
}

func TestGetRefreshesAccessTime(t *testing.T) {
	store := NewStore(16)
	sess, err := store.Create()
	if err != nil {
		t.Fatal(err)
	}

	sess.mu.Lock()
	sess.lastAccess = time.Now().Add(-2 * time.Hour)
	sess.mu.Unlock()

	if _, ok := store.Get(sess.ID()); !ok {
		t.Fatal("Get() miss")
	}

	// The Get above should have touched the session.
	if deleted := store.DeleteStale(time.Now().Add(-time.Hour)); deleted != 0 {
		t.Errorf("DeleteStale() = %d, want 0 after a recent Get", deleted)
	}
}
