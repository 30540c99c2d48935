package models

import (
	"context"
	"errors"
	"sort"
	"testing"
)

// NOTE: These tests are intentionally DB-free. They validate the reconciler
// contract against an in-memory store: update-if-found, create-on-miss,
// delete-missing, empty submission clears all, and a failing write aborts
// the pass without touching the delete step.

type fakeChild struct {
	ChildModel
	parent int
	name   string
}

func (c *fakeChild) StampParent(objectColumn string, objectId int) {
	c.parent = objectId
}

type fakeStore struct {
	nextId  int
	rows    map[int]*fakeChild
	failOn  string
	deletes int
}

func newFakeStore(existing ...*fakeChild) *fakeStore {
	s := &fakeStore{nextId: 1, rows: map[int]*fakeChild{}}
	for _, row := range existing {
		if row.ID >= s.nextId {
			s.nextId = row.ID + 1
		}
		s.rows[row.ID] = row
	}
	return s
}

func (s *fakeStore) Exists(ctx context.Context, id int) (bool, error) {
	_, ok := s.rows[id]
	return ok, nil
}

func (s *fakeStore) Create(ctx context.Context, item ChildRecord) error {
	child := item.(*fakeChild)
	if s.failOn != "" && child.name == s.failOn {
		return errors.New("create failed")
	}
	child.SetID(s.nextId)
	s.nextId++
	s.rows[child.ID] = child
	return nil
}

func (s *fakeStore) Update(ctx context.Context, item ChildRecord) error {
	child := item.(*fakeChild)
	if s.failOn != "" && child.name == s.failOn {
		return errors.New("update failed")
	}
	s.rows[child.ID] = child
	return nil
}

func (s *fakeStore) DeleteMissing(ctx context.Context, objectColumn string, objectId int, keepIds []int) error {
	s.deletes++
	for id := range s.rows {
		kept := false
		for _, keep := range keepIds {
			if keep == id {
				kept = true
			}
		}
		if !kept {
			delete(s.rows, id)
		}
	}
	return nil
}

func (s *fakeStore) ids() []int {
	ids := make([]int, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func TestReconcileChildren_UpdateCreateDelete(t *testing.T) {
	store := newFakeStore(
		&fakeChild{ChildModel: ChildModel{ID: 1}, parent: 7, name: "keep"},
		&fakeChild{ChildModel: ChildModel{ID: 2}, parent: 7, name: "drop"},
	)
	items := []ChildRecord{
		&fakeChild{ChildModel: ChildModel{ID: 1}, name: "renamed"},
		&fakeChild{name: "fresh"},
	}

	keepIds, ok := ReconcileChildren(context.Background(), store, "parent_id", 7, items)
	if !ok {
		t.Fatal("reconcile failed")
	}
	if len(keepIds) != 2 {
		t.Fatalf("expected 2 kept ids, got %v", keepIds)
	}
	if got := store.ids(); len(got) != 2 || got[0] != 1 {
		t.Fatalf("expected rows [1 x], got %v", got)
	}
	if store.rows[1].name != "renamed" {
		t.Fatalf("row 1 not updated: %q", store.rows[1].name)
	}
	if _, stillThere := store.rows[2]; stillThere {
		t.Fatal("row 2 should have been deleted")
	}
	for _, id := range keepIds {
		if store.rows[id].parent != 7 {
			t.Fatalf("row %d not stamped with parent", id)
		}
	}
}

func TestReconcileChildren_CreateOnMissedId(t *testing.T) {
	// a submitted id the store no longer has must come back as a new row,
	// not a failed update
	store := newFakeStore()
	items := []ChildRecord{
		&fakeChild{ChildModel: ChildModel{ID: 99}, name: "ghost"},
	}

	keepIds, ok := ReconcileChildren(context.Background(), store, "parent_id", 3, items)
	if !ok {
		t.Fatal("reconcile failed")
	}
	if len(keepIds) != 1 {
		t.Fatalf("expected 1 kept id, got %v", keepIds)
	}
	if keepIds[0] == 99 {
		t.Fatal("stale id 99 must not survive, a fresh id is assigned")
	}
	if store.rows[keepIds[0]].name != "ghost" {
		t.Fatal("created row lost its data")
	}
}

func TestReconcileChildren_EmptySubmissionClearsAll(t *testing.T) {
	store := newFakeStore(
		&fakeChild{ChildModel: ChildModel{ID: 1}, parent: 5},
		&fakeChild{ChildModel: ChildModel{ID: 2}, parent: 5},
	)

	keepIds, ok := ReconcileChildren(context.Background(), store, "parent_id", 5, nil)
	if !ok {
		t.Fatal("reconcile failed")
	}
	if len(keepIds) != 0 {
		t.Fatalf("expected no kept ids, got %v", keepIds)
	}
	if len(store.rows) != 0 {
		t.Fatalf("expected all rows deleted, %d remain", len(store.rows))
	}
}

func TestReconcileChildren_WriteFailureAbortsBeforeDelete(t *testing.T) {
	store := newFakeStore(
		&fakeChild{ChildModel: ChildModel{ID: 1}, parent: 9, name: "survivor"},
	)
	store.failOn = "bad"
	items := []ChildRecord{
		&fakeChild{name: "bad"},
	}

	keepIds, ok := ReconcileChildren(context.Background(), store, "parent_id", 9, items)
	if ok {
		t.Fatal("reconcile should have reported failure")
	}
	if keepIds != nil {
		t.Fatalf("failed reconcile must not return ids, got %v", keepIds)
	}
	if store.deletes != 0 {
		t.Fatal("delete pass must not run after a failed write")
	}
	if _, stillThere := store.rows[1]; !stillThere {
		t.Fatal("pre-existing row lost on failed reconcile")
	}
}

func TestReconcileChildren_Idempotent(t *testing.T) {
	store := newFakeStore(
		&fakeChild{ChildModel: ChildModel{ID: 1}, parent: 4, name: "a"},
		&fakeChild{ChildModel: ChildModel{ID: 2}, parent: 4, name: "b"},
	)
	items := []ChildRecord{
		&fakeChild{ChildModel: ChildModel{ID: 1}, name: "a"},
		&fakeChild{ChildModel: ChildModel{ID: 2}, name: "b"},
	}

	first, ok := ReconcileChildren(context.Background(), store, "parent_id", 4, items)
	if !ok {
		t.Fatal("first reconcile failed")
	}
	second, ok := ReconcileChildren(context.Background(), store, "parent_id", 4, items)
	if !ok {
		t.Fatal("second reconcile failed")
	}
	if len(first) != len(second) {
		t.Fatalf("kept ids changed across identical submissions: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("kept ids changed across identical submissions: %v vs %v", first, second)
		}
	}
	if got := store.ids(); len(got) != 2 {
		t.Fatalf("row set changed across identical submissions: %v", got)
	}
}
