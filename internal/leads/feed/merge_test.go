package feed

import (
	"testing"

	"leadmarket_backend/internal/leads/domain"

	"github.com/google/uuid"
)

type row struct {
	ID    string
	Count int
}

func keyOf(r row) string { return r.ID }

func TestMergeByIDPatchesOnlyTheMatch(t *testing.T) {
	items := []row{{"a", 1}, {"b", 2}, {"c", 3}}

	merged, found := MergeByID(items, "b", keyOf, func(r row) row {
		r.Count = 20
		return r
	})
	if !found {
		t.Fatal("expected a match for id b")
	}
	if merged[1].Count != 20 {
		t.Fatalf("expected patched count 20, got %d", merged[1].Count)
	}
	if merged[0].Count != 1 || merged[2].Count != 3 {
		t.Fatal("expected other entries untouched")
	}
	// Input must not be mutated.
	if items[1].Count != 2 {
		t.Fatalf("input slice was mutated: %+v", items)
	}
}

func TestMergeByIDNoMatch(t *testing.T) {
	items := []row{{"a", 1}}

	merged, found := MergeByID(items, "missing", keyOf, func(r row) row {
		r.Count = 99
		return r
	})
	if found {
		t.Fatal("expected no match")
	}
	if len(merged) != 1 || merged[0].Count != 1 {
		t.Fatalf("expected input returned unchanged, got %+v", merged)
	}
}

func TestMergeByIDEmpty(t *testing.T) {
	merged, found := MergeByID(nil, "x", keyOf, func(r row) row { return r })
	if found || len(merged) != 0 {
		t.Fatalf("expected empty no-match result, got %v %v", merged, found)
	}
}

func TestCachePatchAndUpsert(t *testing.T) {
	cache := NewCache()
	first := domain.Summary{ID: uuid.New(), CompanyName: "Acme", CurrentPurchases: 0}
	second := domain.Summary{ID: uuid.New(), CompanyName: "Globex", CurrentPurchases: 1}
	cache.Replace([]domain.Summary{first, second})

	if ok := cache.Patch(first.ID, func(s domain.Summary) domain.Summary {
		s.CurrentPurchases++
		return s
	}); !ok {
		t.Fatal("expected patch to find the entry")
	}

	all := cache.All()
	if all[0].CurrentPurchases != 1 {
		t.Fatalf("expected purchase count 1, got %d", all[0].CurrentPurchases)
	}

	// Upsert of an unknown id prepends.
	third := domain.Summary{ID: uuid.New(), CompanyName: "Initech"}
	cache.Upsert(third)
	all = cache.All()
	if len(all) != 3 || all[0].ID != third.ID {
		t.Fatalf("expected new entry prepended, got %+v", all)
	}

	cache.Remove(second.ID)
	if len(cache.All()) != 2 {
		t.Fatal("expected entry removed")
	}
}
