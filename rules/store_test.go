package rules

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func sampleRule(id string, priority int, active bool) *Rule {
	return &Rule{
		ID:         id,
		Name:       "Rule " + id,
		Expression: `field.temp > 0.0`,
		Priority:   priority,
		Active:     active,
		Crops:      []Pick{{Crop: "Rice", Reason: "test"}},
	}
}

func TestInMemoryRuleStoreAddGet(t *testing.T) {
	store := NewInMemoryRuleStore()

	rule := sampleRule("rice", 1, true)
	if err := store.Add(rule); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if rule.CreatedAt.IsZero() || !rule.CreatedAt.Equal(rule.UpdatedAt) {
		t.Errorf("Add() should stamp equal timestamps, got %v / %v", rule.CreatedAt, rule.UpdatedAt)
	}

	got, err := store.Get("rice")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != rule.Name || len(got.Crops) != 1 {
		t.Errorf("Get() = %+v", got)
	}

	if err := store.Add(sampleRule("rice", 2, true)); !errors.Is(err, ErrRuleExists) {
		t.Errorf("duplicate Add() error = %v, want ErrRuleExists", err)
	}
	if _, err := store.Get("missing"); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrRuleNotFound", err)
	}
}

func TestInMemoryRuleStoreIsolation(t *testing.T) {
	store := NewInMemoryRuleStore()
	rule := sampleRule("rice", 1, true)
	store.Add(rule)

	rule.Crops[0].Crop = "mutated"
	got, _ := store.Get("rice")
	if got.Crops[0].Crop != "Rice" {
		t.Error("store kept a reference to the caller's crops slice")
	}

	got.Name = "mutated"
	again, _ := store.Get("rice")
	if again.Name == "mutated" {
		t.Error("Get() returned the stored pointer")
	}
}

func TestInMemoryRuleStoreUpdate(t *testing.T) {
	store := NewInMemoryRuleStore()
	store.Add(sampleRule("rice", 1, true))
	original, _ := store.Get("rice")

	time.Sleep(5 * time.Millisecond)

	update := sampleRule("rice", 7, false)
	update.Name = "Updated"
	if err := store.Update(update); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	got, _ := store.Get("rice")
	if got.Name != "Updated" || got.Priority != 7 || got.Active {
		t.Errorf("Update() not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(original.CreatedAt) {
		t.Error("Update() should preserve CreatedAt")
	}
	if !got.UpdatedAt.After(original.UpdatedAt) {
		t.Error("Update() should move UpdatedAt forward")
	}

	if err := store.Update(sampleRule("ghost", 1, true)); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("Update(ghost) error = %v, want ErrRuleNotFound", err)
	}
}

func TestInMemoryRuleStoreListOrder(t *testing.T) {
	store := NewInMemoryRuleStore()
	store.Add(sampleRule("c", 20, true))
	store.Add(sampleRule("b", 10, true))
	store.Add(sampleRule("a", 10, true))
	store.Add(sampleRule("off", 1, false))

	active, err := store.ListActive()
	if err != nil {
		t.Fatalf("ListActive() failed: %v", err)
	}
	var ids []string
	for _, r := range active {
		ids = append(ids, r.ID)
	}
	if fmt.Sprint(ids) != "[a b c]" {
		t.Errorf("ListActive() order = %v, want [a b c]", ids)
	}

	all, _ := store.List()
	if len(all) != 4 || all[0].ID != "off" {
		t.Errorf("List() should include inactive rules first by priority, got %d rules starting %q", len(all), all[0].ID)
	}
}

func TestInMemoryRuleStoreListActiveEmpty(t *testing.T) {
	store := NewInMemoryRuleStore()
	store.Add(sampleRule("off", 1, false))

	active, err := store.ListActive()
	if err != nil {
		t.Fatalf("ListActive() failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("ListActive() = %d rules, want 0", len(active))
	}
}

func TestInMemoryRuleStoreDelete(t *testing.T) {
	store := NewInMemoryRuleStore()
	store.Add(sampleRule("rice", 1, true))

	if err := store.Delete("rice"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get("rice"); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("Get() after Delete() error = %v", err)
	}
	if err := store.Delete("rice"); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("second Delete() error = %v, want ErrRuleNotFound", err)
	}
}

func TestInMemoryRuleStoreConcurrentAccess(t *testing.T) {
	store := NewInMemoryRuleStore()
	for i := range 10 {
		store.Add(sampleRule(fmt.Sprintf("seed-%d", i), i, true))
	}

	var wg sync.WaitGroup
	for w := range 5 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range 20 {
				if err := store.Add(sampleRule(fmt.Sprintf("w%d-%d", id, j), j, true)); err != nil {
					t.Errorf("concurrent Add() failed: %v", err)
				}
				store.Update(sampleRule("seed-5", 5, j%2 == 0))
			}
		}(w)
	}
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				if _, err := store.Get("seed-1"); err != nil {
					t.Errorf("concurrent Get() failed: %v", err)
				}
				store.ListActive()
			}
		}()
	}
	wg.Wait()

	all, _ := store.List()
	if len(all) != 10+5*20 {
		t.Errorf("got %d rules, want %d", len(all), 10+5*20)
	}
}
