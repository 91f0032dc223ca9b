package cache_test

import (
	"testing"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/infra/cache"
)

func TestSetGet(t *testing.T) {
	c := cache.New[[]domain.VendorPreference](time.Minute)

	prefs := []domain.VendorPreference{{UserID: "u1", Pattern: "cvs", IsMedical: true}}
	c.Set("prefs:u1", prefs)

	got, ok := c.Get("prefs:u1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].Pattern != "cvs" {
		t.Errorf("unexpected cached value: %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	c := cache.New[string](time.Minute)

	if _, ok := c.Get("nope"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestExpiry(t *testing.T) {
	c := cache.New[int](10 * time.Millisecond)

	c.Set("k", 42)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestDeleteInvalidates(t *testing.T) {
	c := cache.New[int](time.Minute)

	c.Set("k", 1)
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestLen(t *testing.T) {
	c := cache.New[int](time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
}
