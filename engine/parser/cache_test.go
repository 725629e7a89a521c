package parser

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestCacheSharesIntent(t *testing.T) {
	s := companySchema(t)
	var hits, misses atomic.Int64
	c, err := NewCache(16, nil, func(hit bool) {
		if hit {
			hits.Add(1)
		} else {
			misses.Add(1)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	const workers = 32
	results := make([]interface{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			intent, err := c.Get("findByBuildingTypeAndDescription", s)
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			results[i] = intent
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatalf("worker %d received a different intent", i)
		}
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if hits.Load()+misses.Load() != workers {
		t.Errorf("observed %d lookups, want %d", hits.Load()+misses.Load(), workers)
	}

	again, _ := c.Get("findByBuildingTypeAndDescription", s)
	if again != results[0] {
		t.Error("cached intent changed")
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	s := companySchema(t)
	c, err := NewCache(0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get("findByNoSuchField", s); err == nil {
		t.Fatal("expected error")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after failure, want 0", c.Len())
	}
}
