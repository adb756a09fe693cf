package cache

import (
	"errors"
	"testing"
	"time"
)

func TestCacheGetOrLoad(t *testing.T) {
	c := New[string, int]()

	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, hit, err := c.GetOrLoad("a", load)
	if err != nil || v != 42 || hit {
		t.Fatalf("Expected (42, miss, nil), got (%d, %v, %v)", v, hit, err)
	}

	v, hit, err = c.GetOrLoad("a", load)
	if err != nil || v != 42 || !hit {
		t.Fatalf("Expected (42, hit, nil), got (%d, %v, %v)", v, hit, err)
	}

	if calls != 1 {
		t.Errorf("Expected loader to run once, ran %d times", calls)
	}
}

func TestCacheErrorNotCached(t *testing.T) {
	c := New[string, int]()
	boom := errors.New("boom")

	if _, _, err := c.GetOrLoad("a", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Expected empty cache after failed load, got %d entries", c.Len())
	}
}

func TestCacheInvalidation(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1)
	c.Set("b", 2)

	if !c.Delete("a") {
		t.Error("Expected Delete to report present key")
	}
	if c.Delete("a") {
		t.Error("Expected Delete to report missing key")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("Expected b to survive deleting a")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected 0 entries after Clear, got %d", c.Len())
	}
}

func TestMakeKey(t *testing.T) {
	if MakeKey("a", "bc") == MakeKey("ab", "c") {
		t.Error("Expected part boundaries to affect the key")
	}
	if MakeKey("x") != MakeKey("x") {
		t.Error("Expected MakeKey to be deterministic")
	}
}

func TestFileCache(t *testing.T) {
	fc, err := NewFileCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	fetch := func() ([]byte, error) {
		calls++
		return []byte("payload"), nil
	}

	for i := 0; i < 2; i++ {
		data, err := fc.GetOrFetch("https://example.com/a.csv", fetch)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "payload" {
			t.Errorf("Expected payload, got %q", data)
		}
	}
	if calls != 1 {
		t.Errorf("Expected one fetch, got %d", calls)
	}

	if err := fc.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := fc.Get("https://example.com/a.csv"); ok {
		t.Error("Expected entry to be gone after Clear")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	fc, err := NewFileCache(t.TempDir(), 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if err := fc.Set("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, ok := fc.Get("k"); ok {
		t.Error("Expected cache entry to be expired")
	}
}
