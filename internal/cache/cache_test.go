package cache

import (
	"testing"
	"time"
)

func TestGetSetDelete(t *testing.T) {
	c := New[int](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache should miss")
	}

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d/%v, want 1/true", v, ok)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get after Delete should miss")
	}
}

func TestExpiry(t *testing.T) {
	c := New[string](10, 10*time.Millisecond)
	c.Set("a", "x")

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should miss")
	}
	if c.Size() != 0 {
		t.Errorf("Size = %d, want 0 after expired read", c.Size())
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := New[int](10, time.Minute)
	c.Set("budget:ws1:2025-03", 1)
	c.Set("budget:ws1:2025-04", 2)
	c.Set("budget:ws2:2025-03", 3)

	if n := c.InvalidatePrefix("budget:ws1:"); n != 2 {
		t.Errorf("InvalidatePrefix removed %d, want 2", n)
	}
	if _, ok := c.Get("budget:ws2:2025-03"); !ok {
		t.Error("other workspace's entry should survive")
	}
}

func TestSizeCapEvicts(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("latest entry should be present")
	}
}

func TestCleanExpired(t *testing.T) {
	c := New[int](10, 10*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	time.Sleep(20 * time.Millisecond)

	if n := c.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired = %d, want 2", n)
	}
}
