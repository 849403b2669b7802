package pipeline

import (
	"testing"
	"time"
)

func TestReportCache_GetSet(t *testing.T) {
	c := newReportCache(time.Minute)

	if _, ok := c.get("p1"); ok {
		t.Error("get should miss on empty cache")
	}

	report := &ValidationReport{Success: true}
	c.set("p1", report)

	got, ok := c.get("p1")
	if !ok || got != report {
		t.Errorf("get = %v,%v, want cached report", got, ok)
	}
	if _, ok := c.get("p2"); ok {
		t.Error("get should miss for a different project")
	}
}

func TestReportCache_Expiry(t *testing.T) {
	c := newReportCache(10 * time.Millisecond)
	c.set("p1", &ValidationReport{})

	if _, ok := c.get("p1"); !ok {
		t.Fatal("entry expired immediately")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.get("p1"); ok {
		t.Error("entry survived past its TTL")
	}
}

func TestReportCache_Invalidate(t *testing.T) {
	c := newReportCache(time.Minute)
	c.set("p1", &ValidationReport{})

	c.invalidate("p1")
	if _, ok := c.get("p1"); ok {
		t.Error("get hit after invalidate")
	}

	// Invalidating a missing key is a no-op.
	c.invalidate("absent")
}

func TestReportCache_ZeroTTLNeverExpires(t *testing.T) {
	c := newReportCache(0)
	c.set("p1", &ValidationReport{})

	time.Sleep(5 * time.Millisecond)
	if _, ok := c.get("p1"); !ok {
		t.Error("zero TTL should disable expiry")
	}
}
