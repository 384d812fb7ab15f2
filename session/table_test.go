package session

import (
	"testing"
	"time"
)

func TestTryAdmitRejectsBlacklisted(t *testing.T) {
	tbl := NewTable([]string{"250010123456789"})
	if tbl.TryAdmit("250010123456789", time.Now()) {
		t.Fatalf("expected blacklisted imsi to be rejected")
	}
	if tbl.Contains("250010123456789") {
		t.Fatalf("blacklisted imsi must never appear in the table")
	}
}

func TestTryAdmitRejectsDuplicate(t *testing.T) {
	tbl := NewTable(nil)
	now := time.Now()
	if !tbl.TryAdmit("250010123456780", now) {
		t.Fatalf("expected first admission to succeed")
	}
	if tbl.TryAdmit("250010123456780", now.Add(time.Second)) {
		t.Fatalf("expected duplicate admission to be rejected")
	}
	if tbl.Size() != 1 {
		t.Fatalf("expected size 1, got %d", tbl.Size())
	}
}

func TestRemove(t *testing.T) {
	tbl := NewTable(nil)
	tbl.TryAdmit("250010123456781", time.Now())
	tbl.Remove("250010123456781")
	if tbl.Contains("250010123456781") {
		t.Fatalf("expected imsi to be removed")
	}
	if tbl.Size() != 0 {
		t.Fatalf("expected size 0 after remove, got %d", tbl.Size())
	}
}

func TestSnapshotExpired(t *testing.T) {
	tbl := NewTable(nil)
	base := time.Now()
	tbl.TryAdmit("250010123456782", base.Add(-2*time.Minute))
	tbl.TryAdmit("250010123456783", base)

	expired := tbl.SnapshotExpired(base, time.Minute)
	if len(expired) != 1 || expired[0] != "250010123456782" {
		t.Fatalf("expected only the old session to be expired, got %v", expired)
	}
	if !tbl.Contains("250010123456782") {
		t.Fatalf("snapshot must not remove entries")
	}
}

func TestSnapshotFirstN(t *testing.T) {
	tbl := NewTable(nil)
	now := time.Now()
	ids := []string{"250010123456784", "250010123456785", "250010123456786"}
	for _, id := range ids {
		tbl.TryAdmit(id, now)
	}

	got := tbl.SnapshotFirstN(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 identities, got %d", len(got))
	}
	if tbl.Size() != 3 {
		t.Fatalf("snapshot must not remove entries, size got %d", tbl.Size())
	}

	if got := tbl.SnapshotFirstN(0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}

func TestSnapshotAll(t *testing.T) {
	tbl := NewTable(nil)
	now := time.Now()
	tbl.TryAdmit("250010123456787", now)

	all := tbl.SnapshotAll()
	created, ok := all["250010123456787"]
	if !ok {
		t.Fatalf("expected session present in snapshot")
	}
	if !created.Equal(now) {
		t.Fatalf("expected creation time preserved in snapshot")
	}
}

func TestIsBlacklisted(t *testing.T) {
	tbl := NewTable([]string{"250010123456788"})
	if !tbl.IsBlacklisted("250010123456788") {
		t.Fatalf("expected imsi to be reported blacklisted")
	}
	if tbl.IsBlacklisted("250010123456789") {
		t.Fatalf("expected unrelated imsi to not be blacklisted")
	}
}
