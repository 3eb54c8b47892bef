package ratelimit

import "testing"

func TestAllowBurstsUpToCapacity(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("upstream", 3, 1) {
			t.Fatalf("token %d should be available from the full bucket", i)
		}
	}
	if l.Allow("upstream", 3, 1) {
		t.Fatal("bucket should be empty after the burst")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	for i := 0; i < 2; i++ {
		l.Allow("a", 2, 1)
	}
	if l.Allow("a", 2, 1) {
		t.Fatal("a should be drained")
	}
	if !l.Allow("b", 2, 1) {
		t.Fatal("b has its own bucket")
	}
}
