package textkey

import (
	"strings"
	"testing"
)

func TestPairKey(t *testing.T) {
	id1 := PairKey("foo", "bar")
	id2 := PairKey("foo", "bar")
	if id1 != id2 {
		t.Errorf("same pair should give same key: %q vs %q", id1, id2)
	}
	if !strings.HasPrefix(id1, prefix) {
		t.Errorf("key should have prefix %q: got %q", prefix, id1)
	}
	if len(id1) != len(prefix)+hashLen {
		t.Errorf("key length = %d, want %d", len(id1), len(prefix)+hashLen)
	}
}

func TestPairKey_symmetric(t *testing.T) {
	pairs := [][2]string{
		{"AI改善教育", "AI提升效率"},
		{"", "x"},
		{"same", "same"},
	}
	for _, p := range pairs {
		if PairKey(p[0], p[1]) != PairKey(p[1], p[0]) {
			t.Errorf("PairKey(%q, %q) not symmetric", p[0], p[1])
		}
	}
}

func TestPairKey_differentPairs(t *testing.T) {
	if PairKey("a", "b") == PairKey("a", "c") {
		t.Error("different pairs should give different keys")
	}
	// Separator keeps concatenation boundaries distinct.
	if PairKey("ab", "c") == PairKey("a", "bc") {
		t.Error("boundary shift should change the key")
	}
}
