package detectors

import (
	"math"
	"testing"
)

func TestEntropy(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"aaaa", 0},
		{"ab", 1},
		{"aabb", 1},
		{"abcd", 2},
		{"ключ", 2},
	}
	for _, tc := range cases {
		if got := Entropy(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Entropy(%q)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestEntropyOrdersRandomAboveRepetitive(t *testing.T) {
	if Entropy("wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY") <= Entropy("passwordpassword") {
		t.Fatal("random-looking key should have higher entropy")
	}
}

func TestEntropyIsBitIdenticalAcrossCalls(t *testing.T) {
	s := "xK9#mQ2$vL7pR4@nW8zT1!bY6^cF3&hJ5*dG0(sA)eU_iO+oP=aS[uD]fH{gJ}kL|qZ;wX:rC'tV<yB>"
	want := math.Float64bits(Entropy(s))
	for i := 0; i < 20000; i++ {
		if got := math.Float64bits(Entropy(s)); got != want {
			t.Fatalf("call %d: bits %x, want %x", i, got, want)
		}
	}
}
