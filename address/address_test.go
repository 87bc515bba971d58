package address

import (
	"math/rand"
	"sort"
	"testing"
)

// S5: randomizing a 2-level address set produces a permutation of the
// input, not an arbitrary relabeling.
func TestRandomizeIsPermutation(t *testing.T) {
	input := []string{"11", "12", "21", "22"}
	addrs := make([]Address, len(input))
	for i, s := range input {
		addrs[i] = Address([]byte(s))
	}

	Randomize(addrs, rand.New(rand.NewSource(1)))

	got := make([]string, len(addrs))
	for i, a := range addrs {
		got[i] = string(a)
	}
	sort.Strings(got)
	want := append([]string(nil), input...)
	sort.Strings(want)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("randomize produced %v, want a permutation of %v", got, input)
		}
	}
}

// Property 5: two independent seeds are unlikely to produce the same
// permutation of a large enough address set.
func TestRandomizeVariesWithSeed(t *testing.T) {
	base := []string{"111", "112", "121", "122", "211", "212", "221", "222"}

	run := func(seed int64) []string {
		addrs := make([]Address, len(base))
		for i, s := range base {
			addrs[i] = Address([]byte(s))
		}
		Randomize(addrs, rand.New(rand.NewSource(seed)))
		out := make([]string, len(addrs))
		for i, a := range addrs {
			out[i] = string(a)
		}
		return out
	}

	a := run(1)
	b := run(2)
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("two different seeds produced the same permutation; randomizer may be ignoring rng")
	}
}

// Addresses sharing a prefix before the randomized level must still
// share whatever structure permFcn assigns at that level: every
// address bucketed together by its digit at a level is relabeled by
// the same permutation.
func TestRandomizePreservesBucketCoherence(t *testing.T) {
	input := []string{"1a", "1b", "2a", "2b"}
	// Use distinguishable second characters to track identity through
	// the permutation; level 0 is the only randomized digit here since
	// these addresses are effectively 1 meaningful digit for level 0
	// and an opaque tag after it. Exercise level 0 only by using
	// length-1 addresses derived from the prefix digit.
	_ = input

	addrs := []Address{
		Address([]byte("1")),
		Address([]byte("1")),
		Address([]byte("2")),
		Address([]byte("2")),
	}
	Randomize(addrs, rand.New(rand.NewSource(7)))
	if addrs[0][0] != addrs[1][0] {
		t.Error("addresses sharing level-0 digit before randomization must share it after")
	}
	if addrs[2][0] != addrs[3][0] {
		t.Error("addresses sharing level-0 digit before randomization must share it after")
	}
}

func TestConstructFloorDivisionConvention(t *testing.T) {
	// A cell corner at the origin quadrant boundary: xc=0 means
	// ceil(0/dx)=0, which halves to 0 at every coarser level.
	addr := Construct(0, 0, 1, 1, 3)
	for _, d := range addr {
		if d != '1' {
			t.Errorf("origin-quadrant address = %q, want all '1' digits", addr)
			break
		}
	}
}

func TestConstructNegativeCoordinates(t *testing.T) {
	// Negative coordinates must not panic. The column/row index is
	// ceil(-0.5/1) = 0; negative indices are halved with floor, not
	// truncating, division.
	addr := Construct(-0.5, -0.5, 1, 1, 2)
	if len(addr) != 2 {
		t.Fatalf("got address length %d, want 2", len(addr))
	}
}
