// Package address builds and randomizes the hierarchical base-4
// addresses GRTS uses to impose a spatially balanced order on grid
// cells. The randomizer is grounded in original_source/src/ranho.c's
// recursive bucket-and-permute structure, translated from R's global
// RNG state to an explicit *rand.Rand threaded through every call, per
// the design note in spec.md §9 ("Global RNG state").
package address

import "math/rand"

// Address is a fixed-length digit string over {1,2,3,4}, one digit per
// grid level; digit 0 is the root-level cell. Addresses are mutated
// in place by Randomize, matching the source's in-place overwrite
// discipline.
type Address []byte

// Construct builds the address of the cell with corner (xc, yc) and
// size (dx, dy) in an n-level grid. Digit n-1 (written first, the
// finest level) down to digit 0 (the root) are filled by repeatedly
// halving the cell's integer column/row index.
func Construct(xc, yc, dx, dy float64, n int) Address {
	x := int64(ceilDiv(xc, dx))
	y := int64(ceilDiv(yc, dy))

	addr := make(Address, n)
	for j := n - 1; j >= 0; j-- {
		addr[j] = byte(2*floorMod2(x)+floorMod2(y)) + '1'
		x = floorDiv2(x)
		y = floorDiv2(y)
	}
	return addr
}

func ceilDiv(a, b float64) float64 {
	q := a / b
	f := float64(int64(q))
	if f < q {
		f++
	}
	return f
}

// floorMod2 returns a mod 2 in {0,1}, using floor-division semantics so
// negative inputs do not produce -1.
func floorMod2(a int64) int64 {
	m := a % 2
	if m < 0 {
		m += 2
	}
	return m
}

// floorDiv2 returns floor(a/2), the "−1 on any remainder" convention
// for negative a.
func floorDiv2(a int64) int64 {
	q := a / 2
	if a%2 != 0 && a < 0 {
		q--
	}
	return q
}

// perms is the 24 permutations of {1,2,3,4}, matching ranho.c's fixed
// lookup table so a uniform draw of an index is a uniform draw of a
// permutation.
var perms = [24][4]byte{
	{'1', '2', '3', '4'}, {'1', '2', '4', '3'}, {'1', '3', '2', '4'}, {'1', '3', '4', '2'},
	{'1', '4', '2', '3'}, {'1', '4', '3', '2'},
	{'2', '1', '3', '4'}, {'2', '1', '4', '3'}, {'2', '3', '1', '4'}, {'2', '3', '4', '1'},
	{'2', '4', '1', '3'}, {'2', '4', '3', '1'},
	{'3', '1', '2', '4'}, {'3', '1', '4', '2'}, {'3', '2', '1', '4'}, {'3', '2', '4', '1'},
	{'3', '4', '1', '2'}, {'3', '4', '2', '1'},
	{'4', '1', '2', '3'}, {'4', '1', '3', '2'}, {'4', '2', '1', '3'}, {'4', '2', '3', '1'},
	{'4', '3', '1', '2'}, {'4', '3', '2', '1'},
}

func genPerm(rng *rand.Rand) [4]byte {
	return perms[rng.Intn(len(perms))]
}

// Randomize applies the recursive bucket-and-permute randomizer to
// addrs in place. Every address must have the same length.
func Randomize(addrs []Address, rng *rand.Rand) {
	permFcn(addrs, 0, rng)
}

func permFcn(addrs []Address, level int, rng *rand.Rand) {
	if len(addrs) == 0 {
		return
	}
	fin := len(addrs[0])
	if level >= fin {
		return
	}

	perm := genPerm(rng)

	var buckets [4][]Address
	for _, a := range addrs {
		d := a[level] - '1'
		buckets[d] = append(buckets[d], a)
	}

	for d := 0; d < 4; d++ {
		bucket := buckets[d]
		if len(bucket) == 0 {
			continue
		}
		permFcn(bucket, level+1, rng)
		for _, a := range bucket {
			a[level] = perm[d]
		}
	}
}
