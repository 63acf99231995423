package stats

import (
	"errors"
	"fmt"
)

// precision of BranchingFactor.
const branchingPrecision = 1e-5

var ErrInvalidBranchingInput = errors.New("invalid branching factor input")

// BranchingFactor computes the effective branching factor b* of a search
// that generated numExpanded nodes and found a solution at depth: the b for
// which a uniform tree of that depth, 1 + b + b^2 + ... + b^depth, holds
// numExpanded nodes. The result is within 1e-5 of the true value and never
// above it. numExpanded must be at least depth+1 and depth non-negative.
func BranchingFactor(numExpanded, depth int) (float64, error) {
	if numExpanded < depth+1 {
		return 0, fmt.Errorf("%w: %d nodes cannot reach depth %d",
			ErrInvalidBranchingInput, numExpanded, depth)
	}
	if depth < 0 {
		return 0, fmt.Errorf("%w: negative depth %d", ErrInvalidBranchingInput, depth)
	}
	if depth == 0 {
		return 1, nil
	}
	n := float64(numExpanded)

	lo, hi := 1.0, 1.0
	for fhi := float64(depth + 1); fhi < n; {
		hi *= 2
		fhi = geoSum(hi, depth)
	}
	for hi-lo > branchingPrecision {
		mid := (lo + hi) / 2
		if geoSum(mid, depth) > n {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo, nil
}

// geoSum returns 1 + b + ... + b^d.
func geoSum(b float64, d int) float64 {
	s := 1.0
	for i := 0; i < d; i++ {
		s = s*b + 1
	}
	return s
}
