package core

import (
	"errors"
	"math"
)

// SplitTolerance is the accepted deviation of a split's share sum from 1.
// Kept as a named constant so the currency precision assumption stays
// explicit and testable.
const SplitTolerance = 0.0001

// SplitRatio allocates an entry's economic effect across members as
// fractional shares. A missing key means a zero share; the two are
// deliberately equivalent. Set once at entry creation, never mutated.
type SplitRatio map[MemberID]float64

var (
	ErrSplitSum      = errors.New("split shares must sum to 1")
	ErrNegativeShare = errors.New("split share cannot be negative")
)

// EqualSplit returns the default split: equal shares for every group member.
func EqualSplit(g Group) SplitRatio {
	n := g.Size()
	if n == 0 {
		return SplitRatio{}
	}
	s := make(SplitRatio, n)
	share := 1.0 / float64(n)
	for _, id := range g.IDs() {
		s[id] = share
	}
	return s
}

// Share returns the member's fractional share, 0 when absent.
func (s SplitRatio) Share(id MemberID) float64 {
	return s[id]
}

// Validate enforces the admission invariant: every share is a finite
// non-negative number and the sum is 1 within SplitTolerance. A split
// violating this must never reach the aggregator.
func (s SplitRatio) Validate() error {
	sum := 0.0
	for _, share := range s {
		if math.IsNaN(share) || math.IsInf(share, 0) {
			return ErrSplitSum
		}
		if share < 0 {
			return ErrNegativeShare
		}
		sum += share
	}
	if math.Abs(sum-1.0) > SplitTolerance {
		return ErrSplitSum
	}
	return nil
}

// Clone returns an independent copy of the split.
func (s SplitRatio) Clone() SplitRatio {
	out := make(SplitRatio, len(s))
	for id, share := range s {
		out[id] = share
	}
	return out
}
