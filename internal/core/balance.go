package core

import "math"

// Balances maps each group member to a signed net position. Positive
// means the member is owed money by the group, negative means the
// member owes money. For any snapshot of well-formed entries the values
// sum to zero: money is only reallocated, never created or destroyed.
type Balances map[MemberID]float64

// Aggregate reduces a snapshot of entries into per-member net balances.
//
// For every entry the payer is credited the full amount, then every
// member is debited amount times their share. The same two-step rule
// covers expenses and income: receiving rent is "received on behalf of
// the group and must redistribute", the arithmetic mirror of "paid on
// behalf of the group and is owed back". Do not branch by kind here;
// the shared formula is what keeps conservation exact per entry.
//
// The function is total: non-finite or non-positive amounts contribute
// zero, unknown member ids fall outside the group's buckets and are
// ignored. The result is independent of entry order and of any previous
// computation; callers recompute from scratch on every change.
func Aggregate(g Group, entries []Entry) Balances {
	b := make(Balances, g.Size())
	for _, id := range g.IDs() {
		b[id] = 0
	}
	for _, e := range entries {
		amount := e.Amount
		if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
			continue
		}
		if _, ok := b[e.Payer]; ok {
			b[e.Payer] += amount
		}
		for _, id := range g.IDs() {
			b[id] -= amount * e.Split.Share(id)
		}
	}
	return b
}

// Sum returns the total of all balances; near zero for any well-formed
// snapshot (the conservation invariant).
func (b Balances) Sum() float64 {
	total := 0.0
	for _, v := range b {
		total += v
	}
	return total
}
