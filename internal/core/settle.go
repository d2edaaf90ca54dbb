package core

import (
	"math"
	"sort"
)

// SettleEpsilon is the rounding threshold for settlement planning, in
// currency units: a balance within one unit of zero counts as settled.
const SettleEpsilon = 1.0

// Instruction is one suggested payment: From pays To the Amount, moving
// both balances towards zero. Instructions are derived fresh on every
// computation and never persisted.
type Instruction struct {
	From   MemberID
	To     MemberID
	Amount float64
}

// Plan produces a greedy list of payments that would bring every group
// member's balance within SettleEpsilon of zero.
//
// Debtors and creditors are each sorted by descending magnitude; equal
// amounts keep their relative group order, so the output is fully
// deterministic. The two sorted lists are walked with cursors, always
// matching the current largest debtor against the current largest
// creditor for the minimum of their remaining amounts. For a group of n
// members this emits at most n-1 instructions. Balance keys outside the
// group are ignored.
func Plan(g Group, b Balances) []Instruction {
	type stake struct {
		id     MemberID
		amount float64
	}
	var debtors, creditors []stake
	for _, id := range g.IDs() {
		v := b[id]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		switch {
		case v < -SettleEpsilon:
			debtors = append(debtors, stake{id: id, amount: -v})
		case v > SettleEpsilon:
			creditors = append(creditors, stake{id: id, amount: v})
		}
	}
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	var out []Instruction
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := math.Min(debtors[i].amount, creditors[j].amount)
		out = append(out, Instruction{From: debtors[i].id, To: creditors[j].id, Amount: amount})
		debtors[i].amount -= amount
		creditors[j].amount -= amount
		if debtors[i].amount <= SettleEpsilon {
			i++
		}
		if creditors[j].amount <= SettleEpsilon {
			j++
		}
	}
	return out
}
