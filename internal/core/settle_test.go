package core

import (
	"math"
	"testing"
)

func TestPlanSingleExpense(t *testing.T) {
	g := testGroup(t)
	plan := Plan(g, Balances{"b1": 20000, "b2": -10000, "b3": -10000})
	want := []Instruction{
		{From: "b2", To: "b1", Amount: 10000},
		{From: "b3", To: "b1", Amount: 10000},
	}
	assertPlan(t, plan, want)
}

func TestPlanRentIncome(t *testing.T) {
	g := testGroup(t)
	plan := Plan(g, Balances{"b1": -3000, "b2": -3000, "b3": 6000})
	want := []Instruction{
		{From: "b1", To: "b3", Amount: 3000},
		{From: "b2", To: "b3", Amount: 3000},
	}
	assertPlan(t, plan, want)
}

func TestPlanUnevenSplit(t *testing.T) {
	g := testGroup(t)
	plan := Plan(g, Balances{"b1": -5000, "b2": 7500, "b3": -2500})
	want := []Instruction{
		{From: "b1", To: "b2", Amount: 5000},
		{From: "b3", To: "b2", Amount: 2500},
	}
	assertPlan(t, plan, want)
}

func TestPlanAllSettled(t *testing.T) {
	g := testGroup(t)
	cases := []Balances{
		{},
		{"b1": 0, "b2": 0, "b3": 0},
		{"b1": 0.5, "b2": -0.4, "b3": -0.1}, // all within epsilon
	}
	for i, b := range cases {
		if plan := Plan(g, b); len(plan) != 0 {
			t.Fatalf("case %d: expected empty plan, got %v", i, plan)
		}
	}
}

func TestPlanBringsBalancesToZero(t *testing.T) {
	g := testGroup(t)
	cases := []Balances{
		{"b1": 20000, "b2": -10000, "b3": -10000},
		{"b1": 17000, "b2": -13000, "b3": -4000},
		{"b1": -5000, "b2": 7500, "b3": -2500},
		{"b1": 123.45, "b2": -23.45, "b3": -100},
	}
	for i, b := range cases {
		plan := Plan(g, b)
		remaining := Balances{}
		for id, v := range b {
			remaining[id] = v
		}
		for _, ins := range plan {
			if ins.Amount <= 0 {
				t.Fatalf("case %d: non-positive instruction amount %v", i, ins.Amount)
			}
			remaining[ins.From] += ins.Amount
			remaining[ins.To] -= ins.Amount
		}
		for id, v := range remaining {
			if math.Abs(v) > SettleEpsilon {
				t.Fatalf("case %d: member %s still at %v after executing plan", i, id, v)
			}
		}
	}
}

func TestPlanBounded(t *testing.T) {
	g := testGroup(t)
	cases := []Balances{
		{"b1": 20000, "b2": -10000, "b3": -10000},
		{"b1": -100, "b2": -200, "b3": 300},
		{"b1": 5, "b2": -5, "b3": 0},
	}
	for i, b := range cases {
		plan := Plan(g, b)
		if len(plan) > g.Size()-1 {
			t.Fatalf("case %d: %d instructions for a %d-member group", i, len(plan), g.Size())
		}
	}
}

func TestPlanDeterministicTieBreak(t *testing.T) {
	// Equal debts resolve in group order, every time.
	g := testGroup(t)
	for i := 0; i < 10; i++ {
		plan := Plan(g, Balances{"b1": 2000, "b2": -1000, "b3": -1000})
		if len(plan) != 2 || plan[0].From != "b2" || plan[1].From != "b3" {
			t.Fatalf("run %d: unexpected order %v", i, plan)
		}
	}
}

func TestPlanIgnoresUnknownKeys(t *testing.T) {
	g := testGroup(t)
	plan := Plan(g, Balances{"b1": 3000, "b2": -3000, "ghost": 99999})
	want := []Instruction{{From: "b2", To: "b1", Amount: 3000}}
	assertPlan(t, plan, want)
}

func assertPlan(t *testing.T, got, want []Instruction) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d instructions, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].From != want[i].From || got[i].To != want[i].To {
			t.Fatalf("instruction %d: got %s->%s, want %s->%s",
				i, got[i].From, got[i].To, want[i].From, want[i].To)
		}
		if math.Abs(got[i].Amount-want[i].Amount) > 1e-6 {
			t.Fatalf("instruction %d: got amount %v, want %v", i, got[i].Amount, want[i].Amount)
		}
	}
}
