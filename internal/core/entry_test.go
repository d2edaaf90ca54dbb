package core

import (
	"math"
	"testing"
)

func TestEntryValidate(t *testing.T) {
	g := testGroup(t)
	good := Entry{
		Kind:   LegalExpense,
		Date:   NewDate(2025, 3, 1),
		Amount: 150,
		Payer:  "b1",
		Split:  EqualSplit(g),
		Note:   "notaio",
	}
	if err := good.Validate(g); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Entry{
		{Kind: "expense_cash", Date: NewDate(2025, 3, 1), Amount: 1, Payer: "b1", Split: EqualSplit(g)},
		{Kind: LegalExpense, Date: Date{}, Amount: 1, Payer: "b1", Split: EqualSplit(g)},
		{Kind: LegalExpense, Date: NewDate(2025, 3, 1), Amount: 0, Payer: "b1", Split: EqualSplit(g)},
		{Kind: LegalExpense, Date: NewDate(2025, 3, 1), Amount: -5, Payer: "b1", Split: EqualSplit(g)},
		{Kind: LegalExpense, Date: NewDate(2025, 3, 1), Amount: math.NaN(), Payer: "b1", Split: EqualSplit(g)},
		{Kind: LegalExpense, Date: NewDate(2025, 3, 1), Amount: math.Inf(1), Payer: "b1", Split: EqualSplit(g)},
		{Kind: LegalExpense, Date: NewDate(2025, 3, 1), Amount: 1, Payer: "ghost", Split: EqualSplit(g)},
		{Kind: LegalExpense, Date: NewDate(2025, 3, 1), Amount: 1, Payer: "b1", Split: SplitRatio{"ghost": 1}},
		{Kind: LegalExpense, Date: NewDate(2025, 3, 1), Amount: 1, Payer: "b1", Split: SplitRatio{"b1": 0.5, "b2": 0.3}},
	}
	for i, e := range bads {
		if err := e.Validate(g); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSplitValidate(t *testing.T) {
	g := testGroup(t)
	cases := []struct {
		s  SplitRatio
		ok bool
	}{
		{EqualSplit(g), true},
		{SplitRatio{"b1": 0.5, "b2": 0.25, "b3": 0.25}, true},
		{SplitRatio{"b1": 0.5, "b2": 0.5}, true},             // missing key means zero share
		{SplitRatio{"b1": 0.33334, "b2": 0.33333, "b3": 0.33333}, true}, // within tolerance
		{SplitRatio{"b1": 0.5, "b2": 0.3}, false},
		{SplitRatio{"b1": 1.5, "b2": -0.5}, false},
		{SplitRatio{"b1": math.NaN()}, false},
		{SplitRatio{}, false},
	}
	for i, tc := range cases {
		err := tc.s.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestEqualSplitSumsToOne(t *testing.T) {
	g := testGroup(t)
	s := EqualSplit(g)
	if err := s.Validate(); err != nil {
		t.Fatalf("equal split invalid: %v", err)
	}
	sum := 0.0
	for _, share := range s {
		sum += share
	}
	if math.Abs(sum-1.0) > SplitTolerance {
		t.Fatalf("equal thirds sum to %v", sum)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.34", 12.34, true},
		{"12,34", 12.34, true},
		{"12.345", 12.34, true},
		{"12.346", 12.35, true},
		{"30000", 30000, true},
		{".50", 0.5, true},
		{"", 0, false},
		{"0", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for i, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok && (err != nil || math.Abs(got-tc.want) > 1e-9) {
			t.Fatalf("case %d (%q): got %v, %v", i, tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d (%q): expected error", i, tc.in)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-01")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.ISO() != "2025-03-01" {
		t.Fatalf("round trip: %s", d.ISO())
	}
	if _, err := ParseDate("01/03/2025"); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
}

func TestNewGroup(t *testing.T) {
	if _, err := NewGroup(Member{ID: "a"}); err == nil {
		t.Fatalf("expected error for single member")
	}
	if _, err := NewGroup(Member{ID: "a"}, Member{ID: "a"}); err == nil {
		t.Fatalf("expected error for duplicate id")
	}
	g, err := NewGroup(Member{ID: "x", Label: "X"}, Member{ID: "y"})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if g.Label("y") != "y" {
		t.Fatalf("empty label should fall back to id")
	}
	if !g.Contains("x") || g.Contains("z") {
		t.Fatalf("membership check broken")
	}
}
