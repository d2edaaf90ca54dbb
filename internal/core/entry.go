package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	LegalExpense EntryKind = "expense_legal"
	OtherExpense EntryKind = "expense_other"
	RentIncome   EntryKind = "income_rent"
)

type (
	// EntryKind classifies a ledger entry. The enumeration is open: new
	// kinds can be added without touching the aggregation arithmetic,
	// which is identical for every kind.
	EntryKind string

	// Date is a calendar date used for display ordering only; it never
	// influences balance computation.
	Date struct {
		time.Time
	}

	// Entry is one immutable financial event: an expense paid by a
	// member on behalf of the group, or income received by a member on
	// behalf of the group, allocated across members by Split.
	Entry struct {
		ID      int64
		Kind    EntryKind
		Date    Date
		Amount  float64
		Payer   MemberID
		Split   SplitRatio
		Note    string
		Settled bool
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrUnknownKind   = errors.New("unknown entry kind")
	ErrUnknownMember = errors.New("unknown member")
	ErrNoteTooLong   = errors.New("note too long (max 200 characters)")
)

// Valid reports whether the kind is one of the known entry kinds.
func (k EntryKind) Valid() bool {
	switch k {
	case LegalExpense, OtherExpense, RentIncome:
		return true
	}
	return false
}

// IsIncome reports whether the kind records money received rather than spent.
func (k EntryKind) IsIncome() bool {
	return strings.HasPrefix(string(k), "income_")
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses an ISO 8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// ISO returns the date formatted as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate enforces the admission invariants against the given group.
// The aggregator itself is total and never faults; everything rejected
// here must be caught before an entry is stored.
func (e Entry) Validate(g Group) error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !g.Contains(e.Payer) {
		return fmt.Errorf("%w: payer %q", ErrUnknownMember, e.Payer)
	}
	for id := range e.Split {
		if !g.Contains(id) {
			return fmt.Errorf("%w: split key %q", ErrUnknownMember, id)
		}
	}
	if err := e.Split.Validate(); err != nil {
		return err
	}
	if len(e.Note) > 200 {
		return ErrNoteTooLong
	}
	return nil
}

// ParseAmount converts a decimal string to a positive amount rounded to
// two decimal places. It accepts both dot (12.34) and comma (12,34)
// separators and performs half-up rounding on the third decimal.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// First two fractional digits, half-up on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return float64(cents) / 100.0, nil
}
