package core

import (
	"errors"
	"fmt"
	"strings"
)

// MemberID identifies one participant in the shared ledger.
type MemberID string

// Member pairs an identifier with a display label.
type Member struct {
	ID    MemberID
	Label string
}

// Group is the ordered, closed set of participants the ledger is kept
// for. The order is significant: it defines the deterministic tie-break
// used by the settlement planner. Groups are immutable once built.
type Group struct {
	members []Member
	index   map[MemberID]int
}

var (
	ErrEmptyGroup      = errors.New("group needs at least two members")
	ErrDuplicateMember = errors.New("duplicate member id")
)

// NewGroup builds a group from an ordered list of members.
func NewGroup(members ...Member) (Group, error) {
	if len(members) < 2 {
		return Group{}, ErrEmptyGroup
	}
	g := Group{
		members: make([]Member, 0, len(members)),
		index:   make(map[MemberID]int, len(members)),
	}
	for i, m := range members {
		id := MemberID(strings.TrimSpace(string(m.ID)))
		if id == "" {
			return Group{}, fmt.Errorf("member %d: empty id", i)
		}
		if _, dup := g.index[id]; dup {
			return Group{}, fmt.Errorf("%w: %s", ErrDuplicateMember, id)
		}
		label := strings.TrimSpace(m.Label)
		if label == "" {
			label = string(id)
		}
		g.index[id] = i
		g.members = append(g.members, Member{ID: id, Label: label})
	}
	return g, nil
}

// DefaultGroup returns the historical three-member household.
func DefaultGroup() Group {
	g, _ := NewGroup(
		Member{ID: "b1", Label: "B1"},
		Member{ID: "b2", Label: "B2"},
		Member{ID: "b3", Label: "B3"},
	)
	return g
}

// Members returns a copy of the ordered member list.
func (g Group) Members() []Member {
	out := make([]Member, len(g.members))
	copy(out, g.members)
	return out
}

// IDs returns the member identifiers in group order.
func (g Group) IDs() []MemberID {
	out := make([]MemberID, len(g.members))
	for i, m := range g.members {
		out[i] = m.ID
	}
	return out
}

// Size returns the number of members.
func (g Group) Size() int { return len(g.members) }

// Contains reports whether id belongs to the group.
func (g Group) Contains(id MemberID) bool {
	_, ok := g.index[id]
	return ok
}

// Label returns the display label for id, or the raw id when unknown.
func (g Group) Label(id MemberID) string {
	if i, ok := g.index[id]; ok {
		return g.members[i].Label
	}
	return string(id)
}
