package traverse

import (
	"errors"
	"fmt"

	"whorep/internal/finance"
	"whorep/internal/hierarchy"
)

var (
	// ErrInvalidSelection is returned for input outside the current option
	// set. The machine does not move.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrSessionEnded is returned for any input after exit.
	ErrSessionEnded = errors.New("session ended")
)

// State is a position in the traversal.
type State int

const (
	StateRoot State = iota
	StateGroup
	StateRoster
	StateDetail
	StateFinancial
	StateEnded
)

var stateNames = [...]string{"root", "group", "roster", "detail", "financial", "ended"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Listing is the financial view shown in StateFinancial.
type Listing int

const (
	ListingNone Listing = iota
	ListingContributors
	ListingIndustries
)

// Machine walks a Hierarchy: Root, Group, Roster, Detail, Financial. It is
// not safe for concurrent use.
type Machine struct {
	h       *hierarchy.Hierarchy
	state   State
	group   hierarchy.GroupKind
	member  int
	listing Listing
}

// New starts a traversal at Root.
func New(h *hierarchy.Hierarchy) *Machine {
	return &Machine{h: h}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Hierarchy() *hierarchy.Hierarchy { return m.h }

// Ended reports whether the session has been closed.
func (m *Machine) Ended() bool { return m.state == StateEnded }

// Apply performs one transition and returns the resulting view. On
// ErrInvalidSelection the returned view re-prompts the unchanged state.
func (m *Machine) Apply(in Input) (View, error) {
	if m.state == StateEnded {
		return m.View(), ErrSessionEnded
	}
	switch in.Kind {
	case InputExit:
		m.state = StateEnded
		return m.View(), nil
	case InputBack:
		m.back()
		return m.View(), nil
	case InputTally:
		v := m.View()
		v.Tally = m.Tally().Entries()
		return v, nil
	case InputSelect:
		if !m.selectOption(in.N) {
			return m.View(), fmt.Errorf("%w: %d", ErrInvalidSelection, in.N)
		}
		return m.View(), nil
	default:
		return m.View(), fmt.Errorf("%w: %q", ErrInvalidSelection, in.Text)
	}
}

func (m *Machine) back() {
	switch m.state {
	case StateRoot:
		m.state = StateEnded
	case StateGroup:
		m.state = StateRoot
	case StateRoster:
		m.state = StateGroup
	case StateDetail:
		m.state = StateRoster
	case StateFinancial:
		m.state = StateDetail
		m.listing = ListingNone
	}
}

func (m *Machine) selectOption(n int) bool {
	switch m.state {
	case StateRoot:
		kind := hierarchy.GroupKind(n - 1)
		if !kind.Valid() {
			return false
		}
		m.group = kind
		m.state = StateGroup
	case StateGroup:
		if n != 1 {
			return false
		}
		m.state = StateRoster
	case StateRoster:
		if n < 1 || n > len(m.members()) {
			return false
		}
		m.member = n - 1
		m.state = StateDetail
	case StateDetail:
		if n != 1 || m.current().FinancialProfile() == nil {
			return false
		}
		m.listing = ListingNone
		m.state = StateFinancial
	case StateFinancial:
		switch n {
		case 1:
			m.listing = ListingContributors
		case 2:
			m.listing = ListingIndustries
		default:
			return false
		}
	default:
		return false
	}
	return true
}

// Tally recounts party affiliation: the whole hierarchy at Root, otherwise
// the current group.
func (m *Machine) Tally() hierarchy.Tally {
	if m.state == StateRoot || m.state == StateEnded {
		return m.h.RootTally()
	}
	return m.h.Group(m.group).Tally()
}

func (m *Machine) members() []hierarchy.Member {
	return m.h.Group(m.group).Members
}

func (m *Machine) current() hierarchy.Member {
	return m.members()[m.member]
}

func (m *Machine) profile() *finance.Profile {
	return m.current().FinancialProfile()
}
