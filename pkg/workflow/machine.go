package workflow

import (
	"fmt"
	"strings"
)

// InvalidTransitionError is returned when a status change is not an edge of the machine.
type InvalidTransitionError struct {
	From    string
	To      string
	Allowed []string
}

func (e *InvalidTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("invalid transition %s -> %s: %s is terminal", e.From, e.To, e.From)
	}
	return fmt.Sprintf("invalid transition %s -> %s (allowed from %s: %s)",
		e.From, e.To, e.From, strings.Join(e.Allowed, ", "))
}

// Machine is a closed transition table over a string-backed status type.
type Machine[S ~string] struct {
	initial  S
	edges    map[S][]S
	terminal map[S]bool
}

// NewMachine builds a machine. Every state reachable in edges must be listed as a key,
// states with no outgoing edges are terminal.
func NewMachine[S ~string](initial S, edges map[S][]S) *Machine[S] {
	m := &Machine[S]{
		initial:  initial,
		edges:    make(map[S][]S, len(edges)),
		terminal: make(map[S]bool),
	}
	for from, tos := range edges {
		m.edges[from] = append([]S(nil), tos...)
		if len(tos) == 0 {
			m.terminal[from] = true
		}
	}
	return m
}

func (m *Machine[S]) Initial() S {
	return m.initial
}

// Known reports whether s is a state of this machine.
func (m *Machine[S]) Known(s S) bool {
	_, ok := m.edges[s]
	return ok
}

func (m *Machine[S]) IsTerminal(s S) bool {
	return m.terminal[s]
}

// Next returns the states reachable from s in one step.
func (m *Machine[S]) Next(s S) []S {
	return append([]S(nil), m.edges[s]...)
}

func (m *Machine[S]) Can(from, to S) bool {
	for _, s := range m.edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Validate returns an *InvalidTransitionError when from -> to is not permitted.
func (m *Machine[S]) Validate(from, to S) error {
	if m.Can(from, to) {
		return nil
	}
	next := m.edges[from]
	allowed := make([]string, 0, len(next))
	for _, s := range next {
		allowed = append(allowed, string(s))
	}
	return &InvalidTransitionError{From: string(from), To: string(to), Allowed: allowed}
}

// ValidWalk reports whether walk starts at the initial state and follows edges only.
func (m *Machine[S]) ValidWalk(walk []S) bool {
	if len(walk) == 0 || walk[0] != m.initial {
		return false
	}
	for i := 1; i < len(walk); i++ {
		if !m.Can(walk[i-1], walk[i]) {
			return false
		}
	}
	return true
}
