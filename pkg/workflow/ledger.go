package workflow

import (
	"errors"
	"time"
)

type EntryKind string

const (
	// KindTransition entries record a status change.
	KindTransition EntryKind = "transition"

	// KindNote entries carry the current status and record an audit fact only.
	KindNote EntryKind = "note"
)

var (
	ErrEmptyLedger        = errors.New("ledger is empty")
	ErrTimestampRegressed = errors.New("ledger timestamp earlier than last entry")
)

// Entry is one immutable ledger line.
type Entry[S ~string] struct {
	Status      S         `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Actor       string    `json:"actor"`
	Kind        EntryKind `json:"kind"`
}

// Ledger is an append-only history. Append returns a new slice and never mutates
// entries already present.
type Ledger[S ~string] []Entry[S]

// Seed starts a ledger with its first transition entry.
func Seed[S ~string](status S, at time.Time, description, actor string) Ledger[S] {
	return Ledger[S]{{Status: status, Timestamp: at, Description: description, Actor: actor, Kind: KindTransition}}
}

// Append adds e to a copy of l. Timestamps must be non-decreasing.
func (l Ledger[S]) Append(e Entry[S]) (Ledger[S], error) {
	if e.Kind == "" {
		e.Kind = KindTransition
	}
	if n := len(l); n > 0 && e.Timestamp.Before(l[n-1].Timestamp) {
		return l, ErrTimestampRegressed
	}
	out := make(Ledger[S], len(l), len(l)+1)
	copy(out, l)
	return append(out, e), nil
}

func (l Ledger[S]) Last() (Entry[S], error) {
	if len(l) == 0 {
		return Entry[S]{}, ErrEmptyLedger
	}
	return l[len(l)-1], nil
}

// Walk returns the status sequence of transition entries.
func (l Ledger[S]) Walk() []S {
	walk := make([]S, 0, len(l))
	for _, e := range l {
		if e.Kind == KindNote {
			continue
		}
		walk = append(walk, e.Status)
	}
	return walk
}

// Clone returns an independent copy.
func (l Ledger[S]) Clone() Ledger[S] {
	return append(Ledger[S](nil), l...)
}

// Monotonic reports whether timestamps never decrease.
func (l Ledger[S]) Monotonic() bool {
	for i := 1; i < len(l); i++ {
		if l[i].Timestamp.Before(l[i-1].Timestamp) {
			return false
		}
	}
	return true
}
