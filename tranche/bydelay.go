// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tranche implements AssignmentsByDelay, the ordered per-criterion
// bucketing of assignments by delay tranche.
package tranche

import (
	"errors"
	"sort"

	"github.com/luxfi/approval"
)

var ErrDuplicateChecker = errors.New("duplicate")

// Entry pairs a checker identity with the assignment it was drafted under.
// T is left to the caller (normally *criteria.AssignmentSigned, or the
// checker's own unsigned *criteria.Assignment before it has announced).
type Entry[T any] struct {
	Checker approval.ValidatorID
	Value   T
}

// ByDelay is an ordered map (a hash map plus a sorted tranche-key slice)
// from delay tranche to the entries drafted in it, for one criterion. Buckets stay small because the VRF
// spreads assignments roughly uniformly across tranches; ByDelay is not
// safe for concurrent use, matching every other type in this subsystem.
type ByDelay[T any] struct {
	buckets map[approval.DelayTranche][]Entry[T]
	keys    []approval.DelayTranche // kept sorted ascending
}

// New returns an empty ByDelay.
func New[T any]() *ByDelay[T] {
	return &ByDelay[T]{buckets: make(map[approval.DelayTranche][]Entry[T])}
}

// InsertChecked inserts (checker, value) into the bucket for tranche,
// rejecting a checker already present in that bucket.
func (b *ByDelay[T]) InsertChecked(tranche approval.DelayTranche, checker approval.ValidatorID, value T) error {
	for _, e := range b.buckets[tranche] {
		if e.Checker == checker {
			return ErrDuplicateChecker
		}
	}
	b.insertUnchecked(tranche, checker, value)
	return nil
}

// InsertUnchecked inserts without the duplicate-checker scan, for our own
// pending assignments, which are constructed to never collide.
func (b *ByDelay[T]) InsertUnchecked(tranche approval.DelayTranche, checker approval.ValidatorID, value T) {
	b.insertUnchecked(tranche, checker, value)
}

func (b *ByDelay[T]) insertUnchecked(tranche approval.DelayTranche, checker approval.ValidatorID, value T) {
	if _, ok := b.buckets[tranche]; !ok {
		b.insertKey(tranche)
	}
	b.buckets[tranche] = append(b.buckets[tranche], Entry[T]{Checker: checker, Value: value})
}

func (b *ByDelay[T]) insertKey(tranche approval.DelayTranche) {
	i := sort.Search(len(b.keys), func(i int) bool { return b.keys[i] >= tranche })
	b.keys = append(b.keys, 0)
	copy(b.keys[i+1:], b.keys[i:])
	b.keys[i] = tranche
}

// Range calls fn for every tranche in [lo, hi) that has entries, in
// ascending tranche order, stopping early if fn returns false.
func (b *ByDelay[T]) Range(lo, hi approval.DelayTranche, fn func(tranche approval.DelayTranche, entries []Entry[T]) bool) {
	for _, k := range b.keys {
		if k < lo {
			continue
		}
		if k >= hi {
			return
		}
		if !fn(k, b.buckets[k]) {
			return
		}
	}
}

// At returns the bucket at tranche without removing it.
func (b *ByDelay[T]) At(tranche approval.DelayTranche) []Entry[T] {
	return b.buckets[tranche]
}

// PullTranche drains and returns the bucket at tranche, leaving it empty.
// Used by the announcer to release everything pending in a tranche at once.
func (b *ByDelay[T]) PullTranche(tranche approval.DelayTranche) []Entry[T] {
	entries, ok := b.buckets[tranche]
	if !ok {
		return nil
	}
	delete(b.buckets, tranche)
	b.removeKey(tranche)
	return entries
}

func (b *ByDelay[T]) removeKey(tranche approval.DelayTranche) {
	i := sort.Search(len(b.keys), func(i int) bool { return b.keys[i] >= tranche })
	if i < len(b.keys) && b.keys[i] == tranche {
		b.keys = append(b.keys[:i], b.keys[i+1:]...)
	}
}

// Len returns the total number of entries across all tranches.
func (b *ByDelay[T]) Len() int {
	n := 0
	for _, k := range b.keys {
		n += len(b.buckets[k])
	}
	return n
}

// Tranches returns the sorted list of non-empty tranche keys.
func (b *ByDelay[T]) Tranches() []approval.DelayTranche {
	return append([]approval.DelayTranche(nil), b.keys...)
}
