// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package watcher implements Watcher, the read-only time-advancement
// wrapper an observer node (one with no validator key of its own) builds
// over a Tracker.
package watcher

import (
	"github.com/luxfi/approval"
	"github.com/luxfi/approval/criteria"
	"github.com/luxfi/approval/tracker"
	"github.com/luxfi/approval/wire"
)

// Watcher owns a Tracker and exposes the read-only driver surface: time
// advancement, and pass-through ingress for gossiped assignments and
// approval votes. It signs nothing and has no validator identity. Not safe
// for concurrent use.
type Watcher struct {
	Tracker *tracker.Tracker
}

// New wraps t as a Watcher.
func New(t *tracker.Tracker) *Watcher {
	return &Watcher{Tracker: t}
}

// AdvanceAnvSlot monotonically raises the underlying Tracker's current
// slot to max(current, slot); replaying the current tick is a no-op.
func (w *Watcher) AdvanceAnvSlot(slot uint64) {
	if slot > w.Tracker.CurrentSlot {
		w.Tracker.CurrentSlot = slot
	}
}

// Import verifies-and-inserts an already-decoded signed assignment.
func (w *Watcher) Import(signed *criteria.AssignmentSigned) error {
	return w.Tracker.VerifyAndInsert(signed, nil)
}

// ImportBytes decodes a gossiped wire record and verifies-and-inserts it.
func (w *Watcher) ImportBytes(payload []byte) error {
	signed, err := wire.Unmarshal(payload)
	if err != nil {
		return approval.BadAssignment(err)
	}
	return w.Import(signed)
}

// ApproveOthers records an inbound approval vote for paraid's candidate.
func (w *Watcher) ApproveOthers(paraID approval.ParaID, checker approval.ValidatorID) error {
	return w.Tracker.ApproveOthers(paraID, checker)
}

// IsApproved reports whether every known candidate is approved.
func (w *Watcher) IsApproved() bool {
	return w.Tracker.IsApproved()
}
