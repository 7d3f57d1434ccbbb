// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package announcer

import (
	"github.com/luxfi/approval"
	"github.com/luxfi/approval/criteria"
	"github.com/luxfi/approval/tracker"
	"github.com/luxfi/approval/tranche"
)

// AdvanceAnvSlot is the main scheduling operation: for every tranche newly
// entered, release whichever pending RelayVRFDelay/RelayEquivocation
// assignments are still needed (paraids whose AssigneeStatus was not yet
// satisfied as of the tranche before this advance), then raise the
// current slot. An earlier tick (newSlot < current) is ignored, and
// replaying the current tick enters no new tranche, so it releases nothing.
func (a *Announcer) AdvanceAnvSlot(newSlot uint64) error {
	if newSlot < a.Tracker.CurrentSlot {
		return nil
	}

	currentTranche := a.Tracker.CurrentDelayTranche()
	newTranche, ok := a.Tracker.Context.DelayTranche(newSlot)
	if !ok {
		newTranche = 0
	}

	needsVRF, needsEquiv := a.computeNeeds(currentTranche)

	for t := currentTranche; t < newTranche; t++ {
		a.releaseTranche(t, a.pendingRelayVRFDelay, needsVRF, newTranche)
		a.releaseTranche(t, a.pendingRelayEquivocation, needsEquiv, newTranche)
	}

	a.Tracker.CurrentSlot = newSlot
	a.reportPending()
	return nil
}

// computeNeeds builds, for each story class, the set of paraids whose
// AssigneeStatus is not yet satisfied as of now: the paraids that still
// need more checkers drafted. Newly observed no-show debt is counted
// against the metrics sink along the way.
func (a *Announcer) computeNeeds(now approval.DelayTranche) (needsVRF, needsEquiv map[approval.ParaID]bool) {
	needsVRF = make(map[approval.ParaID]bool)
	needsEquiv = make(map[approval.ParaID]bool)
	for paraID, candidate := range a.Tracker.Candidates {
		vrfStatus := candidate.AssigneeStatus(tracker.ClassRelayVRF, now)
		equivStatus := candidate.AssigneeStatus(tracker.ClassEquivocation, now)
		if !vrfStatus.IsApproved() {
			needsVRF[paraID] = true
		}
		if !equivStatus.IsApproved() {
			needsEquiv[paraID] = true
		}

		debt := vrfStatus.Debt + equivStatus.Debt
		if debt > a.noshowDebt[paraID] {
			a.metrics.NoShows(debt - a.noshowDebt[paraID])
		}
		a.noshowDebt[paraID] = debt
	}
	return needsVRF, needsEquiv
}

// releaseTranche drains whichever assignments were pending at t and signs
// and inserts the ones whose paraid still appears in needs, stamping them
// with receivedTranche. Assignments for paraids no longer in needs are
// dropped: their target has already been met.
func (a *Announcer) releaseTranche(t approval.DelayTranche, pending *tranche.ByDelay[*criteria.Assignment], needs map[approval.ParaID]bool, receivedTranche approval.DelayTranche) {
	for _, e := range pending.PullTranche(t) {
		assignment := e.Value
		if !needs[assignment.ParaID] {
			continue
		}
		if err := a.signAndInsert(assignment, uint32(receivedTranche)); err != nil {
			a.log.Error("failed to release pending assignment", "paraid", uint32(assignment.ParaID), "error", err)
			continue
		}
		delete(needs, assignment.ParaID)
	}
}

// ApproveMine marks our own checker approval on paraid's candidate, then
// re-runs AdvanceAnvSlot at the current slot so a now-satisfied assignee
// status retracts any further pending announcements.
func (a *Announcer) ApproveMine(paraID approval.ParaID) error {
	candidate, err := a.Tracker.Candidate(paraID)
	if err != nil {
		return err
	}
	if err := candidate.Approve(a.MyID, true); err != nil {
		return err
	}
	if a.metrics != nil && candidate.FirstApproval(a.Tracker.CurrentDelayTranche()) {
		a.metrics.CandidateApproved()
	}
	if a.votes != nil {
		if err := a.votes.SendApproval(paraID, a.MyID); err != nil {
			a.log.Warn("failed to publish approval vote", "paraid", uint32(paraID), "error", err)
		}
	}
	return a.AdvanceAnvSlot(a.Tracker.CurrentSlot)
}

// VerifyAndInsert is a pass-through to the underlying Tracker, rejecting
// assignments claiming to come from this Announcer's own key.
func (a *Announcer) VerifyAndInsert(signed *criteria.AssignmentSigned) error {
	return a.Tracker.VerifyAndInsert(signed, &a.MyID)
}

// ApproveOthers is a pass-through to the underlying Tracker.
func (a *Announcer) ApproveOthers(paraID approval.ParaID, checker approval.ValidatorID) error {
	return a.Tracker.ApproveOthers(paraID, checker)
}

// IsApproved reports whether every known candidate is approved.
func (a *Announcer) IsApproved() bool {
	return a.Tracker.IsApproved()
}
