// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import "github.com/luxfi/approval"

// AssigneeStatus is the folded result of the no-show accounting loop for
// one story class as of a given tranche: how many checkers have been
// assigned and approved so far, the (possibly escalated) target and
// timeout, and the outstanding no-show debt.
type AssigneeStatus struct {
	Class         StoryClass
	Target        uint16
	Assigned      uint32
	Approved      uint32
	Debt          uint32
	NoShowTimeout approval.DelayTranche
}

// IsApproved reports whether this class's predicate is satisfied: enough
// checkers assigned beyond target with no outstanding no-show debt. A
// class with target 0 (the default for equivocation checkers, until any
// are configured) is vacuously satisfied; there is nothing to wait for.
func (s AssigneeStatus) IsApproved() bool {
	if s.Target == 0 {
		return true
	}
	return s.Assigned > uint32(s.Target) && s.Debt == 0
}

func (ct *CandidateTracker) entriesAt(class StoryClass, t approval.DelayTranche) []approval.ValidatorID {
	var checkers []approval.ValidatorID
	switch class {
	case ClassRelayVRF:
		for _, e := range ct.relayVRFModulo.At(t) {
			checkers = append(checkers, e.Checker)
		}
		for _, e := range ct.relayVRFDelay.At(t) {
			checkers = append(checkers, e.Checker)
		}
	case ClassEquivocation:
		for _, e := range ct.relayEquivocation.At(t) {
			checkers = append(checkers, e.Checker)
		}
	}
	return checkers
}

// countTranche folds the checkers assigned at tranche t into (approved,
// waiting, noshows): approved checkers, checkers still waiting, and of
// those waiting, the ones that have been waiting at least noShowTimeout
// tranches as of now.
func (ct *CandidateTracker) countTranche(class StoryClass, t, now, noShowTimeout approval.DelayTranche) (approved, waiting, noshows uint32) {
	for _, checker := range ct.entriesAt(class, t) {
		status, ok := ct.Checkers[checker]
		if !ok {
			continue
		}
		if status.Approved {
			approved++
			continue
		}
		waiting++
		if now >= t+noShowTimeout {
			noshows++
		}
	}
	return
}

// AssigneeStatus runs the no-show accounting loop for class as of tranche
// now: fold tranches in order, escalating the target and extending the
// timeout whenever the current wave of assignees still carries unresolved
// no-show debt once the target has been met.
func (ct *CandidateTracker) AssigneeStatus(class StoryClass, now approval.DelayTranche) AssigneeStatus {
	target := ct.Targets.Target(class)
	if target == 0 {
		return AssigneeStatus{Class: class, Target: 0, NoShowTimeout: ct.Targets.NoShowTimeout}
	}

	noShowTimeout := ct.Targets.NoShowTimeout
	var approved, assigned, debt uint32

	var tranche approval.DelayTranche
	for {
		if tranche+noShowTimeout > now+ct.Targets.NoShowTimeout {
			break
		}
		a, w, ns := ct.countTranche(class, tranche, now, noShowTimeout)
		approved += a
		assigned += a + w
		debt += ns
		tranche++

		if assigned <= uint32(target) {
			continue
		}
		if debt == 0 {
			break
		}
		target = clampUint16(assigned)
		debt = 0
		noShowTimeout += ct.Targets.NoShowTimeoutExtension
	}

	return AssigneeStatus{
		Class:         class,
		Target:        target,
		Assigned:      assigned,
		Approved:      approved,
		Debt:          debt,
		NoShowTimeout: noShowTimeout,
	}
}

func clampUint16(v uint32) uint16 {
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

// IsApprovedBefore reports whether both story classes' predicates are
// satisfied as of tranche now.
func (ct *CandidateTracker) IsApprovedBefore(now approval.DelayTranche) bool {
	return ct.AssigneeStatus(ClassRelayVRF, now).IsApproved() &&
		ct.AssigneeStatus(ClassEquivocation, now).IsApproved()
}

// FirstApproval reports whether the candidate is approved as of now and
// this is the first affirmative answer, so approval transitions are
// counted once however many votes arrive afterwards.
func (ct *CandidateTracker) FirstApproval(now approval.DelayTranche) bool {
	if ct.approvalCounted || !ct.IsApprovedBefore(now) {
		return false
	}
	ct.approvalCounted = true
	return true
}
