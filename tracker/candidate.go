// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import (
	"errors"
	"fmt"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/criteria"
	"github.com/luxfi/approval/tranche"
)

var (
	ErrMineDisagreement = errors.New("mine flag disagreement")
	ErrUnknownCriterion = errors.New("unknown criterion tag")
)

// CheckerStatus records whether a checker has approved and whether it is
// this node's own checker. It is created the first time a checker is
// mentioned, whether by an inbound assignment or by a premature approval
// arriving before its assignment.
type CheckerStatus struct {
	Approved bool
	Mine     bool
}

// CandidateTracker maintains approval state for one candidate: the checker
// set (independent of, and sometimes ahead of, its assignments) and the
// three per-criterion delay-tranche buckets. Not safe for concurrent use;
// it is exclusively owned by its Tracker.
type CandidateTracker struct {
	Targets  ApprovalTargets
	Checkers map[approval.ValidatorID]*CheckerStatus

	relayVRFModulo    *tranche.ByDelay[*criteria.AssignmentSigned]
	relayVRFDelay     *tranche.ByDelay[*criteria.AssignmentSigned]
	relayEquivocation *tranche.ByDelay[*criteria.AssignmentSigned]

	approvalCounted bool
}

// NewCandidateTracker returns an empty tracker for one candidate.
func NewCandidateTracker(targets ApprovalTargets) *CandidateTracker {
	return &CandidateTracker{
		Targets:           targets,
		Checkers:          make(map[approval.ValidatorID]*CheckerStatus),
		relayVRFModulo:    tranche.New[*criteria.AssignmentSigned](),
		relayVRFDelay:     tranche.New[*criteria.AssignmentSigned](),
		relayEquivocation: tranche.New[*criteria.AssignmentSigned](),
	}
}

func (ct *CandidateTracker) bucketFor(tag uint8) (*tranche.ByDelay[*criteria.AssignmentSigned], StoryClass, error) {
	switch tag {
	case 0:
		return ct.relayVRFModulo, ClassRelayVRF, nil
	case 1:
		return ct.relayVRFDelay, ClassRelayVRF, nil
	case 2:
		return ct.relayEquivocation, ClassEquivocation, nil
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownCriterion, tag)
	}
}

// Approve upserts checker's status as approved. If checker is already
// known, mine must agree with the recorded value.
func (ct *CandidateTracker) Approve(checker approval.ValidatorID, mine bool) error {
	if s, ok := ct.Checkers[checker]; ok {
		if s.Mine != mine {
			return approval.BadAssignment(ErrMineDisagreement)
		}
		s.Approved = true
		return nil
	}
	ct.Checkers[checker] = &CheckerStatus{Approved: true, Mine: mine}
	return nil
}

// ApproveOthers records an approval from a checker that is not ours.
// Premature approvals (arriving before any assignment from checker) are
// legal.
func (ct *CandidateTracker) ApproveOthers(checker approval.ValidatorID) error {
	return ct.Approve(checker, false)
}

// InsertAssignment routes signed into the bucket matching its criterion,
// at the given VRF-derived tranche (never the received tranche), after
// checking mine-consistency against any existing CheckerStatus. When checked is true, a checker already present in that
// tranche's bucket is rejected as a duplicate.
func (ct *CandidateTracker) InsertAssignment(checker approval.ValidatorID, signed *criteria.AssignmentSigned, vrfTranche approval.DelayTranche, mine, checked bool) error {
	bucket, _, err := ct.bucketFor(signed.Criterion.Tag())
	if err != nil {
		return approval.BadAssignment(err)
	}

	if s, ok := ct.Checkers[checker]; ok && s.Mine != mine {
		return approval.BadAssignment(ErrMineDisagreement)
	}

	if checked {
		if err := bucket.InsertChecked(vrfTranche, checker, signed); err != nil {
			return approval.BadAssignment(err)
		}
	} else {
		bucket.InsertUnchecked(vrfTranche, checker, signed)
	}

	if _, ok := ct.Checkers[checker]; !ok {
		ct.Checkers[checker] = &CheckerStatus{Approved: false, Mine: mine}
	}
	return nil
}
