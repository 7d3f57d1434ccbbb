// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/criteria"
)

// insertAt plants an unapproved relay-VRF-delay checker at tranche t.
func insertAt(t *testing.T, ct *CandidateTracker, c approval.ValidatorID, at approval.DelayTranche) {
	t.Helper()
	require.NoError(t, ct.InsertAssignment(c, fakeSigned(criteria.RelayVRFDelay{ParaID: 1}), at, false, true))
}

func TestAssigneeStatusApprovesWhenTargetExceeded(t *testing.T) {
	require := require.New(t)
	ct := NewCandidateTracker(testTargets()) // target 2, timeout 3

	for b := byte(1); b <= 3; b++ {
		insertAt(t, ct, checkerID(b), 0)
		require.NoError(ct.ApproveOthers(checkerID(b)))
	}

	status := ct.AssigneeStatus(ClassRelayVRF, 0)
	require.True(status.IsApproved())
	require.Equal(uint32(3), status.Assigned)
	require.Equal(uint32(3), status.Approved)
	require.Equal(uint32(0), status.Debt)
	require.Equal(uint16(2), status.Target)
}

func TestAssigneeStatusNotApprovedAtTarget(t *testing.T) {
	require := require.New(t)
	ct := NewCandidateTracker(testTargets())

	// Exactly target-many checkers is not enough; the predicate is
	// strictly-greater.
	insertAt(t, ct, checkerID(1), 0)
	insertAt(t, ct, checkerID(2), 0)
	require.NoError(ct.ApproveOthers(checkerID(1)))
	require.NoError(ct.ApproveOthers(checkerID(2)))

	status := ct.AssigneeStatus(ClassRelayVRF, 0)
	require.False(status.IsApproved())
	require.Equal(uint32(2), status.Assigned)
}

func TestAssigneeStatusCountsNoShows(t *testing.T) {
	require := require.New(t)
	ct := NewCandidateTracker(testTargets()) // timeout 3

	insertAt(t, ct, checkerID(1), 0)
	insertAt(t, ct, checkerID(2), 0)

	// Before the timeout elapses the checkers are merely waiting.
	status := ct.AssigneeStatus(ClassRelayVRF, 2)
	require.Equal(uint32(0), status.Debt)

	// At now = timeout both become no-shows.
	status = ct.AssigneeStatus(ClassRelayVRF, 3)
	require.Equal(uint32(2), status.Debt)
	require.False(status.IsApproved())
}

func TestAssigneeStatusEscalatesOnNoShows(t *testing.T) {
	require := require.New(t)
	ct := NewCandidateTracker(testTargets()) // target 2, timeout 3, ext 3

	// Two no-shows in tranche 0, two replacements arriving in tranche 1.
	insertAt(t, ct, checkerID(1), 0)
	insertAt(t, ct, checkerID(2), 0)
	insertAt(t, ct, checkerID(3), 1)
	insertAt(t, ct, checkerID(4), 1)

	status := ct.AssigneeStatus(ClassRelayVRF, 3)
	require.Equal(uint16(4), status.Target, "one extra assignee per no-show")
	require.Equal(approval.DelayTranche(6), status.NoShowTimeout, "timeout extended additively")
	require.Equal(uint32(0), status.Debt, "debt cleared by the escalation")
	require.False(status.IsApproved(), "escalated target not yet exceeded")
}

func TestAssigneeStatusRecoversAfterEscalation(t *testing.T) {
	require := require.New(t)
	ct := NewCandidateTracker(testTargets())

	// Tranche 0: two checkers that never approve. Tranche 1: three
	// replacements that do. Tranche 2: one more, pushing past the
	// escalated target.
	insertAt(t, ct, checkerID(1), 0)
	insertAt(t, ct, checkerID(2), 0)
	for b := byte(3); b <= 5; b++ {
		insertAt(t, ct, checkerID(b), 1)
		require.NoError(ct.ApproveOthers(checkerID(b)))
	}
	insertAt(t, ct, checkerID(6), 2)
	require.NoError(ct.ApproveOthers(checkerID(6)))

	require.False(ct.AssigneeStatus(ClassRelayVRF, 4).IsApproved())

	status := ct.AssigneeStatus(ClassRelayVRF, 5)
	require.True(status.IsApproved())
	require.Equal(uint32(6), status.Assigned)
	require.Equal(uint16(5), status.Target)

	// Once approved, later tranches keep it approved.
	for now := approval.DelayTranche(5); now < 40; now++ {
		require.True(ct.AssigneeStatus(ClassRelayVRF, now).IsApproved(), "now=%d", now)
	}
}

func TestApprovedStaysApprovedWhenAllApprove(t *testing.T) {
	require := require.New(t)
	ct := NewCandidateTracker(testTargets())

	for b := byte(1); b <= 3; b++ {
		insertAt(t, ct, checkerID(b), 0)
		require.NoError(ct.ApproveOthers(checkerID(b)))
	}

	for now := approval.DelayTranche(0); now < 40; now++ {
		require.True(ct.IsApprovedBefore(now), "now=%d", now)
	}
}

func TestZeroTargetIsVacuouslyApproved(t *testing.T) {
	require := require.New(t)
	ct := NewCandidateTracker(testTargets()) // equivocation target 0

	status := ct.AssigneeStatus(ClassEquivocation, 0)
	require.True(status.IsApproved())

	// Raising the equivocation target makes the class real.
	ct.Targets.RelayEquivocationCheckers = 1
	require.False(ct.AssigneeStatus(ClassEquivocation, 0).IsApproved())

	require.NoError(ct.InsertAssignment(checkerID(1), fakeSigned(criteria.RelayEquivocation{ParaID: 1}), 0, false, true))
	require.NoError(ct.InsertAssignment(checkerID(2), fakeSigned(criteria.RelayEquivocation{ParaID: 1}), 0, false, true))
	require.NoError(ct.ApproveOthers(checkerID(1)))
	require.NoError(ct.ApproveOthers(checkerID(2)))
	require.True(ct.AssigneeStatus(ClassEquivocation, 0).IsApproved())
}

func TestBothClassesGateOverallApproval(t *testing.T) {
	require := require.New(t)
	targets := testTargets()
	targets.RelayEquivocationCheckers = 1
	ct := NewCandidateTracker(targets)

	// Relay-VRF side satisfied.
	for b := byte(1); b <= 3; b++ {
		insertAt(t, ct, checkerID(b), 0)
		require.NoError(ct.ApproveOthers(checkerID(b)))
	}
	require.False(ct.IsApprovedBefore(0), "equivocation class still unsatisfied")

	require.NoError(ct.InsertAssignment(checkerID(4), fakeSigned(criteria.RelayEquivocation{ParaID: 1}), 0, false, true))
	require.NoError(ct.InsertAssignment(checkerID(5), fakeSigned(criteria.RelayEquivocation{ParaID: 1}), 0, false, true))
	require.NoError(ct.ApproveOthers(checkerID(4)))
	require.NoError(ct.ApproveOthers(checkerID(5)))
	require.True(ct.IsApprovedBefore(0))
}
