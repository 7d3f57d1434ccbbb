// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/approvaltest"
	"github.com/luxfi/approval/criteria"
	"github.com/luxfi/approval/stories"
	"github.com/luxfi/approval/tracker"
	"github.com/luxfi/approval/tranche"
	"github.com/luxfi/approval/vrf"
)

// fixture is a tracker over a single-paraid context: with only paraid 1
// allowed, every RelayVRFModulo evaluation lands on paraid 1, which keeps
// these end-to-end scenarios deterministic without fixing VRF outputs.
type fixture struct {
	ctx     approval.ApprovalContext
	stories criteria.Stories
	tracker *tracker.Tracker
}

func newFixture(t *testing.T) *fixture {
	relayVRF := approvaltest.RelayVRFStory(t, 7)
	equivocation := approvaltest.EquivocationStory(approval.RelayBlockHash{})
	ctx := approvaltest.Context(t,
		approvaltest.WithAllowedParaIDs(1),
		approvaltest.WithNumDelayTranches(40),
	)
	trk := tracker.New(ctx, relayVRF, equivocation, approvaltest.Targets(), nil)
	require.True(t, trk.InitializeCandidate(1))

	return &fixture{
		ctx:     ctx,
		stories: criteria.Stories{RelayVRF: relayVRF, Equivocation: equivocation},
		tracker: trk,
	}
}

// moduloSigned drafts sk under RelayVRFModulo and signs at tranche 0.
func (f *fixture) moduloSigned(t *testing.T, sk *vrf.SecretKey) *criteria.AssignmentSigned {
	t.Helper()
	assignment, err := criteria.Create(criteria.RelayVRFModulo{}, f.stories, &f.ctx, sk)
	require.NoError(t, err)
	require.Equal(t, approval.ParaID(1), assignment.ParaID)
	signed, err := criteria.Sign(assignment, &f.ctx, sk, 0)
	require.NoError(t, err)
	return signed
}

// delaySigned drafts sk under RelayVRFDelay for paraid 1, claiming receipt
// at its own derived tranche.
func (f *fixture) delaySigned(t *testing.T, sk *vrf.SecretKey) *criteria.AssignmentSigned {
	t.Helper()
	assignment, err := criteria.Create(criteria.RelayVRFDelay{ParaID: 1}, f.stories, &f.ctx, sk)
	require.NoError(t, err)
	signed, err := criteria.Sign(assignment, &f.ctx, sk, uint32(assignment.Tranche))
	require.NoError(t, err)
	return signed
}

// Scenario S1: checkers drafted at tranche 0 push the candidate past its
// target; no-shows later retract the approval until their votes land.
func TestScenarioRelayVRFDraftApproves(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	// Target is 3: three assignments are not strictly more than target.
	keys := approvaltest.SecretKeys(t, 1000, 4)
	for _, sk := range keys[:3] {
		require.NoError(f.tracker.VerifyAndInsert(f.moduloSigned(t, sk), nil))
	}
	require.False(f.tracker.IsApproved())

	// A fourth assignment exceeds the target; at tranche 0 nobody can be
	// a no-show yet, so the candidate counts as approved.
	require.NoError(f.tracker.VerifyAndInsert(f.moduloSigned(t, keys[3]), nil))
	require.True(f.tracker.IsApproved())

	// Once the no-show timeout elapses with no votes, the drafted
	// checkers become no-shows and approval is withdrawn.
	f.tracker.CurrentSlot = f.ctx.AnvSlotNumber() + 2
	require.False(f.tracker.IsApproved())

	for _, sk := range keys {
		require.NoError(f.tracker.ApproveOthers(1, approvaltest.ValidatorID(sk)))
	}
	require.True(f.tracker.IsApproved())
}

// Scenario S3: an approval arriving before its assignment is legal, and
// the eventual assignment joins up with it.
func TestScenarioPrematureApproval(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	sk := approvaltest.SecretKey(t, 2000)
	checker := approvaltest.ValidatorID(sk)

	require.NoError(f.tracker.ApproveOthers(1, checker))

	require.NoError(f.tracker.VerifyAndInsert(f.delaySigned(t, sk), nil))

	candidate, err := f.tracker.Candidate(1)
	require.NoError(err)
	status, ok := candidate.Checkers[checker]
	require.True(ok)
	require.True(status.Approved)
	require.False(status.Mine)
}

// Scenario S5: re-inserting the same verified assignment is rejected and
// leaves the tracker unchanged.
func TestScenarioDuplicateInsertionRejected(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	sk := approvaltest.SecretKey(t, 3000)
	signed := f.moduloSigned(t, sk)

	require.NoError(f.tracker.VerifyAndInsert(signed, nil))

	err := f.tracker.VerifyAndInsert(signed, nil)
	require.ErrorIs(err, tranche.ErrDuplicateChecker)

	candidate, err2 := f.tracker.Candidate(1)
	require.NoError(err2)
	require.Len(candidate.Checkers, 1)
}

// Scenario S6: a valid signed assignment bound to a different context is
// rejected; here the relay slot differs (criteria tests cover each field).
func TestScenarioWrongContextRejected(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	sk := approvaltest.SecretKey(t, 4000)
	signed := f.moduloSigned(t, sk)

	otherCtx := f.ctx
	otherCtx.RelaySlot++
	otherTracker := tracker.New(otherCtx, f.tracker.RelayVRFStory, f.tracker.EquivocationStory, approvaltest.Targets(), nil)
	otherTracker.InitializeCandidate(1)

	err := otherTracker.VerifyAndInsert(signed, nil)
	require.Error(err)
	require.Contains(err.Error(), "Incorrect ApprovalContext")
}

func TestInsertForUninitializedCandidate(t *testing.T) {
	require := require.New(t)

	relayVRF := approvaltest.RelayVRFStory(t, 7)
	ctx := approvaltest.Context(t, approvaltest.WithAllowedParaIDs(1))
	trk := tracker.New(ctx, relayVRF, approvaltest.EquivocationStory(approval.RelayBlockHash{}), approvaltest.Targets(), nil)

	f := &fixture{ctx: ctx, stories: criteria.Stories{RelayVRF: relayVRF, Equivocation: stories.NewRelayEquivocationStory(approval.RelayBlockHash{})}, tracker: trk}
	sk := approvaltest.SecretKey(t, 5000)

	err := trk.VerifyAndInsert(f.moduloSigned(t, sk), nil)
	require.ErrorIs(err, tracker.ErrAbsentParaID)
}

func TestVerifyOnlyDoesNotInsert(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	sk := approvaltest.SecretKey(t, 6000)
	signed := f.moduloSigned(t, sk)

	verified, err := f.tracker.VerifyOnly(signed, nil)
	require.NoError(err)
	require.Equal(approval.ParaID(1), verified.ParaID)

	candidate, err := f.tracker.Candidate(1)
	require.NoError(err)
	require.Empty(candidate.Checkers)
}

func TestInitializeCandidateIdempotent(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	require.False(f.tracker.InitializeCandidate(1))
	require.True(f.tracker.InitializeCandidate(2))
}

func TestNewFromBlockInfo(t *testing.T) {
	require := require.New(t)

	info := &approval.RelayChainBlockInfo{
		Slot:             100,
		Epoch:            1,
		Hash:             approval.RelayBlockHash{0x01},
		NumCores:         1,
		NumDelayTranches: 20,
		NumSamples:       1,
		ParaIDsByCore:    []approval.ParaID{1},
		AllowedParaIDs:   []approval.ParaID{1},
	}

	trk, err := tracker.NewFromBlockInfo(info, approvaltest.Targets(), nil)
	require.NoError(err)
	require.Equal(info.Context().AnvSlotNumber(), trk.CurrentSlot)
	require.Equal(stories.TrustedRelayVRFStory(info.ProducerVRFOutput), trk.RelayVRFStory)

	// A structurally-broken block aborts tracking with a story error.
	bad := *info
	bad.NumDelayTranches = 0
	_, err = tracker.NewFromBlockInfo(&bad, approvaltest.Targets(), nil)
	var tagged *approval.Error
	require.ErrorAs(err, &tagged)
	require.Equal(approval.KindBadStory, tagged.Kind)
}

func TestApproveOthersAbsentParaID(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	err := f.tracker.ApproveOthers(9, approval.ValidatorID{0x01})
	require.ErrorIs(err, tracker.ErrAbsentParaID)
}
