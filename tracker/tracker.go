// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import (
	"errors"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/criteria"
	"github.com/luxfi/approval/metrics"
	"github.com/luxfi/approval/stories"
)

var ErrAbsentParaID = errors.New("Absent ParaId")

// Tracker is the collection of CandidateTrackers for one relay block: the
// ingress surface the outer gossip layer calls into (VerifyAndInsert /
// ApproveOthers) and the root it is built from to become either a Watcher
// or an Announcer. Not safe for concurrent use; it is exclusively owned by
// its driver.
//
// CurrentSlot is in AnV slots (the axis AdvanceAnvSlot advances),
// not relay block-production slots; it starts at Context.AnvSlotNumber()
// and only ever increases.
type Tracker struct {
	Context           approval.ApprovalContext
	CurrentSlot       uint64
	RelayVRFStory     stories.RelayVRFStory
	EquivocationStory stories.RelayEquivocationStory
	DefaultTarget     ApprovalTargets
	Candidates        map[approval.ParaID]*CandidateTracker

	metrics *metrics.Set
}

// New builds a Tracker over ctx, seeded with the two stories every
// criterion evaluates against. defaultTarget is the ApprovalTargets newly
// initialized candidates are given. m may be nil.
func New(ctx approval.ApprovalContext, relayVRF stories.RelayVRFStory, equivocation stories.RelayEquivocationStory, defaultTarget ApprovalTargets, m *metrics.Set) *Tracker {
	return &Tracker{
		Context:           ctx,
		CurrentSlot:       ctx.AnvSlotNumber(),
		RelayVRFStory:     relayVRF,
		EquivocationStory: equivocation,
		DefaultTarget:     defaultTarget,
		Candidates:        make(map[approval.ParaID]*CandidateTracker),
		metrics:           m,
	}
}

// NewFromBlockInfo builds a Tracker straight from the relay-chain
// collaborator's block info, trusting that the block's VRF output was
// already authenticated on import. Callers holding an unauthenticated
// block verify the producer's proof with stories.VerifiedRelayVRFStory
// first and use New directly.
func NewFromBlockInfo(info *approval.RelayChainBlockInfo, defaultTarget ApprovalTargets, m *metrics.Set) (*Tracker, error) {
	ctx := info.Context()
	if err := ctx.Validate(); err != nil {
		return nil, approval.BadStory(err)
	}
	relayVRF := stories.TrustedRelayVRFStory(info.ProducerVRFOutput)
	equivocation := stories.NewRelayEquivocationStory(info.Hash)
	return New(ctx, relayVRF, equivocation, defaultTarget, m), nil
}

// InitializeCandidate adds an empty CandidateTracker for paraid if absent,
// returning whether it was freshly created.
func (t *Tracker) InitializeCandidate(paraID approval.ParaID) bool {
	if _, ok := t.Candidates[paraID]; ok {
		return false
	}
	t.Candidates[paraID] = NewCandidateTracker(t.DefaultTarget)
	return true
}

// Candidate looks up paraid's tracker, failing with ErrAbsentParaID if it
// was never initialized.
func (t *Tracker) Candidate(paraID approval.ParaID) (*CandidateTracker, error) {
	c, ok := t.Candidates[paraID]
	if !ok {
		return nil, approval.BadAssignment(ErrAbsentParaID)
	}
	return c, nil
}

// storiesView builds the criteria.Stories pair this Tracker's stories
// present to the criteria package.
func (t *Tracker) storiesView() criteria.Stories {
	return criteria.Stories{RelayVRF: t.RelayVRFStory, Equivocation: t.EquivocationStory}
}

// VerifyOnly verifies signed against this Tracker's context and stories
// without inserting it, for callers that want the authenticated Assignment
// without touching any bucket. VerifyAndInsert calls it before inserting.
func (t *Tracker) VerifyOnly(signed *criteria.AssignmentSigned, myself *approval.ValidatorID) (*criteria.Assignment, error) {
	return criteria.Verify(signed, t.storiesView(), &t.Context, myself)
}

// VerifyAndInsert verifies signed, rejecting it outright if its checker
// equals myself, and on success inserts it into the owning candidate's
// tracker with mine=false (inbound assignments are never ours by
// definition of this entry point).
func (t *Tracker) VerifyAndInsert(signed *criteria.AssignmentSigned, myself *approval.ValidatorID) error {
	a, err := t.VerifyOnly(signed, myself)
	if err != nil {
		return err
	}
	candidate, err := t.Candidate(a.ParaID)
	if err != nil {
		return err
	}
	checker := approval.ValidatorID(a.Checker.Bytes())
	if err := candidate.InsertAssignment(checker, signed, a.Tranche, false, true); err != nil {
		return err
	}
	if t.metrics != nil {
		t.metrics.AssignmentsInserted(signed.Criterion.Tag())
	}
	return nil
}

// ApproveOthers records an approval from checker (never ours) on paraid's
// candidate. Legal even if no assignment from checker has arrived yet.
func (t *Tracker) ApproveOthers(paraID approval.ParaID, checker approval.ValidatorID) error {
	candidate, err := t.Candidate(paraID)
	if err != nil {
		return err
	}
	if err := candidate.ApproveOthers(checker); err != nil {
		return err
	}
	if t.metrics != nil && candidate.FirstApproval(t.CurrentDelayTranche()) {
		t.metrics.CandidateApproved()
	}
	return nil
}

// IsApproved reports whether every candidate this Tracker knows about is
// approved as of the current delay tranche.
func (t *Tracker) IsApproved() bool {
	now := t.CurrentDelayTranche()
	for _, c := range t.Candidates {
		if !c.IsApprovedBefore(now) {
			return false
		}
	}
	return true
}

// DelayTranche maps an absolute AnV slot to a delay tranche via the
// context, clamped to num_delay_tranches-1.
func (t *Tracker) DelayTranche(slot uint64) (approval.DelayTranche, bool) {
	return t.Context.DelayTranche(slot)
}

// CurrentDelayTranche applies DelayTranche to CurrentSlot.
func (t *Tracker) CurrentDelayTranche() approval.DelayTranche {
	tr, ok := t.Context.DelayTranche(t.CurrentSlot)
	if !ok {
		return 0
	}
	return tr
}
