// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package announcer implements Announcer: the validator-side role that
// owns a key-pair, pre-computes its potential assignments, and releases
// them as time advances.
package announcer

import (
	"github.com/luxfi/log"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/criteria"
	"github.com/luxfi/approval/metrics"
	"github.com/luxfi/approval/tracker"
	"github.com/luxfi/approval/tranche"
	"github.com/luxfi/approval/vrf"
	"github.com/luxfi/approval/wire"
)

// Announcer owns the validator key-pair behind a Tracker: exactly one
// Announcer may exist per key-pair. Not safe for concurrent use.
type Announcer struct {
	Tracker *tracker.Tracker
	Keypair *vrf.SecretKey
	MyID    approval.ValidatorID

	pendingRelayVRFDelay     *tranche.ByDelay[*criteria.Assignment]
	pendingRelayEquivocation *tranche.ByDelay[*criteria.Assignment]

	announcedRelayVRFModulo    map[approval.ParaID]*criteria.AssignmentSigned
	announcedRelayVRFDelay     map[approval.ParaID]*criteria.AssignmentSigned
	announcedRelayEquivocation map[approval.ParaID]*criteria.AssignmentSigned

	// noshowDebt remembers the last no-show debt observed per paraid so
	// the metrics counter only advances on newly discovered no-shows.
	noshowDebt map[approval.ParaID]uint32

	gossip  approval.GossipSink
	votes   approval.ApprovalVoteSink
	metrics *metrics.Set
	log     log.Logger
}

// Option configures optional collaborators an Announcer may be built
// with; a zero-value Announcer built without any options is fully
// functional but silent and non-gossiping.
type Option func(*Announcer)

// WithGossip delivers every locally-signed announcement to sink,
// best-effort: a gossip failure is logged and otherwise ignored.
func WithGossip(sink approval.GossipSink) Option {
	return func(a *Announcer) { a.gossip = sink }
}

// WithApprovalVotes publishes this node's own approval votes to sink,
// best-effort: a delivery failure is logged and otherwise ignored.
func WithApprovalVotes(sink approval.ApprovalVoteSink) Option {
	return func(a *Announcer) { a.votes = sink }
}

// WithMetrics registers announcer activity against m.
func WithMetrics(m *metrics.Set) Option {
	return func(a *Announcer) { a.metrics = m }
}

// WithLogger directs diagnostic logging to lg instead of a no-op sink.
func WithLogger(lg log.Logger) Option {
	return func(a *Announcer) { a.log = lg }
}

// IntoAnnouncer elevates t to an Announcer for keypair. It performs both
// pre-computation steps: drafting our RelayVRFModulo samples (signing and
// inserting immediately, since they need no delay) and pre-evaluating,
// but not yet signing, a RelayVRFDelay candidate for every occupied core.
func IntoAnnouncer(t *tracker.Tracker, keypair *vrf.SecretKey, opts ...Option) (*Announcer, error) {
	a := &Announcer{
		Tracker:                    t,
		Keypair:                    keypair,
		MyID:                       approval.ValidatorID(keypair.Public().Bytes()),
		pendingRelayVRFDelay:       tranche.New[*criteria.Assignment](),
		pendingRelayEquivocation:   tranche.New[*criteria.Assignment](),
		announcedRelayVRFModulo:    make(map[approval.ParaID]*criteria.AssignmentSigned),
		announcedRelayVRFDelay:     make(map[approval.ParaID]*criteria.AssignmentSigned),
		announcedRelayEquivocation: make(map[approval.ParaID]*criteria.AssignmentSigned),
		noshowDebt:                 make(map[approval.ParaID]uint32),
		log:                        log.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}

	st := a.stories()

	for sample := uint16(0); sample < t.Context.NumSamples; sample++ {
		crit := criteria.RelayVRFModulo{Sample: sample}
		assignment, err := criteria.Create(crit, st, &t.Context, keypair)
		if err != nil {
			// Only sample 0 is implemented; later samples fail
			// Validate() and are simply not drafted.
			continue
		}
		if _, already := a.announcedRelayVRFModulo[assignment.ParaID]; already {
			continue
		}
		if _, err := t.Candidate(assignment.ParaID); err != nil {
			continue
		}
		if err := a.signAndInsert(assignment, 0); err != nil {
			return nil, err
		}
	}

	for _, paraID := range t.Context.ParaIDsByCore {
		if paraID == 0 {
			continue
		}
		crit := criteria.RelayVRFDelay{ParaID: paraID}
		assignment, err := criteria.Create(crit, st, &t.Context, keypair)
		if err != nil {
			continue
		}
		a.pendingRelayVRFDelay.InsertUnchecked(assignment.Tranche, a.MyID, assignment)
	}

	a.reportPending()
	return a, nil
}

func (a *Announcer) stories() criteria.Stories {
	return criteria.Stories{RelayVRF: a.Tracker.RelayVRFStory, Equivocation: a.Tracker.EquivocationStory}
}

// signAndInsert signs assignment with receivedTranche, inserts it into the
// owning candidate (mine=true, unchecked: it cannot collide by
// construction), records it as announced, and gossips it if a sink was
// configured.
func (a *Announcer) signAndInsert(assignment *criteria.Assignment, receivedTranche uint32) error {
	signed, err := criteria.Sign(assignment, &a.Tracker.Context, a.Keypair, receivedTranche)
	if err != nil {
		return err
	}
	candidate, err := a.Tracker.Candidate(assignment.ParaID)
	if err != nil {
		return err
	}
	if err := candidate.InsertAssignment(a.MyID, signed, assignment.Tranche, true, false); err != nil {
		return err
	}

	switch assignment.Criterion.Tag() {
	case 0:
		a.announcedRelayVRFModulo[assignment.ParaID] = signed
	case 1:
		a.announcedRelayVRFDelay[assignment.ParaID] = signed
	case 2:
		a.announcedRelayEquivocation[assignment.ParaID] = signed
	}

	if a.metrics != nil {
		a.metrics.AssignmentsInserted(assignment.Criterion.Tag())
		a.metrics.AnnouncerAnnounced(assignment.Criterion.Tag())
	}
	a.gossipOut(signed)
	return nil
}

func (a *Announcer) gossipOut(signed *criteria.AssignmentSigned) {
	if a.gossip == nil {
		return
	}
	payload, err := wire.Marshal(signed)
	if err != nil {
		a.log.Warn("failed to encode assignment for gossip", "error", err)
		return
	}
	if err := a.gossip.SendAssignment(payload); err != nil {
		a.log.Warn("failed to gossip assignment", "error", err)
	}
}

// RequestEquivocation lazily creates a pending RelayEquivocation
// assignment for paraid, once the equivocation becomes known to the
// tracker's equivocation story. A no-op if one is already pending or
// announced.
func (a *Announcer) RequestEquivocation(paraID approval.ParaID) error {
	if _, ok := a.announcedRelayEquivocation[paraID]; ok {
		return nil
	}
	for _, tr := range a.pendingRelayEquivocation.Tranches() {
		for _, e := range a.pendingRelayEquivocation.At(tr) {
			if e.Value.ParaID == paraID {
				return nil
			}
		}
	}
	crit := criteria.RelayEquivocation{ParaID: paraID}
	assignment, err := criteria.Create(crit, a.stories(), &a.Tracker.Context, a.Keypair)
	if err != nil {
		return err
	}
	a.pendingRelayEquivocation.InsertUnchecked(assignment.Tranche, a.MyID, assignment)
	a.reportPending()
	return nil
}

func (a *Announcer) reportPending() {
	if a.metrics == nil {
		return
	}
	a.metrics.AnnouncerPendingSet(1, a.pendingRelayVRFDelay.Len())
	a.metrics.AnnouncerPendingSet(2, a.pendingRelayEquivocation.Len())
}
