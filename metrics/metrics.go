// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics registers the approval-checker subsystem's prometheus
// collectors. A *Set is optional everywhere it is accepted: a nil *Set
// turns every method into a no-op, so callers that don't care about
// metrics never need a real registerer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

func criterionLabel(tag uint8) string {
	switch tag {
	case 0:
		return "relay_vrf_modulo"
	case 1:
		return "relay_vrf_delay"
	case 2:
		return "relay_equivocation"
	default:
		return "unknown"
	}
}

// Set is the approval subsystem's collector bundle: inserted assignments
// and no-shows counted by the tracker, candidates approved, and the
// announcer's pending/announced bookkeeping.
type Set struct {
	assignmentsInserted *prometheus.CounterVec
	noshows             prometheus.Counter
	candidatesApproved  prometheus.Counter
	announcerPending    *prometheus.GaugeVec
	announcerAnnounced  *prometheus.CounterVec
}

// NewSet builds and registers a Set's collectors against reg. reg may be
// any prometheus.Registerer, including a prometheus.NewRegistry() used
// only in tests.
func NewSet(reg prometheus.Registerer) (*Set, error) {
	s := &Set{
		assignmentsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_assignments_inserted_total",
			Help: "Number of verified assignments inserted into a tracker, by criterion.",
		}, []string{"criterion"}),
		noshows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "approval_noshows_total",
			Help: "Number of checkers reclassified as no-shows.",
		}),
		candidatesApproved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "approval_candidates_approved_total",
			Help: "Number of candidates that transitioned to approved.",
		}),
		announcerPending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "approval_announcer_pending_gauge",
			Help: "Number of assignments currently pending release, by criterion.",
		}, []string{"criterion"}),
		announcerAnnounced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_announcer_announced_total",
			Help: "Number of assignments the local announcer has released, by criterion.",
		}, []string{"criterion"}),
	}

	for _, c := range []prometheus.Collector{
		s.assignmentsInserted, s.noshows, s.candidatesApproved,
		s.announcerPending, s.announcerAnnounced,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) AssignmentsInserted(criterionTag uint8) {
	if s == nil {
		return
	}
	s.assignmentsInserted.WithLabelValues(criterionLabel(criterionTag)).Inc()
}

func (s *Set) NoShows(n uint32) {
	if s == nil || n == 0 {
		return
	}
	s.noshows.Add(float64(n))
}

func (s *Set) CandidateApproved() {
	if s == nil {
		return
	}
	s.candidatesApproved.Inc()
}

func (s *Set) AnnouncerPendingSet(criterionTag uint8, n int) {
	if s == nil {
		return
	}
	s.announcerPending.WithLabelValues(criterionLabel(criterionTag)).Set(float64(n))
}

func (s *Set) AnnouncerAnnounced(criterionTag uint8) {
	if s == nil {
		return
	}
	s.announcerAnnounced.WithLabelValues(criterionLabel(criterionTag)).Inc()
}
