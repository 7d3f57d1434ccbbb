// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSetRegistersAndCounts(t *testing.T) {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	s, err := NewSet(reg)
	require.NoError(err)

	s.AssignmentsInserted(0)
	s.AssignmentsInserted(0)
	s.AssignmentsInserted(2)
	s.NoShows(3)
	s.NoShows(0)
	s.CandidateApproved()
	s.AnnouncerPendingSet(1, 4)
	s.AnnouncerAnnounced(1)

	require.Equal(float64(2), testutil.ToFloat64(s.assignmentsInserted.WithLabelValues("relay_vrf_modulo")))
	require.Equal(float64(1), testutil.ToFloat64(s.assignmentsInserted.WithLabelValues("relay_equivocation")))
	require.Equal(float64(3), testutil.ToFloat64(s.noshows))
	require.Equal(float64(1), testutil.ToFloat64(s.candidatesApproved))
	require.Equal(float64(4), testutil.ToFloat64(s.announcerPending.WithLabelValues("relay_vrf_delay")))
	require.Equal(float64(1), testutil.ToFloat64(s.announcerAnnounced.WithLabelValues("relay_vrf_delay")))

	// Double registration against the same registry fails.
	_, err = NewSet(reg)
	require.Error(err)
}

func TestNilSetIsNoOp(t *testing.T) {
	var s *Set
	s.AssignmentsInserted(0)
	s.NoShows(1)
	s.CandidateApproved()
	s.AnnouncerPendingSet(1, 2)
	s.AnnouncerAnnounced(2)
}
