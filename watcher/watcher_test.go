// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package watcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/approvaltest"
	"github.com/luxfi/approval/criteria"
	"github.com/luxfi/approval/tracker"
	"github.com/luxfi/approval/wire"
)

func newWatcher(t *testing.T) *Watcher {
	t.Helper()
	ctx := approvaltest.Context(t, approvaltest.WithAllowedParaIDs(1))
	trk := tracker.New(ctx,
		approvaltest.RelayVRFStory(t, 7),
		approvaltest.EquivocationStory(approval.RelayBlockHash{}),
		approvaltest.Targets(),
		nil,
	)
	trk.InitializeCandidate(1)
	return New(trk)
}

func TestAdvanceAnvSlotMonotonic(t *testing.T) {
	require := require.New(t)
	w := newWatcher(t)

	anv := w.Tracker.Context.AnvSlotNumber()
	require.Equal(anv, w.Tracker.CurrentSlot)

	w.AdvanceAnvSlot(anv + 10)
	require.Equal(anv+10, w.Tracker.CurrentSlot)

	// Going backwards never lowers the clock.
	w.AdvanceAnvSlot(anv + 4)
	require.Equal(anv+10, w.Tracker.CurrentSlot)

	w.AdvanceAnvSlot(anv + 10)
	require.Equal(anv+10, w.Tracker.CurrentSlot)
}

func TestImportAndApprove(t *testing.T) {
	require := require.New(t)
	w := newWatcher(t)

	st := criteria.Stories{
		RelayVRF:     w.Tracker.RelayVRFStory,
		Equivocation: w.Tracker.EquivocationStory,
	}

	// A watcher consumes exactly what gossip carries: wire bytes.
	var checkers []approval.ValidatorID
	for seed := int64(0); seed < 4; seed++ {
		sk := approvaltest.SecretKey(t, 300+seed)
		assignment, err := criteria.Create(criteria.RelayVRFModulo{}, st, &w.Tracker.Context, sk)
		require.NoError(err)
		signed, err := criteria.Sign(assignment, &w.Tracker.Context, sk, 0)
		require.NoError(err)

		payload, err := wire.Marshal(signed)
		require.NoError(err)

		require.NoError(w.ImportBytes(payload))
		checkers = append(checkers, approvaltest.ValidatorID(sk))
	}

	require.True(w.IsApproved(), "four assignments exceed the target of three at tranche 0")

	// Past the no-show timeout the silent checkers retract approval.
	w.AdvanceAnvSlot(w.Tracker.Context.AnvSlotNumber() + 2)
	require.False(w.IsApproved())

	for _, checker := range checkers {
		require.NoError(w.ApproveOthers(1, checker))
	}
	require.True(w.IsApproved())

	// Garbage off the wire is rejected before it reaches the tracker.
	require.Error(w.ImportBytes([]byte{0x01, 0x02, 0x03}))
}
