// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tranche

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/approval"
)

func checker(b byte) approval.ValidatorID {
	return approval.ValidatorID{b}
}

func TestInsertCheckedRejectsDuplicates(t *testing.T) {
	require := require.New(t)

	b := New[int]()
	require.NoError(b.InsertChecked(3, checker(1), 10))
	require.ErrorIs(b.InsertChecked(3, checker(1), 11), ErrDuplicateChecker)

	// Same checker in a different tranche is not a duplicate: the scan
	// covers only the one tranche's bucket.
	require.NoError(b.InsertChecked(4, checker(1), 12))

	// InsertUnchecked skips the scan entirely.
	b.InsertUnchecked(3, checker(1), 13)
	require.Len(b.At(3), 2)
}

func TestRangeIsTrancheOrdered(t *testing.T) {
	require := require.New(t)

	b := New[int]()
	require.NoError(b.InsertChecked(9, checker(1), 0))
	require.NoError(b.InsertChecked(2, checker(2), 0))
	require.NoError(b.InsertChecked(5, checker(3), 0))
	require.NoError(b.InsertChecked(2, checker(4), 0))

	var order []approval.DelayTranche
	b.Range(0, 100, func(tranche approval.DelayTranche, entries []Entry[int]) bool {
		order = append(order, tranche)
		return true
	})
	require.Equal([]approval.DelayTranche{2, 5, 9}, order)

	// Half-open bounds.
	order = order[:0]
	b.Range(2, 9, func(tranche approval.DelayTranche, _ []Entry[int]) bool {
		order = append(order, tranche)
		return true
	})
	require.Equal([]approval.DelayTranche{2, 5}, order)

	// Early stop.
	calls := 0
	b.Range(0, 100, func(approval.DelayTranche, []Entry[int]) bool {
		calls++
		return false
	})
	require.Equal(1, calls)
}

func TestPullTranche(t *testing.T) {
	require := require.New(t)

	b := New[int]()
	require.NoError(b.InsertChecked(1, checker(1), 10))
	require.NoError(b.InsertChecked(1, checker(2), 20))
	require.NoError(b.InsertChecked(2, checker(3), 30))
	require.Equal(3, b.Len())

	entries := b.PullTranche(1)
	require.Len(entries, 2)
	require.Equal(1, b.Len())
	require.Empty(b.At(1))
	require.Equal([]approval.DelayTranche{2}, b.Tranches())

	// Draining an empty tranche is a no-op.
	require.Nil(b.PullTranche(1))
	require.Nil(b.PullTranche(50))

	// A tranche can be refilled after draining.
	require.NoError(b.InsertChecked(1, checker(1), 40))
	require.Equal([]approval.DelayTranche{1, 2}, b.Tranches())
}
