// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/approval/tracker"
)

func TestPresetsAreValid(t *testing.T) {
	require := require.New(t)
	for name, targets := range map[string]tracker.ApprovalTargets{
		"mainnet": MainnetTargets,
		"testnet": TestnetTargets,
		"local":   LocalTargets,
	} {
		require.NoError(Validate(targets), name)
	}
	require.Equal(uint16(20), MainnetTargets.RelayVRFCheckers)
	require.Equal(uint16(0), MainnetTargets.RelayEquivocationCheckers)
}

func TestBuilderOverrides(t *testing.T) {
	require := require.New(t)

	targets, err := NewBuilder(LocalTargets).
		RelayVRFCheckers(5).
		RelayEquivocationCheckers(1).
		NoShowTimeout(7).
		NoShowTimeoutExtension(2).
		Build()
	require.NoError(err)
	require.Equal(tracker.ApprovalTargets{
		RelayVRFCheckers:          5,
		RelayEquivocationCheckers: 1,
		NoShowTimeout:             7,
		NoShowTimeoutExtension:    2,
	}, targets)

	// The base preset is not mutated by the builder.
	require.Equal(uint16(2), LocalTargets.RelayVRFCheckers)
}

func TestBuilderRejectsInvalid(t *testing.T) {
	require := require.New(t)

	_, err := NewBuilder(LocalTargets).NoShowTimeout(0).Build()
	require.ErrorIs(err, ErrZeroNoShowTimeout)

	_, err = NewBuilder(LocalTargets).NoShowTimeoutExtension(0).Build()
	require.ErrorIs(err, ErrZeroTimeoutExtend)

	_, err = NewBuilder(LocalTargets).RelayVRFCheckers(0).Build()
	require.ErrorIs(err, ErrNoCheckersTargeted)
}
