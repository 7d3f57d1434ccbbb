// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the tunable ApprovalTargets defaults: the
// per-network checker-count targets and the no-show timeout/extension
// constants, which still lack published analysis and so stay adjustable.
package config

import (
	"github.com/luxfi/approval"
	"github.com/luxfi/approval/tracker"
)

// MainnetTargets, TestnetTargets and LocalTargets are starting points for
// the three deployment sizes this codebase's other presets distinguish;
// callers are expected to override fields with Builder rather than
// mutate these package vars directly.
var (
	MainnetTargets = tracker.ApprovalTargets{
		RelayVRFCheckers:          20,
		RelayEquivocationCheckers: 0,
		NoShowTimeout:             6,
		NoShowTimeoutExtension:    6,
	}

	TestnetTargets = tracker.ApprovalTargets{
		RelayVRFCheckers:          10,
		RelayEquivocationCheckers: 0,
		NoShowTimeout:             4,
		NoShowTimeoutExtension:    4,
	}

	LocalTargets = tracker.ApprovalTargets{
		RelayVRFCheckers:          2,
		RelayEquivocationCheckers: 0,
		NoShowTimeout:             3,
		NoShowTimeoutExtension:    3,
	}
)

// Builder assembles an ApprovalTargets from a base preset, validating the
// result on Build.
type Builder struct {
	targets tracker.ApprovalTargets
}

// NewBuilder starts from base (normally one of the package presets).
func NewBuilder(base tracker.ApprovalTargets) *Builder {
	return &Builder{targets: base}
}

func (b *Builder) RelayVRFCheckers(n uint16) *Builder {
	b.targets.RelayVRFCheckers = n
	return b
}

func (b *Builder) RelayEquivocationCheckers(n uint16) *Builder {
	b.targets.RelayEquivocationCheckers = n
	return b
}

func (b *Builder) NoShowTimeout(d approval.DelayTranche) *Builder {
	b.targets.NoShowTimeout = d
	return b
}

func (b *Builder) NoShowTimeoutExtension(d approval.DelayTranche) *Builder {
	b.targets.NoShowTimeoutExtension = d
	return b
}

// Build validates and returns the assembled ApprovalTargets.
func (b *Builder) Build() (tracker.ApprovalTargets, error) {
	if err := Validate(b.targets); err != nil {
		return tracker.ApprovalTargets{}, err
	}
	return b.targets, nil
}
