// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tracker implements CandidateTracker and Tracker: per-candidate
// approval bookkeeping, no-show detection and replacement, and the
// collection of candidate trackers for one relay block.
package tracker

import "github.com/luxfi/approval"

// StoryClass distinguishes the two story classes the no-show algorithm
// folds assignments over: relay-VRF drafted checkers (RelayVRFModulo and
// RelayVRFDelay together) and equivocation-drafted checkers.
type StoryClass uint8

const (
	ClassRelayVRF StoryClass = iota
	ClassEquivocation
)

// ApprovalTargets holds the per-candidate checker-count targets and the
// no-show timeout. NoShowTimeoutExtension and the escalation rule
// ("replace every no-show with one extra assignee, extend the timeout")
// lack published analysis, so both are kept explicitly tunable rather
// than hard-coded; the defaults follow the additive policy.
type ApprovalTargets struct {
	RelayVRFCheckers          uint16                `json:"relayVRFCheckers"`
	RelayEquivocationCheckers uint16                `json:"relayEquivocationCheckers"`
	NoShowTimeout             approval.DelayTranche `json:"noShowTimeout"`
	NoShowTimeoutExtension    approval.DelayTranche `json:"noShowTimeoutExtension"`
}

// Target returns the checker-count target for class.
func (t ApprovalTargets) Target(class StoryClass) uint16 {
	switch class {
	case ClassRelayVRF:
		return t.RelayVRFCheckers
	case ClassEquivocation:
		return t.RelayEquivocationCheckers
	default:
		return 0
	}
}
