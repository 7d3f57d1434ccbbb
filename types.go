// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package approval implements the approval-checker assignment subsystem:
// VRF-based self-assignment of parachain approval checkers, tranche-ordered
// release of their announcements, and per-candidate approval counting.
package approval

import "encoding/hex"

// ValidatorID is a checker's VRF/Schnorr public key.
type ValidatorID [32]byte

// String returns the hex encoding of the validator ID.
func (v ValidatorID) String() string {
	return hex.EncodeToString(v[:])
}

// ParaID identifies a parachain. The zero value denotes an empty core slot
// in ApprovalContext.ParaIDsByCore; it never appears in AllowedParaIDs.
type ParaID uint32

// CandidateHash identifies a candidate receipt.
type CandidateHash [32]byte

func (c CandidateHash) String() string {
	return hex.EncodeToString(c[:])
}

// RelayBlockHash identifies a relay chain block.
type RelayBlockHash [32]byte

func (h RelayBlockHash) String() string {
	return hex.EncodeToString(h[:])
}

// RelaySlot is a relay chain block-production slot number.
type RelaySlot uint64

// Epoch is a relay chain epoch number.
type Epoch uint64

// DelayTranche is an offset in [0, NumDelayTranches) at which an assignment
// becomes eligible for announcement.
type DelayTranche uint32

// AnvSlotsPerBPSlot is the number of AnV sub-slots per relay chain
// block-production slot (~0.5s sub-slots).
const AnvSlotsPerBPSlot = 12
