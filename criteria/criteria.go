// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package criteria implements the three assignment schemes a checker can
// self-assign under: RelayVRFModulo, RelayVRFDelay, and RelayEquivocation.
// Each builds a domain-separated VRF input transcript from one of the two
// Stories, derives a (paraid, delay tranche) from the VRF output, and
// shares a common sign/verify path against the relay block's context.
package criteria

import (
	"errors"

	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/stories"
	"github.com/luxfi/approval/vrf"
)

var (
	ErrUnsupportedSample        = errors.New("RelayVRFModulo does not support additional samples")
	ErrNotCandidateEquivocation = errors.New("Not a candidate equivocation")
	ErrParaIDNotAllowed         = errors.New("paraid not in allowed_paraids")
)

// Stories is the pair of frozen per-relay-block inputs a criterion draws
// its VRF input from. RelayVRFModulo and RelayVRFDelay read RelayVRF;
// RelayEquivocation reads Equivocation. Which field a given criterion reads
// is fixed by its type, never discovered at runtime.
type Stories struct {
	RelayVRF     stories.RelayVRFStory
	Equivocation stories.RelayEquivocationStory
}

// Criterion is the shared shape of the three assignment schemes: a tag for
// the wire format, intrinsic self-validation, the VRF input transcript, and
// derivation of the (paraid, delay tranche) pair from a VRF output.
type Criterion interface {
	// Tag is the wire-format criterion discriminant (0, 1, 2).
	Tag() uint8

	// Validate checks criterion-intrinsic constraints that do not depend on
	// any story (e.g. RelayVRFModulo.Sample must be 0).
	Validate() error

	// vrfInput builds this criterion's domain-separated VRF input
	// transcript from the relevant story.
	vrfInput(st Stories) (*merlin.Transcript, error)

	// derive computes this criterion's (paraid, delay tranche) from the
	// evaluated VRF output, validating the paraid against ctx where
	// required.
	derive(ctx *approval.ApprovalContext, output *ristretto255.Element) (approval.ParaID, approval.DelayTranche, error)
}

// extraTranscript builds the Schnorr DLEQ "extra" transcript every
// criterion signs over, binding the assignment to the relay block's
// identity without a separate signature.
func extraTranscript(id approval.ContextID) *merlin.Transcript {
	t := merlin.NewTranscript(vrf.AppLabelSignature)
	vrf.AppendUint64(t, "rad slot", uint64(id.RelaySlot))
	vrf.AppendUint64(t, "rad epoch", uint64(id.Epoch))
	blockAndProducer := make([]byte, 0, 64)
	blockAndProducer = append(blockAndProducer, id.BlockHash[:]...)
	blockAndProducer = append(blockAndProducer, id.BlockProducer[:]...)
	vrf.AppendBytes(t, "rad block", blockAndProducer)
	return t
}
