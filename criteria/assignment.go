// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package criteria

import (
	"errors"
	"fmt"

	"github.com/gtank/ristretto255"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/vrf"
)

var (
	ErrBadVRFKey        = errors.New("bad VRF signature: invalid public key")
	ErrBadVRFPreOutput  = errors.New("bad VRF signature: invalid pre-output")
	ErrBadVRFProof      = errors.New("bad VRF signature: invalid proof")
	ErrReceivedTooEarly = errors.New("received_tranche below VRF-derived tranche")
	ErrOwnAssignment    = errors.New("cannot verify own assignment")
)

// Assignment is an unsigned, locally-evaluated draft: the criterion, the
// VRF input-output pair, and the (paraid, tranche) derived from it. Checker
// is nil until the assignment has been through Verify, at which point the
// checker's public key becomes part of an authenticated value.
type Assignment struct {
	Criterion Criterion
	Checker   *vrf.PublicKey
	InOut     vrf.InOut
	ParaID    approval.ParaID
	Tranche   approval.DelayTranche
}

// AssignmentSigned is the self-contained, wire-ready announcement: context,
// criterion, checker public key, VRF pre-output, VRF proof, and the
// announcer's claimed tranche of receipt. The tuple
// (CheckerPubKey, VRFPreOut, VRFProof) is verifiable against a Stories
// value without any other context.
type AssignmentSigned struct {
	Context         approval.ContextID
	Criterion       Criterion
	CheckerPubKey   [32]byte
	VRFPreOut       [32]byte
	VRFProof        vrf.Proof
	ReceivedTranche uint32
}

// Create evaluates c's VRF against st under sk, without signing, producing
// the unsigned Assignment an Announcer holds pending until it decides to
// release it.
func Create(c Criterion, st Stories, ctx *approval.ApprovalContext, sk *vrf.SecretKey) (*Assignment, error) {
	if err := c.Validate(); err != nil {
		return nil, approval.BadAssignment(err)
	}
	inputT, err := c.vrfInput(st)
	if err != nil {
		return nil, approval.BadStory(err)
	}
	input := vrf.InputPoint(inputT)
	output := sk.Evaluate(input)

	paraID, tranche, err := c.derive(ctx, output)
	if err != nil {
		return nil, approval.BadAssignment(err)
	}

	return &Assignment{
		Criterion: c,
		Checker:   nil,
		InOut:     vrf.InOut{Input: input, Output: output},
		ParaID:    paraID,
		Tranche:   tranche,
	}, nil
}

// Sign produces the AssignmentSigned for an already-evaluated Assignment,
// proving its VRF input-output pair over the context-binding extra
// transcript with received_tranche as the announcer's claimed arrival
// tranche.
func Sign(a *Assignment, ctx *approval.ApprovalContext, sk *vrf.SecretKey, receivedTranche uint32) (*AssignmentSigned, error) {
	sigT := extraTranscript(ctx.ContextID)
	proof, err := sk.Prove(sigT, &a.InOut)
	if err != nil {
		return nil, approval.BadAssignmentf("signing VRF: %w", err)
	}

	var preout [32]byte
	copy(preout[:], a.InOut.Output.Encode(nil))

	return &AssignmentSigned{
		Context:         ctx.ContextID,
		Criterion:       a.Criterion,
		CheckerPubKey:   sk.Public().Bytes(),
		VRFPreOut:       preout,
		VRFProof:        *proof,
		ReceivedTranche: receivedTranche,
	}, nil
}

// Verify checks s against st and ctx, rejecting assignments claiming to be
// from myself, and returns the authenticated Assignment on success. An
// announcement cannot claim receipt earlier than its VRF-derived tranche;
// that bound is enforced here.
func Verify(s *AssignmentSigned, st Stories, ctx *approval.ApprovalContext, myself *approval.ValidatorID) (*Assignment, error) {
	if ctx.ContextID != s.Context {
		return nil, approval.BadAssignmentf("Incorrect ApprovalContext")
	}

	pub, err := vrf.PublicKeyFromBytes(s.CheckerPubKey)
	if err != nil {
		return nil, approval.BadAssignment(fmt.Errorf("%w: %v", ErrBadVRFKey, err))
	}

	if myself != nil && pub.Bytes() == [32]byte(*myself) {
		return nil, approval.BadAssignment(ErrOwnAssignment)
	}

	output := ristretto255.NewElement()
	if err := output.Decode(s.VRFPreOut[:]); err != nil {
		return nil, approval.BadAssignment(fmt.Errorf("%w: %v", ErrBadVRFPreOutput, err))
	}

	if err := s.Criterion.Validate(); err != nil {
		return nil, approval.BadAssignment(err)
	}
	inputT, err := s.Criterion.vrfInput(st)
	if err != nil {
		return nil, approval.BadStory(err)
	}
	input := vrf.InputPoint(inputT)

	sigT := extraTranscript(ctx.ContextID)
	if err := pub.Verify(sigT, input, output, &s.VRFProof); err != nil {
		return nil, approval.BadAssignment(fmt.Errorf("%w: %v", ErrBadVRFProof, err))
	}

	paraID, tranche, err := s.Criterion.derive(ctx, output)
	if err != nil {
		return nil, approval.BadAssignment(err)
	}
	if approval.DelayTranche(s.ReceivedTranche) < tranche {
		return nil, approval.BadAssignment(ErrReceivedTooEarly)
	}

	return &Assignment{
		Criterion: s.Criterion,
		Checker:   pub,
		InOut:     vrf.InOut{Input: input, Output: output},
		ParaID:    paraID,
		Tranche:   tranche,
	}, nil
}
