// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package stories implements the two frozen per-relay-block inputs that
// every criterion's VRF is evaluated against: the relay-VRF story and the
// equivocation story.
package stories

import (
	"errors"
	"fmt"

	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"

	"github.com/luxfi/approval/vrf"
)

var ErrBadRelayVRFProof = errors.New("bad relay block VRF proof")

// RelayVRFStory is the domain-separated hash of the relay block's
// BABE-style VRF output, under the wire-critical label "A&V RC-VRF". Every
// criterion that draws on relay-VRF randomness (RelayVRFModulo,
// RelayVRFDelay) uses Source as the root of its own input transcript.
type RelayVRFStory struct {
	Source [32]byte
}

// TrustedRelayVRFStory builds a story from a raw relay-block VRF output
// the caller has already validated (the common case: the block was
// imported and authenticated by the relay-chain collaborator before the
// tracker is ever built). rawOutput is the producer's raw VRF output bytes.
func TrustedRelayVRFStory(rawOutput [32]byte) RelayVRFStory {
	return RelayVRFStory{Source: hashSource(rawOutput)}
}

// VerifiedRelayVRFStory re-derives the story by checking the block
// producer's VRF proof against the epoch randomness transcript itself,
// for the case where the relay-chain collaborator hands us an
// unauthenticated block and asks us to do the check. epochRandomness is
// the epoch's accumulated randomness value; producer is the block
// producer's VRF public key.
func VerifiedRelayVRFStory(producer *vrf.PublicKey, epochRandomness [32]byte, rawOutput [32]byte, proof *vrf.Proof) (RelayVRFStory, error) {
	inputT := merlin.NewTranscript(vrf.AppLabelInput)
	vrf.AppendBytes(inputT, "rad epoch", epochRandomness[:])
	input := vrf.InputPoint(inputT)

	output := ristretto255.NewElement()
	if err := output.Decode(rawOutput[:]); err != nil {
		return RelayVRFStory{}, fmt.Errorf("%w: decoding VRF output: %v", ErrBadRelayVRFProof, err)
	}

	sigT := merlin.NewTranscript(vrf.AppLabelSignature)
	if err := producer.Verify(sigT, input, output, proof); err != nil {
		return RelayVRFStory{}, fmt.Errorf("%w: %v", ErrBadRelayVRFProof, err)
	}

	return RelayVRFStory{Source: hashSource(rawOutput)}, nil
}

// hashSource domain-separates rawOutput under "A&V RC-VRF" so that every
// downstream criterion transcript is rooted in a value that is not itself
// the raw VRF output (keeping the VRF output's algebraic structure out of
// the criteria transcripts).
func hashSource(rawOutput [32]byte) [32]byte {
	t := merlin.NewTranscript("A&V RC-VRF")
	t.AppendMessage([]byte("A&V RC-VRF"), rawOutput[:])
	out := t.ExtractBytes([]byte("source"), 32)
	var dst [32]byte
	copy(dst[:], out)
	return dst
}
