// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vrf

import (
	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"
)

// InOut is the VRF input-output pair: the point derived from the criterion
// and story (Input), and its image under the validator's secret scalar
// (Output).
type InOut struct {
	Input  *ristretto255.Element
	Output *ristretto255.Element
}

// InputPoint derives the VRF input point from a criterion-specific
// transcript by extracting 64 uniform bytes and hashing them to a group
// element. The input point's discrete log is unknown to everyone, so the
// output scalar*Input cannot be computed from the public key alone.
func InputPoint(t *merlin.Transcript) *ristretto255.Element {
	wide := t.ExtractBytes([]byte("vrf-input"), 64)
	return ristretto255.NewElement().FromUniformBytes(wide)
}

// outputBytes expands the VRF output point into n domain-separated
// pseudorandom bytes under tag. This is an internal label, not part of the
// wire format: both signer and verifier derive it independently from the
// same Output point, so it never crosses the wire and needs no
// cross-implementation byte-for-byte guarantee beyond self-consistency.
func outputBytes(output *ristretto255.Element, tag string, n int) []byte {
	t := merlin.NewTranscript("Approval Assignment VRF Output")
	t.AppendMessage([]byte(tag), output.Encode(nil))
	return t.ExtractBytes([]byte("out"), n)
}

// MakeBytes is the public entry point criteria use to turn a verified or
// locally-computed Output point into domain-separated bytes under the
// "parachain" and "tranche" tags.
func (io *InOut) MakeBytes(tag string, n int) []byte {
	return outputBytes(io.Output, tag, n)
}
