// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vrf

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"
)

var ErrInvalidProof = errors.New("VRF proof does not verify")

// Proof is a Chaum-Pedersen discrete-log-equality NIZK that Output is this
// key's evaluation of Input without revealing the secret scalar: it proves
// log_B(P) == log_I(O) for base point B, public key P, input I and output O.
type Proof struct {
	C [32]byte
	S [32]byte
}

// Sign evaluates the VRF on input and produces the InOut pair together with
// a Proof binding Output to the public key, appending every public value to
// sigT under its own label before drawing the Fiat-Shamir challenge. sigT is
// expected to already carry the assignment's context-binding transcript
// data (see criteria.Sign); Sign only appends the VRF-specific values.
func (sk *SecretKey) Sign(sigT *merlin.Transcript, input *ristretto255.Element) (*InOut, *Proof, error) {
	output := sk.Evaluate(input)
	proof, err := sk.Prove(sigT, &InOut{Input: input, Output: output})
	if err != nil {
		return nil, nil, err
	}
	return &InOut{Input: input, Output: output}, proof, nil
}

// Prove produces a Proof for an already-computed InOut pair, without
// recomputing Output. Used when the input-output pair was derived earlier
// (criteria.Create) and only needs to be proved now, on release.
func (sk *SecretKey) Prove(sigT *merlin.Transcript, inout *InOut) (*Proof, error) {
	pub := sk.Public()

	var nonceBuf [64]byte
	if _, err := io.ReadFull(rand.Reader, nonceBuf[:]); err != nil {
		return nil, fmt.Errorf("drawing VRF proof nonce: %w", err)
	}
	k := ristretto255.NewScalar().FromUniformBytes(nonceBuf[:])

	r1 := ristretto255.NewElement().ScalarBaseMult(k)
	r2 := ristretto255.NewElement().ScalarMult(k, inout.Input)

	c := challengeScalar(sigT, pub.point, inout.Input, inout.Output, r1, r2)

	s := ristretto255.NewScalar().Multiply(c, sk.scalar)
	s.Add(s, k)

	proof := &Proof{}
	copy(proof.C[:], c.Encode(nil))
	copy(proof.S[:], s.Encode(nil))

	return proof, nil
}

// Verify checks that proof attests Output = scalar*Input under pk for the
// same scalar as pk = scalar*Base, recomputing the Fiat-Shamir challenge
// from sigT plus the same public values Sign appended.
func (pk *PublicKey) Verify(sigT *merlin.Transcript, input, output *ristretto255.Element, proof *Proof) error {
	c := ristretto255.NewScalar()
	if err := c.Decode(proof.C[:]); err != nil {
		return fmt.Errorf("%w: decoding challenge: %v", ErrInvalidProof, err)
	}
	s := ristretto255.NewScalar()
	if err := s.Decode(proof.S[:]); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrInvalidProof, err)
	}

	// R1' = s*Base - c*P
	r1 := ristretto255.NewElement().ScalarBaseMult(s)
	cp := ristretto255.NewElement().ScalarMult(c, pk.point)
	r1.Subtract(r1, cp)

	// R2' = s*Input - c*Output
	r2 := ristretto255.NewElement().ScalarMult(s, input)
	co := ristretto255.NewElement().ScalarMult(c, output)
	r2.Subtract(r2, co)

	got := challengeScalar(sigT, pk.point, input, output, r1, r2)
	if got.Equal(c) != 1 {
		return ErrInvalidProof
	}
	return nil
}

// challengeScalar appends the five public group elements of a DLEQ instance
// to t and extracts the Fiat-Shamir challenge scalar from it. Sign/Prove and
// Verify each call this on their own freshly-built copy of the same public
// preamble transcript, so the mutation here never leaks between them.
func challengeScalar(t *merlin.Transcript, pub, input, output, r1, r2 *ristretto255.Element) *ristretto255.Scalar {
	t.AppendMessage([]byte("vrf-pk"), pub.Encode(nil))
	t.AppendMessage([]byte("vrf-input"), input.Encode(nil))
	t.AppendMessage([]byte("vrf-output"), output.Encode(nil))
	t.AppendMessage([]byte("vrf-r1"), r1.Encode(nil))
	t.AppendMessage([]byte("vrf-r2"), r2.Encode(nil))
	wide := t.ExtractBytes([]byte("vrf-challenge"), 64)
	return ristretto255.NewScalar().FromUniformBytes(wide)
}
