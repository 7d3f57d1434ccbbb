// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vrf

import (
	"errors"
	"fmt"
	"io"

	"github.com/gtank/ristretto255"
)

var (
	ErrInvalidSecretKey = errors.New("invalid VRF secret key encoding")
	ErrInvalidPublicKey = errors.New("invalid VRF public key encoding")
)

// SecretKey is a ristretto255 scalar used both as the validator's VRF
// evaluation key and as its Schnorr DLEQ signing key.
type SecretKey struct {
	scalar *ristretto255.Scalar
	bytes  [32]byte
}

// PublicKey is the corresponding group element, base*scalar.
type PublicKey struct {
	point *ristretto255.Element
	bytes [32]byte
}

// GenerateSecretKey draws a fresh secret key from rand (normally
// crypto/rand.Reader; a deterministic source is used in tests).
func GenerateSecretKey(rand io.Reader) (*SecretKey, error) {
	var wide [64]byte
	if _, err := io.ReadFull(rand, wide[:]); err != nil {
		return nil, fmt.Errorf("reading VRF secret key entropy: %w", err)
	}
	scalar := ristretto255.NewScalar().FromUniformBytes(wide[:])
	return newSecretKey(scalar), nil
}

func newSecretKey(scalar *ristretto255.Scalar) *SecretKey {
	sk := &SecretKey{scalar: scalar}
	copy(sk.bytes[:], scalar.Encode(nil))
	return sk
}

// SecretKeyFromBytes decodes a 32-byte scalar encoding.
func SecretKeyFromBytes(b [32]byte) (*SecretKey, error) {
	scalar := ristretto255.NewScalar()
	if err := scalar.Decode(b[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecretKey, err)
	}
	return &SecretKey{scalar: scalar, bytes: b}, nil
}

// Bytes returns the 32-byte scalar encoding.
func (sk *SecretKey) Bytes() [32]byte {
	return sk.bytes
}

// Public derives the public key base*scalar.
func (sk *SecretKey) Public() *PublicKey {
	point := ristretto255.NewElement().ScalarBaseMult(sk.scalar)
	pk := &PublicKey{point: point}
	copy(pk.bytes[:], point.Encode(nil))
	return pk
}

// Evaluate computes scalar*input, the VRF output point for this key.
func (sk *SecretKey) Evaluate(input *ristretto255.Element) *ristretto255.Element {
	return ristretto255.NewElement().ScalarMult(sk.scalar, input)
}

// PublicKeyFromBytes decodes a 32-byte compressed ristretto255 element.
func PublicKeyFromBytes(b [32]byte) (*PublicKey, error) {
	point := ristretto255.NewElement()
	if err := point.Decode(b[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return &PublicKey{point: point, bytes: b}, nil
}

// Bytes returns the 32-byte compressed encoding.
func (pk *PublicKey) Bytes() [32]byte {
	return pk.bytes
}
