// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package approvaltest builds deterministic fixtures for tests: key-pairs,
// stories, and ApprovalContext values drawn from a seeded source so that
// tests stay reproducible without pulling in crypto/rand.
package approvaltest

import (
	"math/rand"
	"testing"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/stories"
	"github.com/luxfi/approval/tracker"
	"github.com/luxfi/approval/vrf"
)

// SecretKey derives a deterministic VRF secret key from seed. Same seed,
// same key, every call.
func SecretKey(tb testing.TB, seed int64) *vrf.SecretKey {
	tb.Helper()
	src := rand.New(rand.NewSource(seed))
	sk, err := vrf.GenerateSecretKey(src)
	if err != nil {
		tb.Fatalf("approvaltest: generating secret key: %v", err)
	}
	return sk
}

// SecretKeys derives n distinct deterministic secret keys from seed.
func SecretKeys(tb testing.TB, seed int64, n int) []*vrf.SecretKey {
	tb.Helper()
	keys := make([]*vrf.SecretKey, n)
	for i := range keys {
		keys[i] = SecretKey(tb, seed+int64(i))
	}
	return keys
}

// ContextOption customizes a fixture ApprovalContext.
type ContextOption func(*approval.ApprovalContext)

// WithParaIDsByCore overrides the default single-core layout.
func WithParaIDsByCore(paraIDs ...approval.ParaID) ContextOption {
	return func(c *approval.ApprovalContext) {
		c.ParaIDsByCore = paraIDs
		c.NumCores = uint32(len(paraIDs))
	}
}

// WithAllowedParaIDs overrides the default allowed set. Must be given
// sorted ascending and deduplicated; Context does not sort it for you.
func WithAllowedParaIDs(paraIDs ...approval.ParaID) ContextOption {
	return func(c *approval.ApprovalContext) {
		c.AllowedParaIDs = paraIDs
	}
}

// WithNumDelayTranches overrides the default tranche count.
func WithNumDelayTranches(n uint32) ContextOption {
	return func(c *approval.ApprovalContext) { c.NumDelayTranches = n }
}

// WithNumSamples overrides the default RelayVRFModulo sample count.
func WithNumSamples(n uint16) ContextOption {
	return func(c *approval.ApprovalContext) { c.NumSamples = n }
}

// WithBlockProducer overrides the default block producer identity.
func WithBlockProducer(id approval.ValidatorID) ContextOption {
	return func(c *approval.ApprovalContext) { c.BlockProducer = id }
}

// Context builds a small, self-consistent ApprovalContext: one occupied
// core holding paraid 1, AllowedParaIDs {1, 2, 3}, 20 delay tranches, one
// RelayVRFModulo sample. opts override fields, then the result is
// validated; an override that breaks an invariant Validate checks fails
// the test.
func Context(tb testing.TB, opts ...ContextOption) approval.ApprovalContext {
	tb.Helper()
	c := approval.ApprovalContext{
		ContextID: approval.ContextID{
			RelaySlot: 100,
			Epoch:     1,
		},
		NumCores:         1,
		NumDelayTranches: 20,
		NumSamples:       1,
		ParaIDsByCore:    []approval.ParaID{1},
		AllowedParaIDs:   []approval.ParaID{1, 2, 3},
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		tb.Fatalf("approvaltest: built invalid context: %v", err)
	}
	return c
}

// RelayVRFStory builds a deterministic, trusted RelayVRFStory seeded from
// seed: callers that need a believable proof chain should use
// stories.VerifiedRelayVRFStory instead, this is for tests that only care about
// the story's downstream effect on criteria derivation.
func RelayVRFStory(tb testing.TB, seed int64) stories.RelayVRFStory {
	tb.Helper()
	src := rand.New(rand.NewSource(seed))
	var raw [32]byte
	if _, err := src.Read(raw[:]); err != nil {
		tb.Fatalf("approvaltest: reading relay VRF story seed: %v", err)
	}
	return stories.TrustedRelayVRFStory(raw)
}

// EquivocationStory builds an empty RelayEquivocationStory for blockHash;
// callers add entries with AddEquivocation as their scenario requires.
func EquivocationStory(blockHash approval.RelayBlockHash) stories.RelayEquivocationStory {
	return stories.NewRelayEquivocationStory(blockHash)
}

// Targets returns a small ApprovalTargets suitable for exercising the
// no-show escalation loop in a handful of iterations: 3 relay-VRF
// checkers, no equivocation checkers, short timeouts.
func Targets() tracker.ApprovalTargets {
	return tracker.ApprovalTargets{
		RelayVRFCheckers:          3,
		RelayEquivocationCheckers: 0,
		NoShowTimeout:             2,
		NoShowTimeoutExtension:    2,
	}
}

// ValidatorID returns the ValidatorID (public key) for sk.
func ValidatorID(sk *vrf.SecretKey) approval.ValidatorID {
	return approval.ValidatorID(sk.Public().Bytes())
}
