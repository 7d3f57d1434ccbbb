// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stories

import (
	"github.com/luxfi/approval"
)

// RelayEquivocationStory is the block header plus a mapping from paraid to
// candidate hash for each candidate equivocation discovered in that block:
// a candidate declared available here but not in some block-producer
// equivocation of it.
//
// AddEquivocation's admission rule (which fork comparison makes a
// candidate a "candidate equivocation") is an external collaborator's
// concern; this type only stores what it is told. See DESIGN.md.
type RelayEquivocationStory struct {
	BlockHash approval.RelayBlockHash

	equivocations map[approval.ParaID]approval.CandidateHash
}

// NewRelayEquivocationStory starts an empty story for the given block.
func NewRelayEquivocationStory(blockHash approval.RelayBlockHash) RelayEquivocationStory {
	return RelayEquivocationStory{
		BlockHash:     blockHash,
		equivocations: make(map[approval.ParaID]approval.CandidateHash),
	}
}

// AddEquivocation records that candidate is a proved equivocation for
// paraid. The caller (the out-of-scope equivocation-proof adjudicator) is
// solely responsible for having proved this; the story performs no
// additional validation.
func (s *RelayEquivocationStory) AddEquivocation(paraID approval.ParaID, candidate approval.CandidateHash) {
	if s.equivocations == nil {
		s.equivocations = make(map[approval.ParaID]approval.CandidateHash)
	}
	s.equivocations[paraID] = candidate
}

// Lookup returns the candidate hash recorded as paraid's equivocation, if
// any.
func (s *RelayEquivocationStory) Lookup(paraID approval.ParaID) (approval.CandidateHash, bool) {
	c, ok := s.equivocations[paraID]
	return c, ok
}
