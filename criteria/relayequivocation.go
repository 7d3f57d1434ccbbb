// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package criteria

import (
	"fmt"

	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/vrf"
)

// RelayEquivocation drafts a checker for a paraid that was the subject of a
// proved candidate equivocation, rather than from relay-VRF randomness. Its
// delay tranche is derived exactly as RelayVRFDelay's.
type RelayEquivocation struct {
	ParaID approval.ParaID
}

var _ Criterion = RelayEquivocation{}

func (RelayEquivocation) Tag() uint8 { return 2 }

func (RelayEquivocation) Validate() error { return nil }

func (c RelayEquivocation) vrfInput(st Stories) (*merlin.Transcript, error) {
	candidate, ok := st.Equivocation.Lookup(c.ParaID)
	if !ok {
		return nil, fmt.Errorf("%w: paraid %d", ErrNotCandidateEquivocation, c.ParaID)
	}
	t := merlin.NewTranscript(vrf.AppLabelInput)
	vrf.AppendUint64(t, "ParaId", uint64(c.ParaID))
	t.AppendMessage([]byte("Candidate Equivocation"), candidate[:])
	return t, nil
}

func (c RelayEquivocation) derive(ctx *approval.ApprovalContext, output *ristretto255.Element) (approval.ParaID, approval.DelayTranche, error) {
	if !ctx.IsAllowedParaID(c.ParaID) {
		return 0, 0, fmt.Errorf("%w: %d", ErrParaIDNotAllowed, c.ParaID)
	}
	io := vrf.InOut{Output: output}
	return c.ParaID, approval.DelayTranche(io.TrancheIndex(ctx.NumDelayTranches)), nil
}
