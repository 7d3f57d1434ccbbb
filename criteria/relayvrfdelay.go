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

// RelayVRFDelay drafts a checker for an explicit paraid (one per occupied
// core), with a delay tranche derived from the VRF output. Checkers drafted
// under this criterion are the no-show replacement pool: they are released
// incrementally, tranche by tranche, only as needed.
type RelayVRFDelay struct {
	ParaID approval.ParaID
}

var _ Criterion = RelayVRFDelay{}

func (RelayVRFDelay) Tag() uint8 { return 1 }

func (RelayVRFDelay) Validate() error { return nil }

func (c RelayVRFDelay) vrfInput(st Stories) (*merlin.Transcript, error) {
	t := merlin.NewTranscript(vrf.AppLabelInput)
	t.AppendMessage([]byte("RelayVRFDelay"), st.RelayVRF.Source[:])
	vrf.AppendUint64(t, "ParaId", uint64(c.ParaID))
	return t, nil
}

func (c RelayVRFDelay) derive(ctx *approval.ApprovalContext, output *ristretto255.Element) (approval.ParaID, approval.DelayTranche, error) {
	if !ctx.IsAllowedParaID(c.ParaID) {
		return 0, 0, fmt.Errorf("%w: %d", ErrParaIDNotAllowed, c.ParaID)
	}
	io := vrf.InOut{Output: output}
	return c.ParaID, approval.DelayTranche(io.TrancheIndex(ctx.NumDelayTranches)), nil
}
