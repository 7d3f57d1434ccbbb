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

// RelayVRFModulo drafts a checker for whichever paraid its VRF output
// reduces to, modulo the number of allowed paraids. Its delay tranche is
// always 0: there is no waiting period for this criterion, by design.
//
// Only Sample == 0 is implemented; the rejection-sampling merge scheme for
// additional samples has no fixed definition yet, so higher samples are
// rejected outright rather than guessed at.
type RelayVRFModulo struct {
	Sample uint16
}

var _ Criterion = RelayVRFModulo{}

func (RelayVRFModulo) Tag() uint8 { return 0 }

func (c RelayVRFModulo) Validate() error {
	if c.Sample != 0 {
		return ErrUnsupportedSample
	}
	return nil
}

func (c RelayVRFModulo) vrfInput(st Stories) (*merlin.Transcript, error) {
	t := merlin.NewTranscript(vrf.AppLabelInput)
	t.AppendMessage([]byte("RelayVRFModulo"), st.RelayVRF.Source[:])
	return t, nil
}

func (c RelayVRFModulo) derive(ctx *approval.ApprovalContext, output *ristretto255.Element) (approval.ParaID, approval.DelayTranche, error) {
	if len(ctx.AllowedParaIDs) == 0 {
		return 0, 0, fmt.Errorf("%w: empty allowed_paraids", ErrParaIDNotAllowed)
	}
	io := vrf.InOut{Output: output}
	idx := io.ParaIDIndex(len(ctx.AllowedParaIDs))
	return ctx.ParaIDAtIndex(idx), 0, nil
}
