// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"

	"github.com/luxfi/approval/tracker"
)

var (
	ErrZeroNoShowTimeout  = errors.New("NoShowTimeout must be > 0")
	ErrZeroTimeoutExtend  = errors.New("NoShowTimeoutExtension must be > 0")
	ErrNoCheckersTargeted = errors.New("at least one of RelayVRFCheckers/RelayEquivocationCheckers must be > 0")
)

// Validate checks the invariants every ApprovalTargets value must satisfy
// to be meaningful: both timeout fields must be positive (a zero timeout
// makes every drafted checker a no-show the instant it is assigned), and
// at least one checker-count target must be nonzero.
func Validate(t tracker.ApprovalTargets) error {
	if t.NoShowTimeout == 0 {
		return ErrZeroNoShowTimeout
	}
	if t.NoShowTimeoutExtension == 0 {
		return ErrZeroTimeoutExtend
	}
	if t.RelayVRFCheckers == 0 && t.RelayEquivocationCheckers == 0 {
		return ErrNoCheckersTargeted
	}
	return nil
}

func init() {
	for name, t := range map[string]tracker.ApprovalTargets{
		"Mainnet": MainnetTargets,
		"Testnet": TestnetTargets,
		"Local":   LocalTargets,
	} {
		if err := Validate(t); err != nil {
			panic(fmt.Sprintf("config: preset %s is invalid: %v", name, err))
		}
	}
}
