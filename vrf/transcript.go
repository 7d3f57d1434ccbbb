// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vrf

import (
	"encoding/binary"

	"github.com/gtank/merlin"
)

// AppLabelInput and AppLabelSignature are the two Merlin application
// labels the wire format designates "Approval Assignment VRF" and
// "Approval Assignment Signature". They are wire-compatibility critical
// and must be reproduced byte-exactly by any reimplementation.
const (
	AppLabelInput     = "Approval Assignment VRF"
	AppLabelSignature = "Approval Assignment Signature"
)

// AppendUint64 appends v as 8 little-endian bytes under label.
func AppendUint64(t *merlin.Transcript, label string, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	t.AppendMessage([]byte(label), buf[:])
}

// AppendBytes appends msg verbatim under label.
func AppendBytes(t *merlin.Transcript, label string, msg []byte) {
	t.AppendMessage([]byte(label), msg)
}
