// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the exact gossip byte layout for AssignmentSigned
// records: a fixed layout, whose length depends only on the criterion tag,
// with no self-describing framing, since the layout itself is the wire
// contract. encoding/binary is used
// directly rather than a general-purpose serialization library, because
// that contract must be reproduced byte-for-byte by any reimplementation
// and a self-describing format (protobuf, etc.) cannot pin down a layout
// this precisely.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/criteria"
	"github.com/luxfi/approval/vrf"
)

var (
	ErrUnknownCriterionTag = errors.New("wire: unknown criterion tag")
	ErrTrailingBytes       = errors.New("wire: trailing bytes after record")
)

// contextSize, tagSize, payload sizes, keySize, proofSize and tail size are
// all fixed; Marshal/Unmarshal never vary the record length for a given
// criterion tag.
const (
	contextSize         = 8 + 8 + 32 + 32
	tagSize             = 1
	samplePayloadSize   = 2
	paraIDPayloadSize   = 4
	pubKeySize          = 32
	preOutSize          = 32
	proofSize           = 32 + 32
	receivedTrancheSize = 4
)

// Marshal encodes s into the gossip wire layout.
func Marshal(s *criteria.AssignmentSigned) ([]byte, error) {
	var buf bytes.Buffer

	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], uint64(s.Context.RelaySlot))
	buf.Write(u64[:])
	binary.LittleEndian.PutUint64(u64[:], uint64(s.Context.Epoch))
	buf.Write(u64[:])
	buf.Write(s.Context.BlockHash[:])
	buf.Write(s.Context.BlockProducer[:])

	buf.WriteByte(s.Criterion.Tag())

	switch c := s.Criterion.(type) {
	case criteria.RelayVRFModulo:
		var u16 [2]byte
		binary.LittleEndian.PutUint16(u16[:], c.Sample)
		buf.Write(u16[:])
	case criteria.RelayVRFDelay:
		var u32 [4]byte
		binary.LittleEndian.PutUint32(u32[:], uint32(c.ParaID))
		buf.Write(u32[:])
	case criteria.RelayEquivocation:
		var u32 [4]byte
		binary.LittleEndian.PutUint32(u32[:], uint32(c.ParaID))
		buf.Write(u32[:])
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCriterionTag, s.Criterion)
	}

	buf.Write(s.CheckerPubKey[:])
	buf.Write(s.VRFPreOut[:])
	buf.Write(s.VRFProof.C[:])
	buf.Write(s.VRFProof.S[:])

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], s.ReceivedTranche)
	buf.Write(u32[:])

	return buf.Bytes(), nil
}

// Unmarshal decodes a record produced by Marshal. The criterion payload's
// length is determined entirely by the tag byte, so there is no ambiguity
// to resolve before the rest of the fixed-size tail can be read.
func Unmarshal(data []byte) (*criteria.AssignmentSigned, error) {
	r := bytes.NewReader(data)

	var s criteria.AssignmentSigned

	var slot, epoch uint64
	if err := binary.Read(r, binary.LittleEndian, &slot); err != nil {
		return nil, fmt.Errorf("wire: reading slot: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &epoch); err != nil {
		return nil, fmt.Errorf("wire: reading epoch: %w", err)
	}
	s.Context.RelaySlot = approval.RelaySlot(slot)
	s.Context.Epoch = approval.Epoch(epoch)

	if _, err := io.ReadFull(r, s.Context.BlockHash[:]); err != nil {
		return nil, fmt.Errorf("wire: reading block hash: %w", err)
	}
	if _, err := io.ReadFull(r, s.Context.BlockProducer[:]); err != nil {
		return nil, fmt.Errorf("wire: reading block producer: %w", err)
	}

	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("wire: reading criterion tag: %w", err)
	}

	switch tag {
	case 0:
		var sample uint16
		if err := binary.Read(r, binary.LittleEndian, &sample); err != nil {
			return nil, fmt.Errorf("wire: reading sample: %w", err)
		}
		s.Criterion = criteria.RelayVRFModulo{Sample: sample}
	case 1:
		var paraID uint32
		if err := binary.Read(r, binary.LittleEndian, &paraID); err != nil {
			return nil, fmt.Errorf("wire: reading paraid: %w", err)
		}
		s.Criterion = criteria.RelayVRFDelay{ParaID: approval.ParaID(paraID)}
	case 2:
		var paraID uint32
		if err := binary.Read(r, binary.LittleEndian, &paraID); err != nil {
			return nil, fmt.Errorf("wire: reading paraid: %w", err)
		}
		s.Criterion = criteria.RelayEquivocation{ParaID: approval.ParaID(paraID)}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCriterionTag, tag)
	}

	if _, err := io.ReadFull(r, s.CheckerPubKey[:]); err != nil {
		return nil, fmt.Errorf("wire: reading checker pubkey: %w", err)
	}
	if _, err := io.ReadFull(r, s.VRFPreOut[:]); err != nil {
		return nil, fmt.Errorf("wire: reading vrf pre-output: %w", err)
	}
	var proof vrf.Proof
	if _, err := io.ReadFull(r, proof.C[:]); err != nil {
		return nil, fmt.Errorf("wire: reading vrf proof challenge: %w", err)
	}
	if _, err := io.ReadFull(r, proof.S[:]); err != nil {
		return nil, fmt.Errorf("wire: reading vrf proof response: %w", err)
	}
	s.VRFProof = proof

	if err := binary.Read(r, binary.LittleEndian, &s.ReceivedTranche); err != nil {
		return nil, fmt.Errorf("wire: reading received_tranche: %w", err)
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d extra bytes", ErrTrailingBytes, r.Len())
	}

	return &s, nil
}
