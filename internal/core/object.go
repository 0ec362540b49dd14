// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"encoding/binary"
	"fmt"
)

// objMagic is the 4-byte object magic, "OBFS" read as a little-endian u32.
const objMagic uint32 = 0x5346424f

// objVersion is the only on-wire object version this package understands.
const objVersion uint32 = 1

// ObjType distinguishes a data object (metadata records + file-data
// blob) from a metadata-checkpoint object (§ checkpoint sketch). Only
// ObjTypeData is ever produced or consumed by the hard core; ObjTypeCheckpoint
// exists for the unwired checkpoint extension point.
type ObjType uint32

const (
	ObjTypeData       ObjType = 1
	ObjTypeCheckpoint ObjType = 2
)

// objHeaderLen is the fixed size, in bytes, of an object header.
const objHeaderLen = 20

// ObjHeader is the fixed-size prefix of every object.
type ObjHeader struct {
	Magic      uint32
	Version    uint32
	Type       ObjType
	HdrLen     uint32 // bytes from object start to the start of file data
	ThisIndex  uint32 // this object's numeric index
}

// EncodeObjHeader serializes h to its bit-exact 20-byte on-wire form.
func EncodeObjHeader(h ObjHeader) []byte {
	buf := make([]byte, objHeaderLen)
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Version)
	binary.LittleEndian.PutUint32(buf[8:], uint32(h.Type))
	binary.LittleEndian.PutUint32(buf[12:], h.HdrLen)
	binary.LittleEndian.PutUint32(buf[16:], h.ThisIndex)
	return buf
}

// DecodeObjHeader parses and validates the 20-byte object header in buf.
// It fails with a bad-format error if the magic or version mismatch, or
// the type is not a recognized data/checkpoint object.
func DecodeObjHeader(buf []byte) (ObjHeader, error) {
	if len(buf) < objHeaderLen {
		return ObjHeader{}, fmt.Errorf("object header truncated: %d bytes", len(buf))
	}
	h := ObjHeader{
		Magic:     binary.LittleEndian.Uint32(buf[0:]),
		Version:   binary.LittleEndian.Uint32(buf[4:]),
		Type:      ObjType(binary.LittleEndian.Uint32(buf[8:])),
		HdrLen:    binary.LittleEndian.Uint32(buf[12:]),
		ThisIndex: binary.LittleEndian.Uint32(buf[16:]),
	}
	if h.Magic != objMagic {
		return ObjHeader{}, fmt.Errorf("bad object magic: %#x", h.Magic)
	}
	if h.Version != objVersion {
		return ObjHeader{}, fmt.Errorf("unsupported object version: %d", h.Version)
	}
	if h.Type != ObjTypeData && h.Type != ObjTypeCheckpoint {
		return ObjHeader{}, fmt.Errorf("unknown object type: %d", h.Type)
	}
	if h.HdrLen < objHeaderLen {
		return ObjHeader{}, fmt.Errorf("hdr_len %d smaller than header itself", h.HdrLen)
	}
	return h, nil
}

// ObjectKey derives the store key for a data object with the given
// numeric index under prefix, as "{prefix}.{index:08x}".
func ObjectKey(prefix string, index uint32) string {
	return fmt.Sprintf("%s.%08x", prefix, index)
}
