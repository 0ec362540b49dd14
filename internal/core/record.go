// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"encoding/binary"
	"fmt"
)

// RecordType identifies one of the eight log-record kinds. Values match
// the on-wire 4-bit type field exactly; do not renumber.
type RecordType uint8

const (
	RecordInode RecordType = 1
	RecordTrunc RecordType = 2
	RecordDelete RecordType = 3
	RecordSymlink RecordType = 4
	RecordRename RecordType = 5
	RecordData RecordType = 6
	RecordCreate RecordType = 7
	RecordNull RecordType = 8
)

func (t RecordType) String() string {
	switch t {
	case RecordInode:
		return "INODE"
	case RecordTrunc:
		return "TRUNC"
	case RecordDelete:
		return "DELETE"
	case RecordSymlink:
		return "SYMLNK"
	case RecordRename:
		return "RENAME"
	case RecordData:
		return "DATA"
	case RecordCreate:
		return "CREATE"
	case RecordNull:
		return "NULL"
	default:
		return fmt.Sprintf("RecordType(%d)", uint8(t))
	}
}

// recordHeaderLen is the size of the 2-byte type/len prefix on every record.
const recordHeaderLen = 2

// maxRecordLen is the largest payload length the 12-bit len field can carry.
const maxRecordLen = 1<<12 - 1

// InodeRecord is the LOG_INODE payload.
type InodeRecord struct {
	Inum        uint32
	Mode        uint32
	UID, GID    uint32
	Rdev        uint32
	MtimeSec    int64
	MtimeNsec   int32
}

// TruncRecord is the LOG_TRUNC payload.
type TruncRecord struct {
	Inum    uint32
	NewSize int64
}

// DeleteRecord is the LOG_DELETE payload.
type DeleteRecord struct {
	Parent uint32
	Inum   uint32
	Name   string
}

// SymlinkRecord is the LOG_SYMLNK payload.
type SymlinkRecord struct {
	Inum   uint32
	Target string
}

// RenameRecord is the LOG_RENAME payload.
type RenameRecord struct {
	Inum     uint32
	Parent1  uint32
	Parent2  uint32
	Name1    string
	Name2    string
}

// DataRecord is the LOG_DATA payload. Len is the byte count of the
// associated file-data payload that immediately follows in the data
// buffer/blob; it is not the payload of this record itself.
type DataRecord struct {
	Inum       uint32
	ObjOffset  uint32
	FileOffset int64
	Size       int64
	Len        uint32
}

// CreateRecord is the LOG_CREATE payload.
type CreateRecord struct {
	ParentInum uint32
	Inum       uint32
	Name       string
}

// encodeHeader appends the 2-byte type/len prefix to dst.
func encodeHeader(dst []byte, t RecordType, payloadLen int) []byte {
	if payloadLen > maxRecordLen {
		panic(fmt.Sprintf("core: record payload %d exceeds %d-byte limit", payloadLen, maxRecordLen))
	}
	word := uint16(t)&0xF | uint16(payloadLen)<<4
	return binary.LittleEndian.AppendUint16(dst, word)
}

// decodeHeader reads the 2-byte type/len prefix from the front of buf.
func decodeHeader(buf []byte) (t RecordType, payloadLen int, err error) {
	if len(buf) < recordHeaderLen {
		return 0, 0, fmt.Errorf("record header truncated: %d bytes available", len(buf))
	}
	word := binary.LittleEndian.Uint16(buf)
	return RecordType(word & 0xF), int(word >> 4), nil
}

// EncodeInode appends a LOG_INODE record to dst and returns the result.
func EncodeInode(dst []byte, r InodeRecord) []byte {
	payload := make([]byte, 4+4+4+4+4+8+4)
	binary.LittleEndian.PutUint32(payload[0:], r.Inum)
	binary.LittleEndian.PutUint32(payload[4:], r.Mode)
	binary.LittleEndian.PutUint32(payload[8:], r.UID)
	binary.LittleEndian.PutUint32(payload[12:], r.GID)
	binary.LittleEndian.PutUint32(payload[16:], r.Rdev)
	binary.LittleEndian.PutUint64(payload[20:], uint64(r.MtimeSec))
	binary.LittleEndian.PutUint32(payload[28:], uint32(r.MtimeNsec))
	dst = encodeHeader(dst, RecordInode, len(payload))
	return append(dst, payload...)
}

// DecodeInode decodes a LOG_INODE payload (without the 2-byte header).
func DecodeInode(payload []byte) (InodeRecord, error) {
	if len(payload) != 32 {
		return InodeRecord{}, fmt.Errorf("LOG_INODE payload: want 32 bytes, got %d", len(payload))
	}
	return InodeRecord{
		Inum:      binary.LittleEndian.Uint32(payload[0:]),
		Mode:      binary.LittleEndian.Uint32(payload[4:]),
		UID:       binary.LittleEndian.Uint32(payload[8:]),
		GID:       binary.LittleEndian.Uint32(payload[12:]),
		Rdev:      binary.LittleEndian.Uint32(payload[16:]),
		MtimeSec:  int64(binary.LittleEndian.Uint64(payload[20:])),
		MtimeNsec: int32(binary.LittleEndian.Uint32(payload[28:])),
	}, nil
}

// EncodeTrunc appends a LOG_TRUNC record to dst.
func EncodeTrunc(dst []byte, r TruncRecord) []byte {
	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:], r.Inum)
	binary.LittleEndian.PutUint64(payload[4:], uint64(r.NewSize))
	dst = encodeHeader(dst, RecordTrunc, len(payload))
	return append(dst, payload...)
}

// DecodeTrunc decodes a LOG_TRUNC payload.
func DecodeTrunc(payload []byte) (TruncRecord, error) {
	if len(payload) != 12 {
		return TruncRecord{}, fmt.Errorf("LOG_TRUNC payload: want 12 bytes, got %d", len(payload))
	}
	return TruncRecord{
		Inum:    binary.LittleEndian.Uint32(payload[0:]),
		NewSize: int64(binary.LittleEndian.Uint64(payload[4:])),
	}, nil
}

// EncodeDelete appends a LOG_DELETE record to dst.
func EncodeDelete(dst []byte, r DeleteRecord) []byte {
	name := []byte(r.Name)
	payload := make([]byte, 9+len(name))
	binary.LittleEndian.PutUint32(payload[0:], r.Parent)
	binary.LittleEndian.PutUint32(payload[4:], r.Inum)
	payload[8] = byte(len(name))
	copy(payload[9:], name)
	dst = encodeHeader(dst, RecordDelete, len(payload))
	return append(dst, payload...)
}

// DecodeDelete decodes a LOG_DELETE payload.
func DecodeDelete(payload []byte) (DeleteRecord, error) {
	if len(payload) < 9 {
		return DeleteRecord{}, fmt.Errorf("LOG_DELETE payload truncated: %d bytes", len(payload))
	}
	nameLen := int(payload[8])
	if len(payload) != 9+nameLen {
		return DeleteRecord{}, fmt.Errorf("LOG_DELETE payload: want %d bytes, got %d", 9+nameLen, len(payload))
	}
	return DeleteRecord{
		Parent: binary.LittleEndian.Uint32(payload[0:]),
		Inum:   binary.LittleEndian.Uint32(payload[4:]),
		Name:   string(payload[9 : 9+nameLen]),
	}, nil
}

// EncodeSymlink appends a LOG_SYMLNK record to dst.
func EncodeSymlink(dst []byte, r SymlinkRecord) []byte {
	target := []byte(r.Target)
	payload := make([]byte, 5+len(target))
	binary.LittleEndian.PutUint32(payload[0:], r.Inum)
	payload[4] = byte(len(target))
	copy(payload[5:], target)
	dst = encodeHeader(dst, RecordSymlink, len(payload))
	return append(dst, payload...)
}

// DecodeSymlink decodes a LOG_SYMLNK payload.
func DecodeSymlink(payload []byte) (SymlinkRecord, error) {
	if len(payload) < 5 {
		return SymlinkRecord{}, fmt.Errorf("LOG_SYMLNK payload truncated: %d bytes", len(payload))
	}
	targetLen := int(payload[4])
	if len(payload) != 5+targetLen {
		return SymlinkRecord{}, fmt.Errorf("LOG_SYMLNK payload: want %d bytes, got %d", 5+targetLen, len(payload))
	}
	return SymlinkRecord{
		Inum:   binary.LittleEndian.Uint32(payload[0:]),
		Target: string(payload[5 : 5+targetLen]),
	}, nil
}

// EncodeRename appends a LOG_RENAME record to dst.
func EncodeRename(dst []byte, r RenameRecord) []byte {
	name1 := []byte(r.Name1)
	name2 := []byte(r.Name2)
	payload := make([]byte, 14+len(name1)+len(name2))
	binary.LittleEndian.PutUint32(payload[0:], r.Inum)
	binary.LittleEndian.PutUint32(payload[4:], r.Parent1)
	binary.LittleEndian.PutUint32(payload[8:], r.Parent2)
	payload[12] = byte(len(name1))
	payload[13] = byte(len(name2))
	copy(payload[14:], name1)
	copy(payload[14+len(name1):], name2)
	dst = encodeHeader(dst, RecordRename, len(payload))
	return append(dst, payload...)
}

// DecodeRename decodes a LOG_RENAME payload.
func DecodeRename(payload []byte) (RenameRecord, error) {
	if len(payload) < 14 {
		return RenameRecord{}, fmt.Errorf("LOG_RENAME payload truncated: %d bytes", len(payload))
	}
	n1 := int(payload[12])
	n2 := int(payload[13])
	if len(payload) != 14+n1+n2 {
		return RenameRecord{}, fmt.Errorf("LOG_RENAME payload: want %d bytes, got %d", 14+n1+n2, len(payload))
	}
	return RenameRecord{
		Inum:    binary.LittleEndian.Uint32(payload[0:]),
		Parent1: binary.LittleEndian.Uint32(payload[4:]),
		Parent2: binary.LittleEndian.Uint32(payload[8:]),
		Name1:   string(payload[14 : 14+n1]),
		Name2:   string(payload[14+n1 : 14+n1+n2]),
	}, nil
}

// EncodeData appends a LOG_DATA record to dst.
func EncodeData(dst []byte, r DataRecord) []byte {
	payload := make([]byte, 4+4+8+8+4)
	binary.LittleEndian.PutUint32(payload[0:], r.Inum)
	binary.LittleEndian.PutUint32(payload[4:], r.ObjOffset)
	binary.LittleEndian.PutUint64(payload[8:], uint64(r.FileOffset))
	binary.LittleEndian.PutUint64(payload[16:], uint64(r.Size))
	binary.LittleEndian.PutUint32(payload[24:], r.Len)
	dst = encodeHeader(dst, RecordData, len(payload))
	return append(dst, payload...)
}

// DecodeData decodes a LOG_DATA payload.
func DecodeData(payload []byte) (DataRecord, error) {
	if len(payload) != 28 {
		return DataRecord{}, fmt.Errorf("LOG_DATA payload: want 28 bytes, got %d", len(payload))
	}
	return DataRecord{
		Inum:       binary.LittleEndian.Uint32(payload[0:]),
		ObjOffset:  binary.LittleEndian.Uint32(payload[4:]),
		FileOffset: int64(binary.LittleEndian.Uint64(payload[8:])),
		Size:       int64(binary.LittleEndian.Uint64(payload[16:])),
		Len:        binary.LittleEndian.Uint32(payload[24:]),
	}, nil
}

// EncodeCreate appends a LOG_CREATE record to dst.
func EncodeCreate(dst []byte, r CreateRecord) []byte {
	name := []byte(r.Name)
	payload := make([]byte, 9+len(name))
	binary.LittleEndian.PutUint32(payload[0:], r.ParentInum)
	binary.LittleEndian.PutUint32(payload[4:], r.Inum)
	payload[8] = byte(len(name))
	copy(payload[9:], name)
	dst = encodeHeader(dst, RecordCreate, len(payload))
	return append(dst, payload...)
}

// DecodeCreate decodes a LOG_CREATE payload.
func DecodeCreate(payload []byte) (CreateRecord, error) {
	if len(payload) < 9 {
		return CreateRecord{}, fmt.Errorf("LOG_CREATE payload truncated: %d bytes", len(payload))
	}
	nameLen := int(payload[8])
	if len(payload) != 9+nameLen {
		return CreateRecord{}, fmt.Errorf("LOG_CREATE payload: want %d bytes, got %d", 9+nameLen, len(payload))
	}
	return CreateRecord{
		ParentInum: binary.LittleEndian.Uint32(payload[0:]),
		Inum:       binary.LittleEndian.Uint32(payload[4:]),
		Name:       string(payload[9 : 9+nameLen]),
	}, nil
}

// EncodeNull appends a zero-length LOG_NULL record to dst, used as
// alignment padding.
func EncodeNull(dst []byte) []byte {
	return encodeHeader(dst, RecordNull, 0)
}

// RawRecord is one decoded record as produced by ScanRecords: its type
// and its payload bytes (header stripped, not yet type-decoded).
type RawRecord struct {
	Type    RecordType
	Payload []byte
}

// ScanRecords walks buf, which must contain zero or more back-to-back
// records as produced by the Encode* functions, and returns them in
// order. It fails with a bad-format error if a record's length would
// read past the end of buf or its type is outside the known enum.
func ScanRecords(buf []byte) ([]RawRecord, error) {
	var records []RawRecord
	for len(buf) > 0 {
		t, payloadLen, err := decodeHeader(buf)
		if err != nil {
			return nil, wrapErr(KindIO, "scan-records", "", err)
		}
		if t < RecordInode || t > RecordNull {
			return nil, newErr(KindIO, "scan-records", fmt.Sprintf("unknown record type %d", t))
		}
		buf = buf[recordHeaderLen:]
		if payloadLen > len(buf) {
			return nil, newErr(KindIO, "scan-records", "record length exceeds remaining buffer")
		}
		records = append(records, RawRecord{Type: t, Payload: buf[:payloadLen:payloadLen]})
		buf = buf[payloadLen:]
	}
	return records, nil
}
