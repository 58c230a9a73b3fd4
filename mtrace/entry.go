// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package mtrace reads and writes mtrace memory-access trace logs.
//
// # Record format
//
// A log is a sequence of little-endian records, optionally compressed as a
// whole with gzip or zstd. Every record starts with a 16 byte header:
//
// >>> kind: u8
// >>> reserved: u8
// >>> cpu: u16
// >>> size: u32              # whole record, header included
// >>> access_count: u64
//
// followed by a kind specific payload:
//
// >>> label:  label_type u8, pad [7], guest_addr u64, host_addr u64, bytes u64, str [64]
// >>> access: access_type u8, pad [7], pc u64, guest_addr u64, bytes u64
// >>> lock:   release u8, read u8, pad [6], pc u64, lock u64, str [64]
//
// Records of other kinds are skipped using their size. Strings are NUL
// terminated unless they fill the whole field.
package mtrace // import "github.com/mtrace-tools/lockinfer/mtrace"

import (
	"fmt"

	"github.com/mtrace-tools/lockinfer/libpf"
)

// Kind is the type tag of a record.
type Kind uint8

const (
	KindLabel  Kind = 1
	KindAccess Kind = 2
	KindLock   Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindLabel:
		return "label"
	case KindAccess:
		return "access"
	case KindLock:
		return "lock"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

const (
	headerSize = 16
	strSize    = 64

	labelPayloadSize  = 8 + 8 + 8 + 8 + strSize
	accessPayloadSize = 8 + 8 + 8 + 8
	lockPayloadSize   = 8 + 8 + 8 + strSize

	// maxRecordSize bounds the size field to catch corrupt logs early.
	maxRecordSize = 1 << 20
)

// Header is the common part of all records.
type Header struct {
	Kind        Kind
	CPU         uint16
	AccessCount uint64
}

// LabelEntry creates (Bytes > 0) or destroys (Bytes == 0) a label.
type LabelEntry struct {
	LabelType uint8
	GuestAddr libpf.Address
	HostAddr  uint64
	Bytes     uint64
	Str       string
}

// AccessEntry is a memory access.
type AccessEntry struct {
	AccessType uint8
	PC         libpf.Address
	GuestAddr  libpf.Address
	Bytes      uint64
}

// LockEntry is a lock acquisition or release.
type LockEntry struct {
	Release bool
	Read    bool
	PC      libpf.Address
	Lock    libpf.Address
	Str     string
}

// Entry is a decoded record. Only the member matching Header.Kind is valid.
// Records of unknown kinds carry their raw payload in Raw.
type Entry struct {
	Header
	Label  LabelEntry
	Access AccessEntry
	Lock   LockEntry
	Raw    []byte
}

func (e *Entry) String() string {
	switch e.Kind {
	case KindLabel:
		l := &e.Label
		return fmt.Sprintf("label  [%-3d type %d  %#x  %d bytes  %s]",
			e.CPU, l.LabelType, uint64(l.GuestAddr), l.Bytes, l.Str)
	case KindAccess:
		a := &e.Access
		return fmt.Sprintf("access [%-3d pc %16x  addr %16x  %d bytes]",
			e.CPU, uint64(a.PC), uint64(a.GuestAddr), a.Bytes)
	case KindLock:
		l := &e.Lock
		op := "aw"
		switch {
		case l.Release:
			op = "r"
		case l.Read:
			op = "ar"
		}
		return fmt.Sprintf("%-3s [%-3d  pc %16x  lock %16x  %s]",
			op, e.CPU, uint64(l.PC), uint64(l.Lock), l.Str)
	default:
		return fmt.Sprintf("%s [%-3d %d bytes]", e.Kind, e.CPU, len(e.Raw))
	}
}

// NewLabel returns a label record. A zero size destroys the label at addr.
func NewLabel(labelType uint8, addr libpf.Address, size uint64, name string) Entry {
	return Entry{
		Header: Header{Kind: KindLabel},
		Label: LabelEntry{
			LabelType: labelType,
			GuestAddr: addr,
			Bytes:     size,
			Str:       name,
		},
	}
}

// NewAccess returns a one byte access record for addr.
func NewAccess(addr libpf.Address) Entry {
	return Entry{
		Header: Header{Kind: KindAccess},
		Access: AccessEntry{GuestAddr: addr, Bytes: 1},
	}
}

// NewLock returns an acquire or release record of the lock called name.
func NewLock(name string, release bool) Entry {
	return Entry{
		Header: Header{Kind: KindLock},
		Lock:   LockEntry{Release: release, Str: name},
	}
}
