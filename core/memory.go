// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import "encoding/binary"

// Memory reads target memory.
//
// ReadAt never fails: bytes that cannot be read are returned as zero.
// A dump runs where nothing could be done about a read error anyway.
type Memory interface {
	ReadAt(p []byte, a Address)
}

// SliceMemory is target memory held in a byte slice starting at Base.
type SliceMemory struct {
	Base Address
	Data []byte
}

// NewSliceMemory returns a zeroed memory of size bytes at base.
func NewSliceMemory(base Address, size int) *SliceMemory {
	return &SliceMemory{Base: base, Data: make([]byte, size)}
}

func (m *SliceMemory) ReadAt(p []byte, a Address) {
	for i := range p {
		p[i] = 0
	}
	lo := uint64(a)
	hi := lo + uint64(len(p))
	mlo := uint64(m.Base)
	mhi := mlo + uint64(len(m.Data))
	if hi <= mlo || lo >= mhi {
		return
	}
	src, dst := lo, p
	if lo < mlo {
		dst = p[mlo-lo:]
		src = mlo
	}
	copy(dst, m.Data[src-mlo:])
}

// WriteAt copies p into the memory at a. Bytes outside the memory are dropped.
func (m *SliceMemory) WriteAt(p []byte, a Address) {
	for i, b := range p {
		off := uint64(a) + uint64(i) - uint64(m.Base)
		if uint64(a)+uint64(i) < uint64(m.Base) || off >= uint64(len(m.Data)) {
			continue
		}
		m.Data[off] = b
	}
}

// Uint32 reads a little-endian word at a.
func (m *SliceMemory) Uint32(a Address) uint32 {
	var b [4]byte
	m.ReadAt(b[:], a)
	return binary.LittleEndian.Uint32(b[:])
}

// PutUint32 writes a little-endian word at a.
func (m *SliceMemory) PutUint32(a Address, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	m.WriteAt(b[:], a)
}
