// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package core describes the target memory that ends up in a core file:
// addresses in the target's 32-bit address space, the areas copied
// verbatim into PT_LOAD segments, and a reader for their contents.
package core

import (
	"debug/elf"
	"fmt"
	"strings"
)

// An Address is a location in the target's address space.
type Address uint32

// Sub subtracts b from a. Requires a >= b.
func (a Address) Sub(b Address) int64 {
	return int64(a - b)
}

// Add adds x to address a.
func (a Address) Add(x int64) Address {
	return a + Address(x)
}

// AlignDown rounds a down to a multiple of x.
// x must be a power of 2.
func (a Address) AlignDown(x uint32) Address {
	return a &^ Address(x-1)
}

// Align rounds a up to a multiple of x.
// x must be a power of 2.
func (a Address) Align(x uint32) Address {
	return (a + Address(x) - 1) &^ Address(x-1)
}

// LineSize is the alignment every area is widened to before it is dumped.
const LineSize = 64

// An Area is a contiguous range of target memory embedded in a dump.
type Area struct {
	Addr Address
	Len  uint32
}

// End returns the address of the byte just beyond the area.
func (a Area) End() Address {
	return a.Addr + Address(a.Len)
}

// Aligned returns a moved down to a LineSize boundary. The length grows by
// the same amount, so the result still covers all of a.
func (a Area) Aligned() Area {
	base := a.Addr.AlignDown(LineSize)
	return Area{Addr: base, Len: a.Len + uint32(a.Addr-base)}
}

// Covers reports whether a contains every byte of b.
func (a Area) Covers(b Area) bool {
	return a.Addr <= b.Addr && uint64(b.Addr)+uint64(b.Len) <= uint64(a.Addr)+uint64(a.Len)
}

func (a Area) String() string {
	return fmt.Sprintf("[%#08x %#08x)", uint32(a.Addr), uint64(a.Addr)+uint64(a.Len))
}

// A Perm represents the permissions of a dumped segment.
type Perm uint8

const (
	Read Perm = 1 << iota
	Write
	Exec
)

// ProgFlags returns the ELF program header flags for p.
func (p Perm) ProgFlags() elf.ProgFlag {
	var f elf.ProgFlag
	if p&Read != 0 {
		f |= elf.PF_R
	}
	if p&Write != 0 {
		f |= elf.PF_W
	}
	if p&Exec != 0 {
		f |= elf.PF_X
	}
	return f
}

// PermOf converts ELF program header flags to a Perm.
func PermOf(f elf.ProgFlag) Perm {
	var p Perm
	if f&elf.PF_R != 0 {
		p |= Read
	}
	if f&elf.PF_W != 0 {
		p |= Write
	}
	if f&elf.PF_X != 0 {
		p |= Exec
	}
	return p
}

func (p Perm) String() string {
	var a [3]string
	b := a[:0]
	if p&Read != 0 {
		b = append(b, "Read")
	}
	if p&Write != 0 {
		b = append(b, "Write")
	}
	if p&Exec != 0 {
		b = append(b, "Exec")
	}
	if len(b) == 0 {
		b = append(b, "None")
	}
	return strings.Join(b, "|")
}
