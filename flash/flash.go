// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flash provides raw NOR flash regions for the dump log: erased
// bytes read as 0xFF and programming can only clear bits.
package flash

import (
	"errors"
	"fmt"
)

// ErrRange is returned for a program operation outside the region.
var ErrRange = errors.New("flash: address out of range")

// A Device is an erased-before-write flash region mapped into the address
// space (execute-in-place), so its contents can be read directly.
type Device interface {
	// PageSize returns the program page size in bytes.
	PageSize() int
	// Base returns the address of the first byte of the region.
	Base() uint32
	// Size returns the size of the region in bytes.
	Size() uint32
	// Bytes returns the mapped contents of the region. Programming is
	// visible through the returned slice.
	Bytes() []byte
	// Program writes p at addr. It may span several pages.
	Program(addr uint32, p []byte) error
}

// Geometry is the shape of a flash region.
type Geometry struct {
	Base     uint32
	Size     uint32
	PageSize int
}

// Validate reports whether g describes a usable region.
func (g Geometry) Validate() error {
	if g.PageSize <= 0 || g.PageSize&(g.PageSize-1) != 0 {
		return fmt.Errorf("flash: page size %d is not a power of two", g.PageSize)
	}
	if g.Size == 0 || g.Size%uint32(g.PageSize) != 0 {
		return fmt.Errorf("flash: size %#x is not a multiple of page size %d", g.Size, g.PageSize)
	}
	if g.Base%uint32(g.PageSize) != 0 {
		return fmt.Errorf("flash: base %#x is not page aligned", g.Base)
	}
	if uint64(g.Base)+uint64(g.Size) > 1<<32 {
		return fmt.Errorf("flash: region %#x+%#x overflows the address space", g.Base, g.Size)
	}
	return nil
}

// program applies a NOR program operation to data, the contents of the
// region starting at base.
func program(data []byte, base, addr uint32, p []byte) error {
	if addr < base || uint64(addr-base)+uint64(len(p)) > uint64(len(data)) {
		return fmt.Errorf("%w: %#x+%#x", ErrRange, addr, len(p))
	}
	d := data[addr-base:]
	for i, b := range p {
		d[i] &= b
	}
	return nil
}

func erase(data []byte) {
	for i := range data {
		data[i] = 0xff
	}
}
