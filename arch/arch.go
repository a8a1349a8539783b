// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arch contains architecture-specific definitions: the target
// description written into core file headers, the register sets carried
// by thread notes, and the code that recovers them from saved frames.
package arch

import (
	"debug/elf"
	"encoding/binary"
)

// Architecture defines the architecture-specific details for a given machine.
type Architecture struct {
	Name string
	// Machine is the ELF e_machine value.
	Machine elf.Machine
	// Flags is the ELF e_flags value.
	Flags uint32
	// PointerSize is the size of a pointer, in bytes.
	PointerSize int
	// ByteOrder is the byte order for ints and pointers.
	ByteOrder binary.ByteOrder
}

// EABI version 5, the only one current toolchains emit.
const efARMEABIVer5 = 0x05000000

// ARMv7M describes Cortex-M3/M4/M7 targets.
var ARMv7M = Architecture{
	Name:        "armv7m",
	Machine:     elf.EM_ARM,
	Flags:       efARMEABIVer5,
	PointerSize: 4,
	ByteOrder:   binary.LittleEndian,
}
