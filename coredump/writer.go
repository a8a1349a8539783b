// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coredump

import (
	"debug/elf"

	"github.com/flyghost/OneOS-V2.1.0-sub001/arch"
	"github.com/flyghost/OneOS-V2.1.0-sub001/core"
)

// ELF32 layout.
const (
	ehdrSize = 52
	phdrSize = 32
	shdrSize = 40
	nhdrSize = 12
)

// Notes. Owner names are NUL terminated and padded to 4 bytes.
const (
	prstatusOwner = "CORE"
	vfpOwner      = "LINUX"

	// ntARMVFP is NT_ARM_VFP, the user_vfp register set.
	ntARMVFP elf.NType = 0x400

	// Size of the ARM struct elf_prstatus.
	prstatusSize = 148
	// Offsets inside elf_prstatus.
	prPid     = 24
	prReg     = 72
	prFPValid = prReg + arch.NumGregs*4

	// Size of struct user_vfp: 32 doubles and fpscr. Cortex-M only has
	// d0-d15; the rest stays zero.
	vfpSize  = 32*8 + 4
	vfpFPSCR = 32 * 8

	prstatusNoteSize = nhdrSize + (len(prstatusOwner)+1+3)/4*4 + prstatusSize
	vfpNoteSize      = nhdrSize + (len(vfpOwner)+1+3)/4*4 + vfpSize
)

// scratchSize bounds the largest single piece emitted at once. Memory is
// streamed through the same buffer in chunks of this size.
const scratchSize = 512

func (s *Session) noteSize() uint32 {
	n := uint32(prstatusNoteSize)
	if s.fp {
		n += uint32(vfpNoteSize)
	}
	return n
}

// Size returns the number of bytes Generate will emit for p under the
// current configuration. It does not call the sink.
func (s *Session) Size(p Provider) uint32 {
	s.check()
	nareas := p.AreaCount()
	size := uint32(ehdrSize + phdrSize*(nareas+1))
	size += uint32(p.ThreadCount()) * s.noteSize()
	for i := 0; i < nareas; i++ {
		size += p.Area(i).Aligned().Len
	}
	return size
}

// Generate writes the core file for p to the sink: the ELF header, one
// PT_NOTE program header covering all thread notes, one PT_LOAD program
// header per memory area, the notes, then the contents of every area.
// The current thread's notes come first so debuggers select it.
func (s *Session) Generate(p Provider) {
	s.check()
	s.off = 0
	s.pid = 0
	nthreads := p.ThreadCount()
	nareas := p.AreaCount()

	s.emitEhdr(nareas + 1)

	off := uint32(ehdrSize + phdrSize*(nareas+1))
	notes := uint32(nthreads) * s.noteSize()
	s.emitPhdr(elf.PT_NOTE, off, 0, notes, 0)
	off += notes
	for i := 0; i < nareas; i++ {
		a := p.Area(i).Aligned()
		s.emitPhdr(elf.PT_LOAD, off, a.Addr, a.Len, (core.Read | core.Write).ProgFlags())
		off += a.Len
	}

	cur := p.CurrentThread()
	s.emitThread(p, cur)
	for i := 0; i < nthreads; i++ {
		if i != cur {
			s.emitThread(p, i)
		}
	}

	mem := p.Memory()
	for i := 0; i < nareas; i++ {
		s.emitArea(mem, p.Area(i).Aligned())
	}
}

func (s *Session) emit(b []byte) {
	s.off += uint32(len(b))
	if s.sink != nil {
		s.sink(b)
	}
}

func (s *Session) scratch(n int) []byte {
	b := s.buf[:n]
	for i := range b {
		b[i] = 0
	}
	return b
}

func (s *Session) emitEhdr(phnum int) {
	a := &arch.ARMv7M
	b := s.scratch(ehdrSize)
	copy(b, elf.ELFMAG)
	b[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	b[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	b[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	b[elf.EI_OSABI] = byte(elf.ELFOSABI_NONE)
	bo := a.ByteOrder
	bo.PutUint16(b[16:], uint16(elf.ET_CORE))
	bo.PutUint16(b[18:], uint16(a.Machine))
	bo.PutUint32(b[20:], uint32(elf.EV_CURRENT))
	bo.PutUint32(b[24:], 0) // entry
	bo.PutUint32(b[28:], ehdrSize)
	bo.PutUint32(b[32:], 0) // no section headers
	bo.PutUint32(b[36:], a.Flags)
	bo.PutUint16(b[40:], ehdrSize)
	bo.PutUint16(b[42:], phdrSize)
	bo.PutUint16(b[44:], uint16(phnum))
	bo.PutUint16(b[46:], shdrSize)
	bo.PutUint16(b[48:], 0)
	bo.PutUint16(b[50:], 0)
	s.emit(b)
}

func (s *Session) emitPhdr(typ elf.ProgType, off uint32, vaddr core.Address, size uint32, flags elf.ProgFlag) {
	bo := arch.ARMv7M.ByteOrder
	b := s.scratch(phdrSize)
	bo.PutUint32(b[0:], uint32(typ))
	bo.PutUint32(b[4:], off)
	bo.PutUint32(b[8:], uint32(vaddr))
	bo.PutUint32(b[12:], uint32(vaddr))
	bo.PutUint32(b[16:], size)
	bo.PutUint32(b[20:], size)
	bo.PutUint32(b[24:], uint32(flags))
	if typ == elf.PT_NOTE {
		bo.PutUint32(b[28:], 4)
	} else {
		bo.PutUint32(b[28:], 1)
	}
	s.emit(b)
}

// note starts a note in scratch space and returns the descriptor.
func (s *Session) note(owner string, typ elf.NType, descsz, total int) ([]byte, []byte) {
	bo := arch.ARMv7M.ByteOrder
	b := s.scratch(total)
	bo.PutUint32(b[0:], uint32(len(owner)+1))
	bo.PutUint32(b[4:], uint32(descsz))
	bo.PutUint32(b[8:], uint32(typ))
	copy(b[nhdrSize:], owner)
	return b, b[total-descsz:]
}

func (s *Session) emitThread(p Provider, i int) {
	regs, fp := p.Registers(i)
	bo := arch.ARMv7M.ByteOrder

	s.pid++
	b, desc := s.note(prstatusOwner, elf.NT_PRSTATUS, prstatusSize, prstatusNoteSize)
	bo.PutUint32(desc[prPid:], s.pid)
	g := regs.Gregs()
	for j, v := range g {
		bo.PutUint32(desc[prReg+4*j:], v)
	}
	// A thread that never used the FPU saved no FP context; its VFP note
	// is all zero and pr_fpvalid stays 0.
	hasFP := fp != nil && *fp != (arch.FPRegs{})
	if s.fp && hasFP {
		bo.PutUint32(desc[prFPValid:], 1)
	}
	s.emit(b)

	if !s.fp {
		return
	}
	b, desc = s.note(vfpOwner, ntARMVFP, vfpSize, vfpNoteSize)
	if fp != nil {
		for j, d := range fp.D {
			bo.PutUint64(desc[8*j:], d)
		}
		bo.PutUint32(desc[vfpFPSCR:], fp.FPSCR)
	}
	s.emit(b)
}

func (s *Session) emitArea(mem core.Memory, a core.Area) {
	addr := a.Addr
	for n := a.Len; n > 0; {
		k := n
		if k > scratchSize {
			k = scratchSize
		}
		b := s.buf[:k]
		mem.ReadAt(b, addr)
		s.emit(b)
		addr += core.Address(k)
		n -= k
	}
}
