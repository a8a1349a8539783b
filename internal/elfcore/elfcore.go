// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elfcore checks the structure of core files produced by package
// coredump: header, segment layout and notes. It does not interpret the
// memory or symbolicate anything; that is left to a debugger.
package elfcore

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/flyghost/OneOS-V2.1.0-sub001/arch"
	"github.com/flyghost/OneOS-V2.1.0-sub001/core"
)

// ntARMVFP is NT_ARM_VFP.
const ntARMVFP elf.NType = 0x400

// A File summarizes a checked core file.
type File struct {
	Machine  elf.Machine
	Notes    []Note
	Threads  []*Thread
	Segments []*Segment
}

// A Note is one entry of the PT_NOTE segment, in file order.
type Note struct {
	Name string
	Type elf.NType
	Size int
}

// A Thread is what a PRSTATUS note and an optional VFP note describe.
type Thread struct {
	PID  uint32
	Regs [arch.NumGregs]uint32
	// FPValid is pr_fpvalid: the thread had floating-point context.
	FPValid bool
	FP      *arch.FPRegs
}

func (t *Thread) PC() uint32 { return t.Regs[15] }
func (t *Thread) SP() uint32 { return t.Regs[13] }

// A Segment is one PT_LOAD segment and its contents.
type Segment struct {
	Area core.Area
	Off  uint32
	Perm core.Perm
	Data []byte
}

// Check parses b as a core file and verifies that it is a 32-bit ARM core
// whose segments are laid out back to back and end exactly at len(b).
func Check(b []byte) (*File, error) {
	e, err := elf.NewFile(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if e.Type != elf.ET_CORE {
		return nil, fmt.Errorf("not a core file: type %s", e.Type)
	}
	if e.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("unexpected elf class %s", e.Class)
	}
	if e.Machine != elf.EM_ARM {
		return nil, fmt.Errorf("unknown arch %s", e.Machine)
	}
	if len(e.Progs) == 0 || e.Progs[0].Type != elf.PT_NOTE {
		return nil, fmt.Errorf("first program header is not PT_NOTE")
	}
	f := &File{Machine: e.Machine}

	next := e.Progs[0].Off
	for i, prog := range e.Progs {
		if prog.Off != next {
			return nil, fmt.Errorf("segment %d at offset %#x, want %#x", i, prog.Off, next)
		}
		if prog.Filesz != prog.Memsz {
			return nil, fmt.Errorf("segment %d: filesz %#x != memsz %#x", i, prog.Filesz, prog.Memsz)
		}
		next += prog.Filesz
		if next > uint64(len(b)) {
			return nil, fmt.Errorf("segment %d runs past end of file", i)
		}
		switch prog.Type {
		case elf.PT_NOTE:
			if i != 0 {
				return nil, fmt.Errorf("extra PT_NOTE at %d", i)
			}
			if err := f.readNotes(e.ByteOrder, b[prog.Off:next]); err != nil {
				return nil, err
			}
		case elf.PT_LOAD:
			f.Segments = append(f.Segments, &Segment{
				Area: core.Area{Addr: core.Address(prog.Vaddr), Len: uint32(prog.Filesz)},
				Off:  uint32(prog.Off),
				Perm: core.PermOf(prog.Flags),
				Data: b[prog.Off:next],
			})
		default:
			return nil, fmt.Errorf("unexpected segment type %s", prog.Type)
		}
	}
	if next != uint64(len(b)) {
		return nil, fmt.Errorf("file is %d bytes, segments end at %d", len(b), next)
	}
	return f, nil
}

func (f *File) readNotes(order binary.ByteOrder, b []byte) error {
	var last *Thread
	for len(b) > 0 {
		if len(b) < 12 {
			return fmt.Errorf("truncated note header")
		}
		namesz := order.Uint32(b)
		b = b[4:]
		descsz := order.Uint32(b)
		b = b[4:]
		typ := elf.NType(order.Uint32(b))
		b = b[4:]
		if namesz == 0 || (uint64(namesz)+3)/4*4 > uint64(len(b)) {
			return fmt.Errorf("bad note name size %d", namesz)
		}
		name := string(b[:namesz-1])
		b = b[(namesz+3)/4*4:]
		if uint64(descsz) > uint64(len(b)) {
			return fmt.Errorf("bad note desc size %d", descsz)
		}
		desc := b[:descsz]
		adv := (uint64(descsz) + 3) / 4 * 4
		if adv > uint64(len(b)) {
			adv = uint64(len(b))
		}
		b = b[adv:]
		f.Notes = append(f.Notes, Note{Name: name, Type: typ, Size: int(descsz)})

		switch {
		case name == "CORE" && typ == elf.NT_PRSTATUS:
			t, err := readPRStatus(order, desc)
			if err != nil {
				return fmt.Errorf("reading NT_PRSTATUS: %v", err)
			}
			f.Threads = append(f.Threads, t)
			last = t
		case name == "LINUX" && typ == ntARMVFP:
			if last == nil {
				return fmt.Errorf("NT_ARM_VFP before any NT_PRSTATUS")
			}
			fp, err := readVFP(order, desc)
			if err != nil {
				return fmt.Errorf("reading NT_ARM_VFP: %v", err)
			}
			last.FP = fp
		}
	}
	return nil
}

func readPRStatus(order binary.ByteOrder, desc []byte) (*Thread, error) {
	// 148 = sizeof(struct elf_prstatus) on arm.
	if len(desc) != 148 {
		return nil, fmt.Errorf("size %d, want 148", len(desc))
	}
	t := &Thread{}
	// 24 = offsetof(prstatus_t, pr_pid)
	t.PID = order.Uint32(desc[24:])
	// 72 = offsetof(prstatus_t, pr_reg), 18 words of elf_gregset_t
	reg := desc[72 : 72+4*arch.NumGregs]
	for i := range t.Regs {
		t.Regs[i] = order.Uint32(reg[4*i:])
	}
	// 144 = offsetof(prstatus_t, pr_fpvalid)
	t.FPValid = order.Uint32(desc[144:]) != 0
	return t, nil
}

func readVFP(order binary.ByteOrder, desc []byte) (*arch.FPRegs, error) {
	// struct user_vfp: 32 doubles then fpscr.
	if len(desc) != 32*8+4 {
		return nil, fmt.Errorf("size %d, want %d", len(desc), 32*8+4)
	}
	fp := &arch.FPRegs{}
	for i := range fp.D {
		fp.D[i] = order.Uint64(desc[8*i:])
	}
	fp.FPSCR = order.Uint32(desc[32*8:])
	return fp, nil
}
