// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coredump

import (
	"github.com/flyghost/OneOS-V2.1.0-sub001/arch"
	"github.com/flyghost/OneOS-V2.1.0-sub001/core"
)

// A Provider describes the threads and memory that go into a dump.
//
// There are two: Single, for the faulting context alone, and Multi, for
// every thread the scheduler knows about. None of the methods fail; a
// provider runs where error handling may no longer work.
type Provider interface {
	// ThreadCount returns the number of threads, at least 1.
	ThreadCount() int
	// CurrentThread returns the index of the running or faulting thread.
	CurrentThread() int
	// Registers returns the register sets of thread i. The results are
	// owned by the provider and valid until the next call.
	Registers(i int) (*arch.Regs, *arch.FPRegs)
	// AreaCount returns the number of memory areas, at least 1.
	AreaCount() int
	// Area returns memory area i, before alignment.
	Area(i int) core.Area
	// Memory returns the reader for the contents of the areas.
	Memory() core.Memory

	provider()
}

// DefaultWindow is the number of stack bytes Single captures.
const DefaultWindow = 1536

// Single describes only the current context: its registers and a
// fixed-size window of stack starting at its stack pointer.
type Single struct {
	s      *Session
	mem    core.Memory
	window uint32
}

// NewSingle returns a Single over the current register set of s. A zero
// window means DefaultWindow.
func NewSingle(s *Session, mem core.Memory, window uint32) *Single {
	if window == 0 {
		window = DefaultWindow
	}
	return &Single{s: s, mem: mem, window: window}
}

func (p *Single) ThreadCount() int   { return 1 }
func (p *Single) CurrentThread() int { return 0 }
func (p *Single) AreaCount() int     { return 1 }
func (p *Single) Memory() core.Memory {
	return p.mem
}

func (p *Single) Registers(int) (*arch.Regs, *arch.FPRegs) {
	return p.s.Current()
}

func (p *Single) Area(int) core.Area {
	regs, _ := p.s.Current()
	return core.Area{Addr: core.Address(regs.SP), Len: p.window}
}

func (*Single) provider() {}
