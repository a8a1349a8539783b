// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coredump

import (
	"github.com/flyghost/OneOS-V2.1.0-sub001/arch"
	"github.com/flyghost/OneOS-V2.1.0-sub001/core"
)

// A Thread is a scheduler's thread object as far as a dump cares.
type Thread struct {
	ID   uintptr
	Name string
	// Ready is the object's initialization marker.
	Ready bool
	// SP is the stack pointer saved at the last context switch. It points
	// at the thread's saved frame.
	SP core.Address
	// StackLo and StackHi bound the thread's stack, [StackLo, StackHi).
	StackLo core.Address
	StackHi core.Address
}

// Valid reports whether t looks like a live thread: initialized, with its
// saved stack pointer inside its stack.
func (t *Thread) Valid() bool {
	return t.Ready && t.StackLo <= t.SP && t.SP <= t.StackHi && t.StackLo < t.StackHi
}

// A Scheduler exposes the thread list of the operating system.
type Scheduler interface {
	// Walk calls fn for each thread object in list order until fn
	// returns false. The Thread is only valid during the call.
	Walk(fn func(t *Thread) bool)
	// Current returns the ID of the running thread.
	Current() uintptr
}

// Multi describes every valid thread of a Scheduler. The running thread
// uses the current register set of the session; the others are recovered
// from the frames their context switches saved.
//
// If the running context is not among the valid threads it is dumped as
// one extra thread after them, with a DefaultWindow stack window.
//
// Thread count and current index need a full walk of the thread list and
// are computed once. Call Reset before reusing a Multi for another dump.
type Multi struct {
	s     *Session
	sched Scheduler
	mem   core.Memory

	cached bool
	count  int
	cur    int
	// fallback is set when the list has no valid thread; Multi then
	// behaves like Single.
	fallback bool

	t     Thread
	frame arch.FrameBuf
	regs  arch.Regs
	fp    arch.FPRegs
}

// NewMulti returns a Multi over the threads of sched.
func NewMulti(s *Session, sched Scheduler, mem core.Memory) *Multi {
	return &Multi{s: s, sched: sched, mem: mem}
}

// Reset drops the cached thread count and current index.
func (p *Multi) Reset() {
	p.cached = false
}

func (p *Multi) scan() {
	if p.cached {
		return
	}
	p.cached = true
	p.count, p.cur, p.fallback = 0, 0, false
	id := p.sched.Current()
	found := false
	p.sched.Walk(func(t *Thread) bool {
		if !t.Valid() {
			return true
		}
		if !found && t.ID == id {
			p.cur = p.count
			found = true
		}
		p.count++
		return true
	})
	switch {
	case p.count == 0:
		p.count = 1
		p.fallback = true
	case !found:
		// The running context is no valid thread: an interrupt, or a
		// damaged thread object. It goes after the threads, shaped like
		// Single, so no thread loses its own saved frame.
		p.cur = p.count
		p.count++
	}
}

// nth loads the i'th valid thread into p.t.
func (p *Multi) nth(i int) bool {
	n := 0
	ok := false
	p.sched.Walk(func(t *Thread) bool {
		if !t.Valid() {
			return true
		}
		if n == i {
			p.t = *t
			ok = true
			return false
		}
		n++
		return true
	})
	return ok
}

func (p *Multi) ThreadCount() int {
	p.scan()
	return p.count
}

func (p *Multi) CurrentThread() int {
	p.scan()
	return p.cur
}

func (p *Multi) AreaCount() int {
	return p.ThreadCount()
}

func (p *Multi) Memory() core.Memory {
	return p.mem
}

func (p *Multi) Registers(i int) (*arch.Regs, *arch.FPRegs) {
	p.scan()
	if p.fallback || i == p.cur || !p.nth(i) {
		return p.s.Current()
	}
	p.frame.Capture(p.mem, p.t.SP, &p.regs, &p.fp)
	return &p.regs, &p.fp
}

// Area returns the live part of thread i's stack, from its stack pointer to
// the top. The running thread's stack pointer comes from the current
// register set when that lies inside its stack.
func (p *Multi) Area(i int) core.Area {
	p.scan()
	if p.fallback || !p.nth(i) {
		regs, _ := p.s.Current()
		return core.Area{Addr: core.Address(regs.SP), Len: DefaultWindow}
	}
	sp := p.t.SP
	if i == p.cur {
		regs, _ := p.s.Current()
		if live := core.Address(regs.SP); p.t.StackLo <= live && live <= p.t.StackHi {
			sp = live
		}
	}
	return core.Area{Addr: sp, Len: uint32(p.t.StackHi - sp)}
}

func (*Multi) provider() {}
