// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim is a simulated RTOS board: thread stacks in a block of RAM,
// each holding the frame its last context switch saved, and a scheduler
// that walks them. It stands in for a real target in tests and in the
// coredump tool.
package sim

import (
	"fmt"

	"github.com/flyghost/OneOS-V2.1.0-sub001/arch"
	"github.com/flyghost/OneOS-V2.1.0-sub001/core"
	"github.com/flyghost/OneOS-V2.1.0-sub001/coredump"
)

// RAMBase is where simulated RAM starts, as on most Cortex-M parts.
const RAMBase core.Address = 0x20000000

// A Board is simulated RAM plus a thread list.
type Board struct {
	Mem *core.SliceMemory

	next    core.Address // lowest free address
	threads []coredump.Thread
	current uintptr
}

// NewBoard returns a board with size bytes of RAM.
func NewBoard(size int) *Board {
	return &Board{Mem: core.NewSliceMemory(RAMBase, size), next: RAMBase}
}

// AddThread allocates a stack of stackSize bytes (8-byte aligned), pushes
// a saved frame for regs and fp below used bytes of stack, and links the
// thread. fp may be nil for a thread without FPU context. regs.SP is
// ignored; the frame decides it.
func (b *Board) AddThread(name string, stackSize, used uint32, regs arch.Regs, fp *arch.FPRegs) coredump.Thread {
	stackSize = (stackSize + 7) &^ 7
	lo := b.next
	hi := lo + core.Address(stackSize)
	if uint64(hi)-uint64(RAMBase) > uint64(len(b.Mem.Data)) {
		panic(fmt.Sprintf("sim: no room for thread %s", name))
	}
	b.next = hi

	for a := lo; a < hi; a += 4 {
		b.Mem.PutUint32(a, 0xdeadbeef)
	}

	var buf [arch.MaxFrameSize]byte
	n := arch.EncodeFrame(buf[:], &regs, fp)
	sp := (hi - core.Address(used) - core.Address(n)).AlignDown(8)
	b.Mem.WriteAt(buf[:n], sp)

	b.threads = append(b.threads, coredump.Thread{
		ID:      uintptr(len(b.threads) + 1),
		Name:    name,
		Ready:   true,
		SP:      sp,
		StackLo: lo,
		StackHi: hi,
	})
	return b.threads[len(b.threads)-1]
}

// AddObject links a raw thread object, valid or not.
func (b *Board) AddObject(t coredump.Thread) {
	if t.ID == 0 {
		t.ID = uintptr(len(b.threads) + 1)
	}
	b.threads = append(b.threads, t)
}

// Thread returns the thread object with the given ID, or nil.
func (b *Board) Thread(id uintptr) *coredump.Thread {
	for i := range b.threads {
		if b.threads[i].ID == id {
			return &b.threads[i]
		}
	}
	return nil
}

// SetCurrent makes the thread with the given ID the running one.
func (b *Board) SetCurrent(id uintptr) {
	b.current = id
}

// Walk implements coredump.Scheduler.
func (b *Board) Walk(fn func(t *coredump.Thread) bool) {
	for i := range b.threads {
		t := b.threads[i]
		if !fn(&t) {
			return
		}
	}
}

// Current implements coredump.Scheduler.
func (b *Board) Current() uintptr {
	return b.current
}

// Fault returns the address of the running thread's saved frame, the way
// an exception handler would see it.
func (b *Board) Fault() core.Address {
	t := b.Thread(b.current)
	if t == nil {
		panic("sim: no running thread")
	}
	return t.SP
}
