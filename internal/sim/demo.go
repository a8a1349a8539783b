// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"github.com/flyghost/OneOS-V2.1.0-sub001/arch"
	"github.com/flyghost/OneOS-V2.1.0-sub001/coredump"
)

// Demo returns a small board with three threads, the second one faulting
// with floating-point context live, plus one stale thread object that a
// dump must skip.
func Demo() *Board {
	b := NewBoard(16 << 10)

	regs := func(pc uint32) arch.Regs {
		var r arch.Regs
		for i := range r.R {
			r.R[i] = pc>>8 + uint32(i)
		}
		r.LR = pc - 0x40 | 1
		r.PC = pc
		r.PSR = 0x01000000
		return r
	}

	var fp arch.FPRegs
	for i := 0; i < 32; i++ {
		fp.SetS(i, 0x40000000+uint32(i)<<16)
	}
	fp.FPSCR = 0x00000010

	b.AddThread("idle", 512, 64, regs(0x08000400), nil)
	faulting := b.AddThread("main", 2048, 700, regs(0x08002468), &fp)
	b.AddThread("shell", 1024, 200, regs(0x08003a00), nil)
	b.AddObject(coredump.Thread{Name: "zombie", SP: 0x20003ff0, StackLo: 0x20003f00, StackHi: 0x20003f80})
	b.SetCurrent(faulting.ID)
	return b
}
