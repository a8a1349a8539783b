// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build arm

package arch

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Implemented in live_arm.s.
func liveRegs(regs *Regs)
func liveFP(fp *FPRegs)

// HasFPU reports whether the floating-point registers can be read.
func HasFPU() bool {
	return cpu.ARM.HasVFP
}

// CaptureLive fills regs and fp with the registers of its caller, read
// before anything else runs. pc and lr are those of the caller skip frames
// further up. r10 holds the goroutine pointer, as Go code always does on
// arm. r11 is the assembler's temporary and reads as zero. fp is
// left zeroed when there is no FPU. It reports whether live capture is
// supported on this target.
//
//go:noinline
func CaptureLive(skip int, regs *Regs, fp *FPRegs) bool {
	liveRegs(regs)
	regs.R[11] = 0
	regs.LR = 0
	// liveRegs saw a return address into this function. Report the
	// caller's pc and its own return address instead.
	var pcs [2]uintptr
	n := runtime.Callers(2+skip, pcs[:])
	if n > 0 {
		regs.PC = uint32(pcs[0])
	}
	if n > 1 {
		regs.LR = uint32(pcs[1])
	}
	*fp = FPRegs{}
	if HasFPU() {
		liveFP(fp)
	}
	return true
}
