// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !arm

package arch

// HasFPU reports whether the floating-point registers can be read.
func HasFPU() bool {
	return false
}

// CaptureLive fills regs and fp with the registers of its caller.
// Targets other than 32-bit ARM have no register file matching Regs,
// so it zeroes both and reports false.
func CaptureLive(skip int, regs *Regs, fp *FPRegs) bool {
	*regs = Regs{}
	*fp = FPRegs{}
	return false
}
