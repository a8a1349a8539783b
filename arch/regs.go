// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arch

// Regs is the general register set of one thread.
// The field layout is relied on by live_arm.s.
type Regs struct {
	R   [13]uint32 // r0-r12
	SP  uint32
	LR  uint32
	PC  uint32
	PSR uint32
}

// NumGregs is the number of words in an ARM elf_gregset_t.
const NumGregs = 18

// Gregs returns r in elf_gregset_t order: r0-r15, cpsr, orig_r0.
func (r *Regs) Gregs() [NumGregs]uint32 {
	var g [NumGregs]uint32
	copy(g[:13], r.R[:])
	g[13] = r.SP
	g[14] = r.LR
	g[15] = r.PC
	g[16] = r.PSR
	g[17] = r.R[0]
	return g
}

// FPRegs is the floating-point register set of one thread.
// It stays zero unless the thread had an active FPU context.
// The field layout is relied on by live_arm.s.
type FPRegs struct {
	D     [16]uint64 // d0-d15
	FPSCR uint32
}

// S returns single-precision register n, 0 <= n < 32.
func (f *FPRegs) S(n int) uint32 {
	d := f.D[n/2]
	if n%2 == 1 {
		return uint32(d >> 32)
	}
	return uint32(d)
}

// SetS sets single-precision register n, 0 <= n < 32.
func (f *FPRegs) SetS(n int, v uint32) {
	d := &f.D[n/2]
	if n%2 == 1 {
		*d = *d&0xffffffff | uint64(v)<<32
	} else {
		*d = *d&^0xffffffff | uint64(v)
	}
}
