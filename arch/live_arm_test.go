// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build arm

package arch

import (
	"runtime"
	"strings"
	"testing"
	"unsafe"
)

// growStack grows the goroutine stack so it does not move during the
// capture below.
//
//go:noinline
func growStack() byte {
	var buf [32 << 10]byte
	buf[len(buf)-1] = 1
	return buf[0] + buf[len(buf)-1]
}

func TestCaptureLiveRegisters(t *testing.T) {
	growStack()
	var marker byte
	top := uintptr(unsafe.Pointer(&marker))

	var regs Regs
	var fp FPRegs
	fp.FPSCR = 1
	if !CaptureLive(0, &regs, &fp) {
		t.Fatal("CaptureLive not supported on arm")
	}

	// The stack grows down from this frame's locals, and CaptureLive's
	// frame is small.
	sp := uintptr(regs.SP)
	if sp > top || top-sp > 4096 {
		t.Errorf("sp %#x not just below this frame's locals at %#x", sp, top)
	}

	f := runtime.FuncForPC(uintptr(regs.PC))
	if f == nil || !strings.HasSuffix(f.Name(), ".TestCaptureLiveRegisters") {
		t.Errorf("pc %#x is not in the calling test", regs.PC)
	}
	if f := runtime.FuncForPC(uintptr(regs.LR)); f == nil || f.Name() != "testing.tRunner" {
		t.Errorf("lr %#x does not return to testing.tRunner", regs.LR)
	}
	if regs.R[11] != 0 {
		t.Errorf("r11 = %#x, want 0", regs.R[11])
	}

	if !HasFPU() && fp != (FPRegs{}) {
		t.Errorf("fp = %+v, want zero without an FPU", fp)
	}
}
