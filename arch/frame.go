// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arch

import (
	"encoding/binary"

	"github.com/flyghost/OneOS-V2.1.0-sub001/core"
)

// A saved frame is what the exception entry sequence leaves on a thread's
// stack, lowest address first:
//
//	excReturn             flag word; FrameFPU set if FP context was stacked
//	r4-r11                pushed by software
//	s16-s31               FPU frames only, pushed by software
//	r0-r3 r12 lr pc xpsr  pushed by hardware
//	s0-s15 fpscr reserved FPU frames only, pushed by hardware
//
// The hardware may insert one padding word above the frame to keep the
// stack 8-byte aligned; it says so in xPSR bit 9.
const (
	// FrameFPU is the flag bit marking an extended (floating-point) frame.
	FrameFPU = 1 << 0

	FrameSize    = (1 + 8 + 8) * 4
	FPUFrameSize = (1 + 8 + 16 + 8 + 16 + 2) * 4

	// MaxFrameSize is the largest frame, including alignment padding.
	MaxFrameSize = FPUFrameSize + 4

	psrStackAlign = 1 << 9
)

// Word offsets inside a frame.
const (
	wExcReturn = 0
	wR4        = 1
	wS16       = 9  // FPU frames
	wHW        = 9  // standard frames
	wHWFPU     = 25 // FPU frames
	wS0        = 33 // FPU frames
	wFPSCR     = 49 // FPU frames
)

// A FrameBuf is scratch space for decoding one saved frame.
// Keeping it outside the stack lets a fault handler decode frames
// without allocating.
type FrameBuf [MaxFrameSize]byte

// Capture reads the frame saved at frame and decodes it into regs and fp.
// fp is zeroed for frames without floating-point context. The stack pointer
// is reconstructed as the address just above the frame, which is what the
// interrupted code saw.
func (b *FrameBuf) Capture(mem core.Memory, frame core.Address, regs *Regs, fp *FPRegs) {
	mem.ReadAt(b[:4], frame)
	size := FrameSize
	if binary.LittleEndian.Uint32(b[:4])&FrameFPU != 0 {
		size = FPUFrameSize
	}
	mem.ReadAt(b[:size], frame)
	DecodeFrame(b[:size], frame, regs, fp)
}

// DecodeFrame decodes the saved frame in buf, which was read from address
// frame. buf must hold a whole frame as reported by its flag word.
func DecodeFrame(buf []byte, frame core.Address, regs *Regs, fp *FPRegs) {
	word := func(i int) uint32 {
		return binary.LittleEndian.Uint32(buf[i*4:])
	}
	*regs = Regs{}
	*fp = FPRegs{}

	for i := 0; i < 8; i++ {
		regs.R[4+i] = word(wR4 + i)
	}
	hw := wHW
	size := FrameSize
	ext := word(wExcReturn)&FrameFPU != 0
	if ext {
		hw = wHWFPU
		size = FPUFrameSize
		for i := 0; i < 16; i++ {
			fp.SetS(i, word(wS0+i))
			fp.SetS(16+i, word(wS16+i))
		}
		fp.FPSCR = word(wFPSCR)
	}
	regs.R[0] = word(hw + 0)
	regs.R[1] = word(hw + 1)
	regs.R[2] = word(hw + 2)
	regs.R[3] = word(hw + 3)
	regs.R[12] = word(hw + 4)
	regs.LR = word(hw + 5)
	regs.PC = word(hw + 6)
	regs.PSR = word(hw + 7)

	sp := frame.Add(int64(size))
	if regs.PSR&psrStackAlign != 0 {
		sp += 4
	}
	regs.SP = uint32(sp)
}

// EncodeFrame lays regs and fp out in buf the way a context switch saves
// them and returns the frame size. fp may be nil for a standard frame.
// buf must have room for MaxFrameSize bytes.
func EncodeFrame(buf []byte, regs *Regs, fp *FPRegs) int {
	put := func(i int, v uint32) {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	hw := wHW
	size := FrameSize
	if fp != nil {
		hw = wHWFPU
		size = FPUFrameSize
		put(wExcReturn, FrameFPU)
		for i := 0; i < 16; i++ {
			put(wS0+i, fp.S(i))
			put(wS16+i, fp.S(16+i))
		}
		put(wFPSCR, fp.FPSCR)
		put(wFPSCR+1, 0)
	} else {
		put(wExcReturn, 0)
	}
	for i := 0; i < 8; i++ {
		put(wR4+i, regs.R[4+i])
	}
	put(hw+0, regs.R[0])
	put(hw+1, regs.R[1])
	put(hw+2, regs.R[2])
	put(hw+3, regs.R[3])
	put(hw+4, regs.R[12])
	put(hw+5, regs.LR)
	put(hw+6, regs.PC)
	put(hw+7, regs.PSR)
	return size
}
