// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coredump writes ELF core files describing the threads of an
// embedded target so that an offline debugger can rebuild their call
// stacks.
//
// A dump is streamed in two passes over a Provider: Size reports how many
// bytes the dump will take, Generate hands exactly that many bytes to a
// Sink. Nothing is buffered beyond fixed scratch space owned by the Engine,
// so a dump can be taken from a fault handler where allocation is no
// longer safe.
package coredump

import (
	"errors"
	"sync"

	"github.com/flyghost/OneOS-V2.1.0-sub001/arch"
	"github.com/flyghost/OneOS-V2.1.0-sub001/core"
)

// A Sink receives the bytes of a dump in order. b is only valid during the
// call. A Sink has no way to report failure to the writer; a Sink that can
// fail remembers the failure and its owner reports it afterwards.
type Sink func(b []byte)

// ErrNoLiveCapture is returned when the registers of the running program
// cannot be captured on this target.
var ErrNoLiveCapture = errors.New("coredump: live register capture not supported on this target")

// An Engine holds everything dumps share: the register set of the current
// context and the scratch space used to encode headers, notes and memory.
// A program normally has exactly one.
//
// At most one Session is open on an Engine at a time.
type Engine struct {
	mu   sync.Mutex
	regs arch.Regs
	fp   arch.FPRegs
	s    Session
}

// NewEngine returns an Engine. It is the only allocation a dump needs and
// should be made before it can be needed.
func NewEngine() *Engine {
	e := new(Engine)
	e.s.e = e
	return e
}

// Begin opens the Engine's session, waiting for any other session to end.
func (e *Engine) Begin() *Session {
	e.mu.Lock()
	e.s.open()
	return &e.s
}

// TryBegin opens the Engine's session if no other session is open.
// A fault handler cannot wait, so it uses TryBegin.
func (e *Engine) TryBegin() (*Session, bool) {
	if !e.mu.TryLock() {
		return nil, false
	}
	e.s.open()
	return &e.s, true
}

// A Session is exclusive use of an Engine for one dump. It is obtained
// from Begin and must be released with End.
type Session struct {
	e      *Engine
	active bool

	fp   bool
	sink Sink
	off  uint32 // file offset while laying out and emitting
	pid  uint32 // last synthetic thread id handed out

	buf [scratchSize]byte
}

func (s *Session) open() {
	s.active = true
	s.fp = false
	s.sink = nil
	s.off = 0
	s.pid = 0
}

func (s *Session) check() {
	if !s.active {
		panic("coredump: use of ended session")
	}
}

// End releases the Engine. s must not be used afterwards.
func (s *Session) End() {
	s.check()
	s.active = false
	s.sink = nil
	s.e.mu.Unlock()
}

// Configure sets whether floating-point notes are written and where the
// bytes go. It resets any state left from an earlier dump.
func (s *Session) Configure(includeFP bool, sink Sink) {
	s.check()
	s.fp = includeFP
	s.sink = sink
	s.off = 0
	s.pid = 0
}

// Current returns the register set of the current context. It is filled by
// CaptureFrame or CaptureLive.
func (s *Session) Current() (*arch.Regs, *arch.FPRegs) {
	return &s.e.regs, &s.e.fp
}

// CaptureFrame fills the current register set from the exception frame
// saved at frame.
func (s *Session) CaptureFrame(mem core.Memory, frame core.Address) {
	s.check()
	fb := (*arch.FrameBuf)(s.buf[:arch.MaxFrameSize])
	fb.Capture(mem, frame, &s.e.regs, &s.e.fp)
}

// CaptureLive fills the current register set with the registers of the
// caller. Floating-point registers are captured only if the FPU is
// present; otherwise they are zero.
//
//go:noinline
func (s *Session) CaptureLive() error {
	s.check()
	if !arch.CaptureLive(1, &s.e.regs, &s.e.fp) {
		return ErrNoLiveCapture
	}
	return nil
}
