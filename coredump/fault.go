// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coredump

import (
	"log"

	"github.com/flyghost/OneOS-V2.1.0-sub001/core"
)

// A Writer stores a dump somewhere, typically a dumplog.Log.
type Writer interface {
	WriteDump(s *Session, p Provider, includeFP bool) error
}

// FaultOptions configures HandleFault.
type FaultOptions struct {
	// IncludeFP adds a floating-point note per thread.
	IncludeFP bool
	// Window is the stack window for a single-thread dump; 0 means
	// DefaultWindow.
	Window uint32
	// Scheduler, if set, dumps every thread instead of only the
	// faulting one.
	Scheduler Scheduler
	// Logger receives best-effort diagnostics. It may be nil.
	Logger *log.Logger
}

// HandleFault dumps the faulting context whose exception frame was saved
// at frame and stores the dump with w. It is meant to be the last thing a
// fault handler does before the system resets, so it never waits and
// never reports failure: problems go to opts.Logger, if any, and are
// otherwise dropped. It reports whether a dump was stored.
func HandleFault(e *Engine, w Writer, mem core.Memory, frame core.Address, opts FaultOptions) bool {
	s, ok := e.TryBegin()
	if !ok {
		logf(opts.Logger, "coredump: dump already in progress, fault at frame %#x not recorded", uint32(frame))
		return false
	}
	defer s.End()

	s.CaptureFrame(mem, frame)
	var p Provider
	if opts.Scheduler != nil {
		p = NewMulti(s, opts.Scheduler, mem)
	} else {
		p = NewSingle(s, mem, opts.Window)
	}
	if err := w.WriteDump(s, p, opts.IncludeFP); err != nil {
		regs, _ := s.Current()
		logf(opts.Logger, "coredump: fault at pc %#08x not recorded: %v", regs.PC, err)
		return false
	}
	return true
}

func logf(l *log.Logger, format string, args ...interface{}) {
	if l != nil {
		l.Printf(format, args...)
	}
}
