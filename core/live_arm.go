// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build arm

package core

import "unsafe"

// rawMemory reads the memory of the running program directly.
type rawMemory struct{}

func (rawMemory) ReadAt(p []byte, a Address) {
	if len(p) == 0 {
		return
	}
	// a is a raw target address, not a Go pointer; reading it is the point.
	copy(p, unsafe.Slice((*byte)(unsafe.Pointer(uintptr(a))), len(p)))
}

// Live returns a Memory reading the address space of the running program,
// or nil if target addresses do not fit this program's pointers.
func Live() Memory {
	return rawMemory{}
}
