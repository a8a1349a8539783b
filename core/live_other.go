// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !arm

package core

// Live returns a Memory reading the address space of the running program,
// or nil if target addresses do not fit this program's pointers.
func Live() Memory {
	return nil
}
