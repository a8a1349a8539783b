// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crc32b computes the CRC-32 (polynomial 0xEDB88320, reflected)
// operators use to check a transcribed or retrieved dump.
package crc32b

import "hash/crc32"

// Checksum continues a checksum from init over p. Start with 0.
// Checksum(Checksum(0, a), b) == Checksum(0, append(a, b...)).
func Checksum(init uint32, p []byte) uint32 {
	return crc32.Update(init, crc32.IEEETable, p)
}

// Running accumulates a checksum over bytes handed to Write. Its Write
// method can serve as a coredump.Sink to checksum a dump while it is
// generated.
type Running struct {
	Sum uint32
	N   int64
}

func (r *Running) Write(p []byte) {
	r.Sum = Checksum(r.Sum, p)
	r.N += int64(len(p))
}
