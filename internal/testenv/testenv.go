// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testenv provides helpers for tests that need flash images on
// disk.
package testenv

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// MustHaveMmap skips t unless flash images can be mapped on this system.
func MustHaveMmap(t testing.TB) {
	t.Helper()
	switch runtime.GOOS {
	case "darwin", "dragonfly", "freebsd", "linux", "netbsd", "openbsd", "solaris":
		return
	}
	t.Skipf("skipping test: flash images are not supported on %s", runtime.GOOS)
}

// FlashImage writes an erased flash image of size bytes into a temporary
// directory that is removed when t ends, and returns its path.
func FlashImage(t testing.TB, size uint32) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "flash.img")
	if err := os.WriteFile(name, bytes.Repeat([]byte{0xff}, int(size)), 0644); err != nil {
		t.Fatalf("writing flash image: %v", err)
	}
	return name
}
