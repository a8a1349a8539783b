// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"bytes"
	"errors"
	"testing"
)

var testGeometry = Geometry{Base: 0x08080000, Size: 0x4000, PageSize: 256}

func TestGeometry(t *testing.T) {
	for _, g := range []Geometry{
		{Base: 0, Size: 0x1000, PageSize: 0},
		{Base: 0, Size: 0x1000, PageSize: 300},
		{Base: 0, Size: 0x1080, PageSize: 256},
		{Base: 0x80, Size: 0x1000, PageSize: 256},
		{Base: 0xfffff000, Size: 0x2000, PageSize: 256},
	} {
		if _, err := NewMem(g); err == nil {
			t.Errorf("NewMem(%+v) succeeded", g)
		}
	}
}

func TestMemProgram(t *testing.T) {
	m, err := NewMem(testGeometry)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(m.Bytes(), bytes.Repeat([]byte{0xff}, int(m.Size()))) {
		t.Fatal("new region is not erased")
	}
	if err := m.Program(m.Base()+16, []byte{0x0f, 0xf0, 0x00}); err != nil {
		t.Fatal(err)
	}
	// Programming can only clear bits.
	if err := m.Program(m.Base()+16, []byte{0xf1, 0xff, 0xff}); err != nil {
		t.Fatal(err)
	}
	if got := m.Bytes()[16:20]; !bytes.Equal(got, []byte{0x01, 0xf0, 0x00, 0xff}) {
		t.Errorf("programmed bytes = %x", got)
	}

	if err := m.Program(m.Base()+m.Size()-1, []byte{0, 0}); !errors.Is(err, ErrRange) {
		t.Errorf("Program past end = %v, want ErrRange", err)
	}
	if err := m.Program(m.Base()-1, []byte{0}); !errors.Is(err, ErrRange) {
		t.Errorf("Program before base = %v, want ErrRange", err)
	}

	boom := errors.New("boom")
	m.Fault = func(addr uint32, n int) error { return boom }
	if err := m.Program(m.Base(), []byte{0}); err != boom {
		t.Errorf("Program with fault = %v", err)
	}
	if m.Bytes()[0] != 0xff {
		t.Error("failed program touched the region")
	}

	m.Erase()
	if m.Bytes()[16] != 0xff {
		t.Error("Erase left programmed bytes")
	}
}
