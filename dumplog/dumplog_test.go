// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dumplog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/flyghost/OneOS-V2.1.0-sub001/coredump"
	"github.com/flyghost/OneOS-V2.1.0-sub001/crc32b"
	"github.com/flyghost/OneOS-V2.1.0-sub001/flash"
	"github.com/flyghost/OneOS-V2.1.0-sub001/internal/elfcore"
	"github.com/flyghost/OneOS-V2.1.0-sub001/internal/sim"
)

const testBase = 0x08080000

func newLog(t *testing.T, size uint32, page int) (*Log, *flash.Mem) {
	t.Helper()
	dev, err := flash.NewMem(flash.Geometry{Base: testBase, Size: size, PageSize: page})
	if err != nil {
		t.Fatal(err)
	}
	l, err := Open(dev)
	if err != nil {
		t.Fatal(err)
	}
	return l, dev
}

func putHeader(dev *flash.Mem, addr uint32, tag, page uint16, length uint32) {
	var b [HeaderSize]byte
	binary.LittleEndian.PutUint16(b[0:], tag)
	binary.LittleEndian.PutUint16(b[2:], page)
	binary.LittleEndian.PutUint32(b[4:], length)
	if err := dev.Program(addr, b[:]); err != nil {
		panic(err)
	}
}

// writeDemo writes a dump of the demo board and returns the size the
// writer computed for it.
func writeDemo(t *testing.T, l *Log, multi, fp bool) (uint32, error) {
	t.Helper()
	b := sim.Demo()
	e := coredump.NewEngine()
	s := e.Begin()
	defer s.End()
	s.CaptureFrame(b.Mem, b.Fault())
	var p coredump.Provider = coredump.NewSingle(s, b.Mem, 0)
	if multi {
		p = coredump.NewMulti(s, b, b.Mem)
	}
	s.Configure(fp, nil)
	size := s.Size(p)
	return size, l.WriteDump(s, p, fp)
}

func TestOpenPageSize(t *testing.T) {
	dev, err := flash.NewMem(flash.Geometry{Base: testBase, Size: 0x10000, PageSize: 2 * MaxPageSize})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dev); !errors.Is(err, ErrPageSize) {
		t.Errorf("Open = %v, want ErrPageSize", err)
	}
}

func TestFindFreeSlotAfterValid(t *testing.T) {
	const size, page = 0x2000, 256
	l, dev := newLog(t, size, page)
	// One valid record of 100 payload bytes occupies one page.
	putHeader(dev, testBase, TagValid, page, 100)
	const x = page
	remaining := uint32(size - x)

	for _, s := range []uint32{1, 100, remaining - 1, remaining} {
		addr, ok := l.FindFreeSlot(s)
		if !ok || addr != testBase+x {
			t.Errorf("FindFreeSlot(%d) = %#x, %v; want %#x, true", s, addr, ok, testBase+x)
		}
	}
	if addr, ok := l.FindFreeSlot(remaining + 1); ok {
		t.Errorf("FindFreeSlot(%d) = %#x, want no slot", remaining+1, addr)
	}
	if got := l.Free(); got != remaining {
		t.Errorf("Free = %d, want %d", got, remaining)
	}
}

func TestFindFreeSlotEmpty(t *testing.T) {
	const size = 0x1000
	l, _ := newLog(t, size, 256)
	if addr, ok := l.FindFreeSlot(size); !ok || addr != testBase {
		t.Errorf("FindFreeSlot(size) = %#x, %v", addr, ok)
	}
	if _, ok := l.FindFreeSlot(size + 1); ok {
		t.Error("FindFreeSlot(size+1) found a slot")
	}
	if n := l.Count(); n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
	if r := l.Record(0); r != nil {
		t.Errorf("Record(0) = %d bytes, want nil", len(r))
	}
}

func TestCorruptRegion(t *testing.T) {
	l, dev := newLog(t, 0x1000, 256)
	putHeader(dev, testBase, 0x1234, 256, 16)
	if _, ok := l.FindFreeSlot(1); ok {
		t.Error("FindFreeSlot found a slot in a corrupt region")
	}
	if n := l.Count(); n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
	if r := l.Record(0); r != nil {
		t.Error("Record(0) returned data from a corrupt region")
	}

	// A valid record whose length runs past the region ends the chain.
	l, dev = newLog(t, 0x1000, 256)
	putHeader(dev, testBase, TagValid, 256, 0x10000)
	if _, ok := l.FindFreeSlot(1); ok {
		t.Error("FindFreeSlot found a slot after a runaway record")
	}
	if n := l.Count(); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
	if r := l.Record(0); len(r) != 0x1000-HeaderSize {
		t.Errorf("Record(0) = %d bytes, want the rest of the region", len(r))
	}

	// So does a zero page size.
	l, dev = newLog(t, 0x1000, 256)
	putHeader(dev, testBase, TagValid, 0, 16)
	if _, ok := l.FindFreeSlot(1); ok {
		t.Error("FindFreeSlot found a slot after a record with page size 0")
	}
}

func TestRoundTrip(t *testing.T) {
	for _, test := range []struct {
		name      string
		page      int
		multi, fp bool
	}{
		{"single", 256, false, false},
		{"single-fp", 4096, false, true},
		{"multi", 64, true, false},
		{"multi-fp", 512, true, true},
	} {
		t.Run(test.name, func(t *testing.T) {
			l, _ := newLog(t, 0x10000, test.page)
			size, err := writeDemo(t, l, test.multi, test.fp)
			if err != nil {
				t.Fatal(err)
			}
			r := l.Record(0)
			if uint32(len(r)) != size {
				t.Fatalf("Record(0) = %d bytes, want %d", len(r), size)
			}
			if !bytes.HasPrefix(r, []byte{0x7f, 'E', 'L', 'F'}) {
				t.Errorf("Record(0) starts with %x", r[:4])
			}
			if _, err := elfcore.Check(r); err != nil {
				t.Errorf("stored dump: %v", err)
			}
			if got, want := crc32b.Checksum(0, r), crc32.ChecksumIEEE(r); got != want {
				t.Errorf("checksum %#x, reference %#x", got, want)
			}
			addr, ok := l.Addr(0)
			if !ok || addr != testBase {
				t.Errorf("Addr(0) = %#x, %v", addr, ok)
			}
		})
	}
}

func TestEnumerate(t *testing.T) {
	const n = 5
	l, _ := newLog(t, 0x20000, 256)
	var sizes []uint32
	for i := 0; i < n; i++ {
		size, err := writeDemo(t, l, i%2 == 0, i%3 == 0)
		if err != nil {
			t.Fatalf("dump %d: %v", i, err)
		}
		sizes = append(sizes, size)
		if got := l.Count(); got != i+1 {
			t.Errorf("after %d dumps Count = %d", i+1, got)
		}
	}
	for i := 0; i < n; i++ {
		r := l.Record(i)
		if r == nil || uint32(len(r)) != sizes[i] {
			t.Errorf("Record(%d) = %d bytes, want %d", i, len(r), sizes[i])
		}
		addr, _ := l.Addr(i)
		if addr%256 != 0 {
			t.Errorf("record %d at %#x is not page aligned", i, addr)
		}
	}
	if r := l.Record(n); r != nil {
		t.Errorf("Record(%d) = %d bytes, want nil", n, len(r))
	}
	if r := l.Record(-1); r != nil {
		t.Error("Record(-1) returned data")
	}

	var seen int
	l.Records(func(i int, addr uint32, payload []byte) bool {
		if i != seen || !bytes.Equal(payload, l.Record(i)) {
			t.Errorf("Records visited %d at %#x out of order", i, addr)
		}
		seen++
		return true
	})
	if seen != n {
		t.Errorf("Records visited %d, want %d", seen, n)
	}
}

func TestFull(t *testing.T) {
	l, dev := newLog(t, 0x2000, 256)
	var err error
	written := 0
	for ; written < 100; written++ {
		if _, err = writeDemo(t, l, false, false); err != nil {
			break
		}
	}
	if !errors.Is(err, ErrNoSpace) {
		t.Fatalf("writing until full: %v, want ErrNoSpace", err)
	}
	if written == 0 {
		t.Fatal("no dump fit in the region")
	}
	before := append([]byte(nil), dev.Bytes()...)
	if _, err := writeDemo(t, l, false, false); !errors.Is(err, ErrNoSpace) {
		t.Errorf("write to full region = %v", err)
	}
	if !bytes.Equal(before, dev.Bytes()) {
		t.Error("failed write changed the region")
	}
	if got := l.Count(); got != written {
		t.Errorf("Count = %d, want %d", got, written)
	}

	dev.Erase()
	l.Invalidate()
	if got := l.Count(); got != 0 {
		t.Errorf("Count after erase = %d", got)
	}
	if _, err := writeDemo(t, l, false, false); err != nil {
		t.Errorf("write after erase: %v", err)
	}
}

func TestProgramFailure(t *testing.T) {
	l, dev := newLog(t, 0x10000, 256)
	boom := errors.New("program failed")
	programs := 0
	dev.Fault = func(addr uint32, n int) error {
		programs++
		if programs == 3 {
			return boom
		}
		return nil
	}
	_, err := writeDemo(t, l, true, false)
	if !errors.Is(err, boom) {
		t.Fatalf("WriteDump = %v, want %v", err, boom)
	}
	if programs != 3 {
		t.Errorf("%d program calls, want no retries after the failure", programs)
	}
	// The header went out with the first page, so a partial record is left.
	if got := l.Count(); got != 1 {
		t.Errorf("Count = %d, want the partial record", got)
	}
}
