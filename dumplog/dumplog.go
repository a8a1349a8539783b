// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dumplog keeps core files in a raw flash region as an append-only
// chain of records, for targets without a file system.
//
// A record is
//
//	tag       uint16  TagValid, or TagFree (erased) where the next record goes
//	page size uint16  page size of the flash that wrote it
//	length    uint32  payload length
//	payload   [length]byte
//
// little endian, starting on a page boundary. The next record starts at the
// first page boundary after the payload. A tag that is neither valid nor
// free ends the chain. Nothing is ever reclaimed: once the region is full,
// writes fail until the region is erased.
package dumplog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/flyghost/OneOS-V2.1.0-sub001/coredump"
	"github.com/flyghost/OneOS-V2.1.0-sub001/flash"
)

const (
	TagValid uint16 = 0x5CC5
	TagFree  uint16 = 0xFFFF

	// HeaderSize is the size of a record header.
	HeaderSize = 8

	// MaxPageSize is the largest page the log can buffer.
	MaxPageSize = 4096

	indexCacheSize = 64
)

var (
	// ErrNoSpace is returned when no free slot can hold a dump.
	ErrNoSpace = errors.New("dumplog: no free space for dump")
	// ErrPageSize is returned by Open for a device whose pages the log
	// cannot buffer.
	ErrPageSize = errors.New("dumplog: unsupported flash page size")
)

// A Log is the dump log on one flash region.
//
// Writes are serialized. Reading records while a write is in progress may
// observe a partial record.
type Log struct {
	mu   sync.Mutex // held by WriteDump
	dev  flash.Device
	base uint32
	end  uint64
	data []byte

	w pageWriter

	// index caches record addresses by index for Record. It is only
	// touched outside WriteDump's streaming.
	index *lru.Cache

	logger *log.Logger
}

// Open returns the log on dev. The region is used as is; records already
// there are kept.
func Open(dev flash.Device) (*Log, error) {
	ps := dev.PageSize()
	if ps <= 0 || ps > MaxPageSize {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrPageSize, ps, MaxPageSize)
	}
	data := dev.Bytes()
	if uint32(len(data)) != dev.Size() {
		return nil, fmt.Errorf("dumplog: device maps %d bytes, size is %d", len(data), dev.Size())
	}
	index, err := lru.New(indexCacheSize)
	if err != nil {
		return nil, err
	}
	l := &Log{
		dev:   dev,
		base:  dev.Base(),
		end:   uint64(dev.Base()) + uint64(dev.Size()),
		data:  data,
		index: index,
	}
	l.w.dev = dev
	l.w.page = ps
	return l, nil
}

// SetLogger sets where WriteDump reports progress. nil disables it.
func (l *Log) SetLogger(logger *log.Logger) {
	l.logger = logger
}

func (l *Log) logf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
	}
}

type header struct {
	tag      uint16
	pageSize uint16
	length   uint32
}

// header reads the record header at addr. ok is false if the header is
// not inside the region.
func (l *Log) header(addr uint32) (h header, ok bool) {
	if uint64(addr)+HeaderSize > l.end || addr < l.base {
		return header{}, false
	}
	b := l.data[addr-l.base:]
	h.tag = binary.LittleEndian.Uint16(b[0:])
	h.pageSize = binary.LittleEndian.Uint16(b[2:])
	h.length = binary.LittleEndian.Uint32(b[4:])
	return h, true
}

// next returns the address of the record after the valid record h at addr.
func (l *Log) next(addr uint32, h header) (uint32, bool) {
	ps := uint64(h.pageSize)
	if ps == 0 {
		return 0, false
	}
	n := (uint64(addr) + HeaderSize + uint64(h.length) + ps - 1) / ps * ps
	if n >= l.end {
		return 0, false
	}
	return uint32(n), true
}

// walk calls fn for each valid record in chain order. It returns the
// address and header where the chain stopped, and whether that address
// holds a header at all.
func (l *Log) walk(fn func(i int, addr uint32, h header) bool) (uint32, header, bool) {
	addr := l.base
	for i := 0; ; i++ {
		h, ok := l.header(addr)
		if !ok || h.tag != TagValid {
			return addr, h, ok
		}
		if fn != nil && !fn(i, addr, h) {
			return addr, h, true
		}
		if addr, ok = l.next(addr, h); !ok {
			return 0, header{}, false
		}
	}
}

// FindFreeSlot returns the address of a free record with at least size
// bytes between it and the end of the region.
func (l *Log) FindFreeSlot(size uint32) (uint32, bool) {
	addr, h, ok := l.walk(nil)
	if !ok || h.tag != TagFree {
		return 0, false
	}
	if l.end-uint64(addr) < uint64(size) {
		return 0, false
	}
	return addr, true
}

// WriteDump appends a dump of p to the log through s. It fails with
// ErrNoSpace, leaving the region untouched, if the dump does not fit, and
// with the flash error if programming fails; a failed write leaves a
// partial record behind. Nothing is retried.
func (l *Log) WriteDump(s *coredump.Session, p coredump.Provider, includeFP bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.Configure(includeFP, l.w.write)
	size := s.Size(p)
	addr, ok := l.FindFreeSlot(HeaderSize + size)
	if !ok {
		return fmt.Errorf("%w: need %d bytes", ErrNoSpace, HeaderSize+size)
	}
	l.index.Purge()
	l.logf("dumplog: writing %d byte dump at %#08x", size, addr)

	l.w.reset(addr)
	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[0:], TagValid)
	binary.LittleEndian.PutUint16(hdr[2:], uint16(l.w.page))
	binary.LittleEndian.PutUint32(hdr[4:], size)
	l.w.write(hdr[:])
	s.Generate(p)
	l.w.flush()
	if l.w.err != nil {
		return l.w.err
	}
	if l.w.total != HeaderSize+size {
		return fmt.Errorf("dumplog: dump at %#08x is %d bytes, expected %d", addr, l.w.total-HeaderSize, size)
	}
	return nil
}

// Count returns the number of dumps in the log.
func (l *Log) Count() int {
	n := 0
	l.walk(func(int, uint32, header) bool {
		n++
		return true
	})
	return n
}

// Record returns the payload of dump i, aliasing the flash contents, or nil
// if there is no such dump.
func (l *Log) Record(i int) []byte {
	addr, ok := l.Addr(i)
	if !ok {
		return nil
	}
	h, _ := l.header(addr)
	return l.payload(addr, h)
}

// Addr returns the flash address of record i.
func (l *Log) Addr(i int) (uint32, bool) {
	if i < 0 {
		return 0, false
	}
	if v, ok := l.index.Get(i); ok {
		return v.(uint32), true
	}
	var found uint32
	ok := false
	l.walk(func(j int, addr uint32, _ header) bool {
		l.index.Add(j, addr)
		if j == i {
			found, ok = addr, true
			return false
		}
		return true
	})
	return found, ok
}

// Records calls fn with the index, address and payload of each dump in
// order until fn returns false.
func (l *Log) Records(fn func(i int, addr uint32, payload []byte) bool) {
	l.walk(func(i int, addr uint32, h header) bool {
		return fn(i, addr, l.payload(addr, h))
	})
}

func (l *Log) payload(addr uint32, h header) []byte {
	start := uint64(addr-l.base) + HeaderSize
	end := start + uint64(h.length)
	if end > uint64(len(l.data)) {
		// Truncated by the end of the region; hand out what exists.
		end = uint64(len(l.data))
	}
	return l.data[start:end:end]
}

// Free returns the number of bytes left for the next record, including its
// header.
func (l *Log) Free() uint32 {
	addr, h, ok := l.walk(nil)
	if !ok || h.tag != TagFree {
		return 0
	}
	return uint32(l.end - uint64(addr))
}

// Invalidate drops cached record addresses. Call it after the region was
// changed behind the log's back, such as by an erase.
func (l *Log) Invalidate() {
	l.index.Purge()
}

// pageWriter buffers a dump into flash pages.
type pageWriter struct {
	dev   flash.Device
	page  int
	addr  uint32
	n     int
	total uint32
	err   error
	buf   [MaxPageSize]byte
}

func (w *pageWriter) reset(addr uint32) {
	w.addr = addr
	w.n = 0
	w.total = 0
	w.err = nil
}

func (w *pageWriter) write(b []byte) {
	w.total += uint32(len(b))
	for len(b) > 0 && w.err == nil {
		k := copy(w.buf[w.n:w.page], b)
		w.n += k
		b = b[k:]
		if w.n == w.page {
			w.flush()
		}
	}
}

func (w *pageWriter) flush() {
	if w.n == 0 || w.err != nil {
		return
	}
	if err := w.dev.Program(w.addr, w.buf[:w.n]); err != nil {
		w.err = fmt.Errorf("dumplog: program %#08x: %w", w.addr, err)
		return
	}
	w.addr += uint32(w.n)
	w.n = 0
}
