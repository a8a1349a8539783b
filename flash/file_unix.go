// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package flash

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is a flash region backed by an image file mapped into memory, so
// dumps survive the process the way they survive a reset on the target.
type File struct {
	g    Geometry
	name string
	data []byte
}

// CreateFile creates (or truncates) the image file name and fills it with
// erased flash.
func CreateFile(name string, g Geometry) (*File, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := f.Truncate(int64(g.Size)); err != nil {
		return nil, err
	}
	m, err := mapFile(f, name, g)
	if err != nil {
		return nil, err
	}
	m.Erase()
	return m, nil
}

// OpenFile maps an existing image file. The file size must equal g.Size.
func OpenFile(name string, g Geometry) (*File, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() != int64(g.Size) {
		return nil, fmt.Errorf("flash: image %s is %d bytes, want %d", name, st.Size(), g.Size)
	}
	return mapFile(f, name, g)
}

func mapFile(f *os.File, name string, g Geometry) (*File, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(g.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("flash: can't map %s: %v", name, err)
	}
	return &File{g: g, name: name, data: data}, nil
}

func (m *File) PageSize() int { return m.g.PageSize }
func (m *File) Base() uint32  { return m.g.Base }
func (m *File) Size() uint32  { return m.g.Size }
func (m *File) Bytes() []byte { return m.data }

// Name returns the image file name.
func (m *File) Name() string { return m.name }

// Program programs p at addr and flushes the touched pages to the file.
func (m *File) Program(addr uint32, p []byte) error {
	if m.data == nil {
		return fmt.Errorf("flash: %s is closed", m.name)
	}
	if err := program(m.data, m.g.Base, addr, p); err != nil {
		return err
	}
	return m.sync(addr-m.g.Base, len(p))
}

// Erase returns the whole region to the erased state.
func (m *File) Erase() error {
	if m.data == nil {
		return fmt.Errorf("flash: %s is closed", m.name)
	}
	erase(m.data)
	return m.sync(0, len(m.data))
}

func (m *File) sync(off uint32, n int) error {
	// msync wants a host page aligned start.
	ps := uint32(os.Getpagesize())
	start := off / ps * ps
	end := uint64(off) + uint64(n)
	if err := unix.Msync(m.data[start:end], unix.MS_SYNC); err != nil {
		return fmt.Errorf("flash: sync %s: %v", m.name, err)
	}
	return nil
}

// Close unmaps the image.
func (m *File) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	return unix.Munmap(data)
}
