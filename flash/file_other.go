// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)

package flash

import (
	"errors"
	"runtime"
)

var errNoMmap = errors.New("flash: image files are not supported on " + runtime.GOOS)

// File is a flash region backed by an image file. It is not available on
// this system.
type File struct {
	g    Geometry
	name string
}

func CreateFile(name string, g Geometry) (*File, error) { return nil, errNoMmap }
func OpenFile(name string, g Geometry) (*File, error)   { return nil, errNoMmap }

func (m *File) PageSize() int                       { return m.g.PageSize }
func (m *File) Base() uint32                        { return m.g.Base }
func (m *File) Size() uint32                        { return m.g.Size }
func (m *File) Bytes() []byte                       { return nil }
func (m *File) Name() string                        { return m.name }
func (m *File) Program(addr uint32, p []byte) error { return errNoMmap }
func (m *File) Erase() error                        { return errNoMmap }
func (m *File) Close() error                        { return nil }
