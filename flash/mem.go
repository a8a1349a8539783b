// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

// Mem is a flash region emulated in memory.
type Mem struct {
	g    Geometry
	data []byte

	// Fault, if set, is called before every program operation. A non-nil
	// result fails the operation without touching the region.
	Fault func(addr uint32, n int) error
}

// NewMem returns an erased region of the given geometry.
func NewMem(g Geometry) (*Mem, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	m := &Mem{g: g, data: make([]byte, g.Size)}
	erase(m.data)
	return m, nil
}

func (m *Mem) PageSize() int { return m.g.PageSize }
func (m *Mem) Base() uint32  { return m.g.Base }
func (m *Mem) Size() uint32  { return m.g.Size }
func (m *Mem) Bytes() []byte { return m.data }

func (m *Mem) Program(addr uint32, p []byte) error {
	if m.Fault != nil {
		if err := m.Fault(addr, len(p)); err != nil {
			return err
		}
	}
	return program(m.data, m.g.Base, addr, p)
}

// Erase returns the whole region to the erased state.
func (m *Mem) Erase() {
	erase(m.data)
}
