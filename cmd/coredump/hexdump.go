// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	colorAddr   = "\x1b[36m"
	colorErased = "\x1b[2m"
	colorReset  = "\x1b[0m"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// hexDump writes b, which starts at flash address addr, 16 bytes a line.
// With color, addresses are highlighted and erased bytes dimmed.
func hexDump(w io.Writer, addr uint32, b []byte, color bool) error {
	bw := bufio.NewWriter(w)
	for off := 0; off < len(b); off += 16 {
		line := b[off:]
		if len(line) > 16 {
			line = line[:16]
		}
		if color {
			fmt.Fprintf(bw, "%s%08x%s ", colorAddr, addr+uint32(off), colorReset)
		} else {
			fmt.Fprintf(bw, "%08x ", addr+uint32(off))
		}
		for i := 0; i < 16; i++ {
			if i == 8 {
				bw.WriteByte(' ')
			}
			if i >= len(line) {
				bw.WriteString("   ")
				continue
			}
			if color && line[i] == 0xff {
				fmt.Fprintf(bw, " %sff%s", colorErased, colorReset)
			} else {
				fmt.Fprintf(bw, " %02x", line[i])
			}
		}
		bw.WriteString("  |")
		for _, c := range line {
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			bw.WriteByte(c)
		}
		bw.WriteString("|\n")
	}
	return bw.Flush()
}
