// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/flyghost/OneOS-V2.1.0-sub001/core"
	"github.com/flyghost/OneOS-V2.1.0-sub001/coredump"
	"github.com/flyghost/OneOS-V2.1.0-sub001/crc32b"
	"github.com/flyghost/OneOS-V2.1.0-sub001/dumplog"
	"github.com/flyghost/OneOS-V2.1.0-sub001/flash"
	"github.com/flyghost/OneOS-V2.1.0-sub001/internal/elfcore"
	"github.com/flyghost/OneOS-V2.1.0-sub001/internal/sim"
)

func (a *app) initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "create an erased flash image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.config()
			if err != nil {
				return err
			}
			if _, err := os.Stat(c.Flash.Image); err == nil && !force {
				return fmt.Errorf("%s exists; use --force to replace it", c.Flash.Image)
			}
			f, err := flash.CreateFile(c.Flash.Image, c.Flash.Geometry())
			if err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s: %d bytes at %#08x, %d byte pages\n",
				c.Flash.Image, c.Flash.Size, c.Flash.Base, c.Flash.PageSize)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing image")
	return cmd
}

func (a *app) eraseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "erase",
		Short: "erase the flash image, dropping every dump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, f, err := a.openLog(cmd)
			if err != nil {
				return err
			}
			defer f.Close()
			n := l.Count()
			if err := f.Erase(); err != nil {
				return err
			}
			l.Invalidate()
			fmt.Fprintf(cmd.OutOrStdout(), "erased %s, dropped %d dumps\n", f.Name(), n)
			return nil
		},
	}
}

func (a *app) dumpCmd() *cobra.Command {
	var (
		simulate bool
		multi    bool
		fp       bool
		window   uint32
		output   string
	)
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "take a dump and store it in the log",
		Long: `dump takes a core dump and appends it to the dump log, or writes it
to a file with -o.

With --simulate the dump is taken from a simulated board the way a fault
handler would take it; --multi then includes every thread instead of a
stack window of the faulting one. Without --simulate the tool dumps its
own registers and stack, which only works on 32-bit ARM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("fp") {
				fp = c.Dump.FloatingPoint
			}
			if !cmd.Flags().Changed("window") {
				window = c.Dump.StackWindow
			}
			if multi && !simulate {
				return errors.New("--multi needs --simulate: the tool has no thread list of its own")
			}

			var (
				w  coredump.Writer
				fw *dumpFile
			)
			if output != "" {
				if fw, err = createDumpFile(output); err != nil {
					return err
				}
				defer fw.close()
				w = fw
			} else {
				l, f, err := a.openLog(cmd)
				if err != nil {
					return err
				}
				defer f.Close()
				w = l
			}

			if simulate {
				b := sim.Demo()
				opts := coredump.FaultOptions{
					IncludeFP: fp,
					Window:    window,
					Logger:    log.New(cmd.OutOrStderr(), "", 0),
				}
				if multi {
					opts.Scheduler = b
				}
				if !coredump.HandleFault(engine, w, b.Mem, b.Fault(), opts) {
					return errors.New("dump not stored")
				}
			} else {
				s := engine.Begin()
				defer s.End()
				if err := s.CaptureLive(); err != nil {
					return err
				}
				if err := w.WriteDump(s, coredump.NewSingle(s, core.Live(), window), fp); err != nil {
					return err
				}
			}
			if fw != nil {
				if err := fw.close(); err != nil {
					return err
				}
			}
			report(cmd, w)
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&simulate, "simulate", false, "dump a simulated board")
	f.BoolVar(&multi, "multi", false, "dump every thread (with --simulate)")
	f.BoolVar(&fp, "fp", false, "include floating-point registers")
	f.Uint32Var(&window, "window", coredump.DefaultWindow, "stack window in `bytes` for a single-thread dump")
	f.StringVarP(&output, "output", "o", "", "write the dump to `file` instead of the log")
	return cmd
}

func report(cmd *cobra.Command, w coredump.Writer) {
	out := cmd.OutOrStdout()
	switch w := w.(type) {
	case *dumplog.Log:
		i := w.Count() - 1
		addr, _ := w.Addr(i)
		fmt.Fprintf(out, "stored dump %d: %d bytes at %#08x\n", i, len(w.Record(i)), addr)
	case *dumpFile:
		fmt.Fprintf(out, "wrote %d bytes to %s, crc32b %08x\n", w.crc.N, w.name, w.crc.Sum)
	}
}

// A dumpFile writes a dump to a file, checksumming it on the way.
type dumpFile struct {
	name string
	f    *os.File
	w    *bufio.Writer
	crc  crc32b.Running
}

func createDumpFile(name string) (*dumpFile, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	return &dumpFile{name: name, f: f, w: bufio.NewWriter(f)}, nil
}

func (d *dumpFile) write(b []byte) {
	d.crc.Write(b)
	d.w.Write(b)
}

// WriteDump implements coredump.Writer.
func (d *dumpFile) WriteDump(s *coredump.Session, p coredump.Provider, includeFP bool) error {
	s.Configure(includeFP, d.write)
	size := s.Size(p)
	s.Generate(p)
	if err := d.w.Flush(); err != nil {
		return err
	}
	if d.crc.N != int64(size) {
		return fmt.Errorf("dump is %d bytes, expected %d", d.crc.N, size)
	}
	return nil
}

// close closes the file. Only the first call does anything.
func (d *dumpFile) close() error {
	if d.f == nil {
		return nil
	}
	f := d.f
	d.f = nil
	return f.Close()
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list the dumps in the log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, f, err := a.openLog(cmd)
			if err != nil {
				return err
			}
			defer f.Close()
			out := cmd.OutOrStdout()
			t := tabwriter.NewWriter(out, 0, 0, 1, ' ', tabwriter.AlignRight)
			fmt.Fprintf(t, "index\taddress\tlength\tcrc32b\t\n")
			n := 0
			l.Records(func(i int, addr uint32, payload []byte) bool {
				fmt.Fprintf(t, "%d\t%#08x\t%d\t%08x\t\n", i, addr, len(payload), crc32b.Checksum(0, payload))
				n++
				return true
			})
			t.Flush()
			fmt.Fprintf(out, "%d dumps, %d bytes free\n", n, l.Free())
			return nil
		},
	}
}

// withRecord opens the log and calls fn with the dump named by arg.
func (a *app) withRecord(cmd *cobra.Command, arg string, fn func(addr uint32, rec []byte) error) error {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("bad dump index %q", arg)
	}
	l, f, err := a.openLog(cmd)
	if err != nil {
		return err
	}
	defer f.Close()
	rec := l.Record(i)
	if rec == nil {
		return fmt.Errorf("no dump %d (the log holds %d)", i, l.Count())
	}
	addr, _ := l.Addr(i)
	return fn(addr, rec)
}

func (a *app) showCmd() *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "show index",
		Short: "hex dump a stored dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRecord(cmd, args[0], func(addr uint32, rec []byte) error {
				if length > 0 && length < len(rec) {
					rec = rec[:length]
				}
				out := cmd.OutOrStdout()
				return hexDump(out, addr+dumplog.HeaderSize, rec, isTerminal(out))
			})
		},
	}
	cmd.Flags().IntVarP(&length, "length", "n", 256, "show at most `n` bytes; 0 shows all")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		output   string
		compress bool
	)
	cmd := &cobra.Command{
		Use:   "export index",
		Short: "write a stored dump to a core file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("export needs an output file (-o)")
			}
			return a.withRecord(cmd, args[0], func(_ uint32, rec []byte) error {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := writeRecord(f, rec, compress); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported dump %s to %s\n", args[0], output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "core `file` to write")
	cmd.Flags().BoolVar(&compress, "zstd", false, "compress the core file with zstd")
	return cmd
}

func writeRecord(f *os.File, rec []byte, compress bool) error {
	if !compress {
		_, err := f.Write(rec)
		return err
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if _, err := enc.Write(rec); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func (a *app) crcCmd() *cobra.Command {
	var seed uint32
	cmd := &cobra.Command{
		Use:   "crc index",
		Short: "print the CRC32B of a stored dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRecord(cmd, args[0], func(_ uint32, rec []byte) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%08x\n", crc32b.Checksum(seed, rec))
				return nil
			})
		},
	}
	cmd.Flags().Uint32Var(&seed, "init", 0, "initial checksum `value`")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check index",
		Short: "check the structure of a stored dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRecord(cmd, args[0], func(_ uint32, rec []byte) error {
				cf, err := elfcore.Check(rec)
				if err != nil {
					return fmt.Errorf("dump %s: %w", args[0], err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s core, %d threads, %d segments\n", cf.Machine, len(cf.Threads), len(cf.Segments))
				t := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
				fmt.Fprintf(t, "pid\tpc\tsp\tfp\t\n")
				for _, th := range cf.Threads {
					fmt.Fprintf(t, "%d\t%#08x\t%#08x\t%t\t\n", th.PID, th.PC(), th.SP(), th.FP != nil)
				}
				fmt.Fprintf(t, "\nsegment\toffset\tperm\t\n")
				for _, s := range cf.Segments {
					fmt.Fprintf(t, "%s\t%#x\t%s\t\n", s.Area, s.Off, s.Perm)
				}
				return t.Flush()
			})
		},
	}
}
