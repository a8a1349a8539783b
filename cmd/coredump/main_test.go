// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/flyghost/OneOS-V2.1.0-sub001/coredump"
	"github.com/flyghost/OneOS-V2.1.0-sub001/internal/elfcore"
	"github.com/flyghost/OneOS-V2.1.0-sub001/internal/testenv"
)

// setup writes a configuration for a small flash image in a temporary
// directory and returns its path and the image path.
func setup(t *testing.T) (cfg, image string) {
	t.Helper()
	testenv.MustHaveMmap(t)
	dir := t.TempDir()
	image = filepath.Join(dir, "flash.img")
	cfg = filepath.Join(dir, "coredump.yaml")
	conf := fmt.Sprintf("flash:\n  image: %s\n  size: 0x10000\n  page_size: 256\n", image)
	if err := os.WriteFile(cfg, []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}
	return cfg, image
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRoot()
	root.SetOutput(&out)
	root.SetArgs(append(args, "--config", cfg))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, args...)
	if err != nil {
		t.Fatalf("coredump %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestSimulatedDumps(t *testing.T) {
	cfg, image := setup(t)
	mustRun(t, cfg, "init")
	if _, err := run(t, cfg, "init"); err == nil {
		t.Error("init over an existing image succeeded")
	}
	mustRun(t, cfg, "init", "--force")

	if out := mustRun(t, cfg, "dump", "--simulate"); !strings.Contains(out, "stored dump 0") {
		t.Errorf("dump --simulate printed %q", out)
	}
	if out := mustRun(t, cfg, "dump", "--simulate", "--multi", "--fp"); !strings.Contains(out, "stored dump 1") {
		t.Errorf("dump --simulate --multi printed %q", out)
	}

	out := mustRun(t, cfg, "list")
	if !strings.Contains(out, "2 dumps") {
		t.Errorf("list printed %q", out)
	}

	out = mustRun(t, cfg, "check", "0")
	if !strings.Contains(out, "1 threads, 1 segments") {
		t.Errorf("check 0 printed %q", out)
	}
	out = mustRun(t, cfg, "check", "1")
	if !strings.Contains(out, "3 threads, 3 segments") {
		t.Errorf("check 1 printed %q", out)
	}

	out = mustRun(t, cfg, "show", "0", "-n", "16")
	if !strings.Contains(out, "7f 45 4c 46") || strings.Count(out, "\n") != 1 {
		t.Errorf("show 0 printed %q", out)
	}

	dir := filepath.Dir(image)
	raw := filepath.Join(dir, "core")
	mustRun(t, cfg, "export", "1", "-o", raw)
	core, err := os.ReadFile(raw)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := elfcore.Check(core); err != nil {
		t.Errorf("exported core: %v", err)
	}
	out = mustRun(t, cfg, "crc", "1")
	if want := fmt.Sprintf("%08x\n", crc32.ChecksumIEEE(core)); out != want {
		t.Errorf("crc 1 = %q, want %q", out, want)
	}
	if !strings.Contains(mustRun(t, cfg, "list"), fmt.Sprintf("%08x", crc32.ChecksumIEEE(core))) {
		t.Error("list does not show the checksum of dump 1")
	}

	zst := filepath.Join(dir, "core.zst")
	mustRun(t, cfg, "export", "1", "-o", zst, "--zstd")
	packed, err := os.ReadFile(zst)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	unpacked, err := dec.DecodeAll(packed, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(unpacked, core) {
		t.Error("zstd export does not decompress to the core file")
	}

	for _, args := range [][]string{
		{"show", "2"},
		{"show", "x"},
		{"export", "0"},
		{"check", "-1"},
	} {
		if _, err := run(t, cfg, args...); err == nil {
			t.Errorf("coredump %s succeeded", strings.Join(args, " "))
		}
	}

	mustRun(t, cfg, "erase")
	if out := mustRun(t, cfg, "list"); !strings.Contains(out, "0 dumps, 65536 bytes free") {
		t.Errorf("list after erase printed %q", out)
	}
}

func TestDumpToFile(t *testing.T) {
	cfg, image := setup(t)
	name := filepath.Join(filepath.Dir(image), "multi.core")
	out := mustRun(t, cfg, "dump", "--simulate", "--multi", "-o", name)
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if want := fmt.Sprintf("wrote %d bytes to %s, crc32b %08x", len(b), name, crc32.ChecksumIEEE(b)); !strings.Contains(out, want) {
		t.Errorf("dump -o printed %q, want %q", out, want)
	}
	f, err := elfcore.Check(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Threads) != 3 || f.Threads[0].PID != 1 {
		t.Errorf("dump has %d threads, first pid %d", len(f.Threads), f.Threads[0].PID)
	}
	if _, err := os.Stat(image); !os.IsNotExist(err) {
		t.Error("dump -o touched the flash image")
	}
}

func TestDumpErrors(t *testing.T) {
	cfg, _ := setup(t)
	if _, err := run(t, cfg, "dump", "--simulate"); err == nil {
		t.Error("dump without an image succeeded")
	}
	mustRun(t, cfg, "init")
	if _, err := run(t, cfg, "dump", "--multi"); err == nil {
		t.Error("dump --multi without --simulate succeeded")
	}
	if runtime.GOARCH != "arm" {
		if _, err := run(t, cfg, "dump"); !errors.Is(err, coredump.ErrNoLiveCapture) {
			t.Errorf("live dump on %s = %v, want ErrNoLiveCapture", runtime.GOARCH, err)
		}
	}
}

func TestRunLine(t *testing.T) {
	cfg, image := setup(t)
	a := &app{configFile: cfg, image: image}
	var out bytes.Buffer
	for _, line := range []string{"init", "dump --simulate", "dump --simulate --fp", "list"} {
		out.Reset()
		if err := a.runLine(line, &out); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
	if !strings.Contains(out.String(), "2 dumps") {
		t.Errorf("list printed %q", out.String())
	}
	if err := a.runLine("shell", &out); err == nil {
		t.Error("nested shell started")
	}
	if err := a.runLine("bogus", &out); err == nil {
		t.Error("unknown command succeeded")
	}
}

func TestCompleter(t *testing.T) {
	c := completer()
	got, n := c.Do([]rune("ex"), 2)
	if n != 2 {
		t.Errorf("completion length %d, want 2", n)
	}
	var names []string
	for _, r := range got {
		names = append(names, strings.TrimSpace(string(r)))
	}
	if strings.Join(names, ",") != "port,it" {
		t.Errorf("completions of \"ex\" = %q, want export and exit", names)
	}
}

func TestHexDump(t *testing.T) {
	var b bytes.Buffer
	data := []byte("\x7fELF\x01\x01\x01\x00\xff\xff")
	if err := hexDump(&b, 0x08080008, data, false); err != nil {
		t.Fatal(err)
	}
	want := "08080008  7f 45 4c 46 01 01 01 00  ff ff" + strings.Repeat("   ", 6) + "  |.ELF......|\n"
	if b.String() != want {
		t.Errorf("hexDump =\n%q\nwant\n%q", b.String(), want)
	}
	b.Reset()
	hexDump(&b, 0, data, true)
	if !strings.Contains(b.String(), colorErased+"ff"+colorReset) {
		t.Errorf("colored hexDump does not dim erased bytes: %q", b.String())
	}
	if isTerminal(&b) {
		t.Error("a buffer is a terminal")
	}
}

func TestDumpFileClose(t *testing.T) {
	d, err := createDumpFile(filepath.Join(t.TempDir(), "core"))
	if err != nil {
		t.Fatal(err)
	}
	// Close the file underneath so the final close fails.
	d.f.Close()
	if err := d.close(); err == nil {
		t.Error("close of an already closed file succeeded")
	}
	if err := d.close(); err != nil {
		t.Errorf("second close = %v, want nil", err)
	}
}
