// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config reads the coredump tool's configuration file.
//
// A configuration looks like
//
//	flash:
//	  image: dump.img
//	  base: 0x08080000
//	  size: 0x40000
//	  page_size: 2048
//	dump:
//	  floating_point: true
//	  stack_window: 1536
//
// Fields left out keep their defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flyghost/OneOS-V2.1.0-sub001/coredump"
	"github.com/flyghost/OneOS-V2.1.0-sub001/dumplog"
	"github.com/flyghost/OneOS-V2.1.0-sub001/flash"
)

// Config is the tool configuration.
type Config struct {
	Flash Flash `yaml:"flash"`
	Dump  Dump  `yaml:"dump"`
}

// Flash describes the flash region holding the dump log.
type Flash struct {
	// Image is the file standing in for the region.
	Image    string `yaml:"image"`
	Base     uint32 `yaml:"base"`
	Size     uint32 `yaml:"size"`
	PageSize int    `yaml:"page_size"`
}

// Geometry returns the region's geometry.
func (f Flash) Geometry() flash.Geometry {
	return flash.Geometry{Base: f.Base, Size: f.Size, PageSize: f.PageSize}
}

// Dump holds dump options.
type Dump struct {
	FloatingPoint bool   `yaml:"floating_point"`
	StackWindow   uint32 `yaml:"stack_window"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Flash: Flash{
			Image:    "coredump.img",
			Base:     0x08080000,
			Size:     256 << 10,
			PageSize: 2048,
		},
		Dump: Dump{
			StackWindow: coredump.DefaultWindow,
		},
	}
}

// Load reads the configuration file name on top of the defaults.
func Load(name string) (*Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// Parse reads a configuration from r on top of the defaults and validates
// the result.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document decodes to io.EOF and leaves the defaults.
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports the first problem with c, if any.
func (c *Config) Validate() error {
	if c.Flash.Image == "" {
		return errors.New("flash.image is empty")
	}
	if c.Flash.PageSize > dumplog.MaxPageSize {
		return fmt.Errorf("flash.page_size %d exceeds %d", c.Flash.PageSize, dumplog.MaxPageSize)
	}
	if err := c.Flash.Geometry().Validate(); err != nil {
		return err
	}
	if c.Dump.StackWindow == 0 {
		return errors.New("dump.stack_window must be positive")
	}
	return nil
}
