// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The coredump tool manages the dump log kept in a flash image: it stores
// dumps, lists them and hands them out as ELF core files for a debugger.
// Run "coredump help" for a list of commands, or "coredump shell" for an
// interactive session.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/flyghost/OneOS-V2.1.0-sub001/coredump"
	"github.com/flyghost/OneOS-V2.1.0-sub001/dumplog"
	"github.com/flyghost/OneOS-V2.1.0-sub001/flash"
	"github.com/flyghost/OneOS-V2.1.0-sub001/internal/config"
)

// engine is the process-wide dump engine, allocated up front as a target
// would.
var engine = coredump.NewEngine()

// app holds the persistent flags of one command tree.
type app struct {
	configFile string
	image      string
	verbose    bool
}

func newRoot() *cobra.Command {
	a := new(app)
	root := &cobra.Command{
		Use:   "coredump",
		Short: "store and inspect core dumps kept in a flash image",
		Long: `coredump manages a dump log: an append-only chain of ELF core files
kept in a raw flash region, here an image file. Dumps can be taken from
the running tool or from a simulated board, then listed, checked and
exported for a debugger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "configuration `file` (YAML)")
	pf.StringVar(&a.image, "image", "", "flash image `file`; overrides the configuration")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "report what the dump log does")

	root.AddCommand(
		a.initCmd(),
		a.eraseCmd(),
		a.dumpCmd(),
		a.listCmd(),
		a.showCmd(),
		a.exportCmd(),
		a.crcCmd(),
		a.checkCmd(),
		a.shellCmd(),
	)
	return root
}

func main() {
	if err := newRoot().Execute(); err != nil {
		exitf("coredump: %v\n", err)
	}
}

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func (a *app) config() (*config.Config, error) {
	c := config.Default()
	if a.configFile != "" {
		var err error
		if c, err = config.Load(a.configFile); err != nil {
			return nil, err
		}
	}
	if a.image != "" {
		c.Flash.Image = a.image
	}
	return c, nil
}

// openLog maps the configured flash image and opens the dump log on it.
// The caller must close the returned file.
func (a *app) openLog(cmd *cobra.Command) (*dumplog.Log, *flash.File, error) {
	c, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	f, err := flash.OpenFile(c.Flash.Image, c.Flash.Geometry())
	if err != nil {
		return nil, nil, err
	}
	l, err := dumplog.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if a.verbose {
		l.SetLogger(log.New(cmd.OutOrStderr(), "", 0))
	}
	return l, f, nil
}

func (a *app) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "run commands interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell()
		},
	}
}

func (a *app) shell() error {
	cfg := &readline.Config{
		Prompt:          "(coredump) ",
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.HistoryFile = home + "/.coredump_history"
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := a.runLine(line, rl.Stdout()); err != nil {
			fmt.Fprintf(rl.Stderr(), "%v\n", err)
		}
	}
}

// runLine runs one shell line on a fresh command tree, so flags from an
// earlier line do not stick. The shell's persistent flags carry over.
func (a *app) runLine(line string, out io.Writer) error {
	args := strings.Fields(line)
	if args[0] == "shell" {
		return fmt.Errorf("already in the shell")
	}
	if a.configFile != "" {
		args = append(args, "--config", a.configFile)
	}
	if a.image != "" {
		args = append(args, "--image", a.image)
	}
	if a.verbose {
		args = append(args, "--verbose")
	}
	root := newRoot()
	root.SetOutput(out)
	root.SetArgs(args)
	return root.Execute()
}

func completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, c := range newRoot().Commands() {
		if c.Name() == "shell" {
			continue
		}
		items = append(items, readline.PcItem(c.Name()))
	}
	items = append(items, readline.PcItem("help"), readline.PcItem("exit"))
	return readline.NewPrefixCompleter(items...)
}
