package main

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/fscat/fscat/catalog"
)

const dumpShortHelp = `Print every catalogued path`
const dumpLongHelp = `
Dump loads DB and prints the full path of every entry, one per line.
`

type dumpCommand struct{}

func (cmd *dumpCommand) Name() string      { return "dump" }
func (cmd *dumpCommand) Args() string      { return "DB" }
func (cmd *dumpCommand) ShortHelp() string { return dumpShortHelp }
func (cmd *dumpCommand) LongHelp() string  { return dumpLongHelp }
func (cmd *dumpCommand) Hidden() bool      { return false }

func (cmd *dumpCommand) Register(fs *flag.FlagSet) {}

func (cmd *dumpCommand) Run(ctx *runCtx, args []string) error {
	return runDump(ctx, args, false)
}

const dumpFullShortHelp = `Print every catalogued path with size and hash`
const dumpFullLongHelp = `
DumpFull is like dump but also prints each entry's size and content hash.
`

type dumpFullCommand struct{}

func (cmd *dumpFullCommand) Name() string      { return "dump_full" }
func (cmd *dumpFullCommand) Args() string      { return "DB" }
func (cmd *dumpFullCommand) ShortHelp() string { return dumpFullShortHelp }
func (cmd *dumpFullCommand) LongHelp() string  { return dumpFullLongHelp }
func (cmd *dumpFullCommand) Hidden() bool      { return false }

func (cmd *dumpFullCommand) Register(fs *flag.FlagSet) {}

func (cmd *dumpFullCommand) Run(ctx *runCtx, args []string) error {
	return runDump(ctx, args, true)
}

func runDump(ctx *runCtx, args []string, full bool) error {
	if len(args) != 1 {
		return errors.New("dump requires exactly a database path")
	}
	dbPath := args[0]

	store, err := catalog.Load(dbPath)
	if err != nil {
		return err
	}

	return store.Iterate(func(addr catalog.Address, n *catalog.Node) error {
		path, err := store.FullPath(addr, "/")
		if err != nil {
			return err
		}
		if full {
			ctx.Out.Printf("%s %d %x\n", path, n.Size, n.Hash)
		} else {
			ctx.Out.Printf("%s\n", path)
		}
		return nil
	})
}
