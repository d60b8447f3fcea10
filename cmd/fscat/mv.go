package main

import (
	"flag"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fscat/fscat/catalog"
	"github.com/fscat/fscat/fsmutate"
)

const mvShortHelp = `Move a catalogued directory to a new parent`
const mvLongHelp = `
Mv reparents the directory at from so that it becomes a child of to, then
physically moves it on disk. Both from and to must already be catalogued
directories, and to must not already contain a catalogued directory named
like from's base name.

DB is saved only after the physical move succeeds; if the move fails, DB
is left unchanged.
`

type mvCommand struct{}

func (cmd *mvCommand) Name() string      { return "mv" }
func (cmd *mvCommand) Args() string      { return "DB from to" }
func (cmd *mvCommand) ShortHelp() string { return mvShortHelp }
func (cmd *mvCommand) LongHelp() string  { return mvLongHelp }
func (cmd *mvCommand) Hidden() bool      { return false }

func (cmd *mvCommand) Register(fs *flag.FlagSet) {}

func (cmd *mvCommand) Run(ctx *runCtx, args []string) error {
	if len(args) != 3 {
		return errors.New("mv requires a database path, a source directory and a target directory")
	}
	dbPath := args[0]
	from, err := filepath.Abs(args[1])
	if err != nil {
		return errors.Wrapf(err, "resolving %q", args[1])
	}
	to, err := filepath.Abs(args[2])
	if err != nil {
		return errors.Wrapf(err, "resolving %q", args[2])
	}

	store, err := catalog.Load(dbPath)
	if err != nil {
		return err
	}

	idx, err := catalog.BuildPathIndex(store)
	if err != nil {
		return err
	}

	if err := catalog.Move(store, idx, from, to); err != nil {
		return err
	}

	mutator := fsmutate.New()
	if err := mutator.MoveItem(from, to); err != nil {
		return errors.Wrap(err, "physical move failed; catalog not saved")
	}

	if err := catalog.PropagateSizes(store); err != nil {
		return err
	}

	return catalog.Save(dbPath, store)
}
