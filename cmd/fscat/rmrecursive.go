package main

import (
	"flag"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fscat/fscat/catalog"
	"github.com/fscat/fscat/fsmutate"
)

const rmRecursiveShortHelp = `Delete a catalogued directory and its contents`
const rmRecursiveLongHelp = `
RmRecursive deletes path and everything beneath it, both from the
filesystem and from DB. Unlike all_files_elsewhere's remove_dupes, this
does not check whether the removed content exists elsewhere first — it is
an unconditional delete.
`

type rmRecursiveCommand struct{}

func (cmd *rmRecursiveCommand) Name() string      { return "rm_recursive" }
func (cmd *rmRecursiveCommand) Args() string      { return "DB path" }
func (cmd *rmRecursiveCommand) ShortHelp() string { return rmRecursiveShortHelp }
func (cmd *rmRecursiveCommand) LongHelp() string  { return rmRecursiveLongHelp }
func (cmd *rmRecursiveCommand) Hidden() bool      { return false }

func (cmd *rmRecursiveCommand) Register(fs *flag.FlagSet) {}

func (cmd *rmRecursiveCommand) Run(ctx *runCtx, args []string) error {
	if len(args) != 2 {
		return errors.New("rm_recursive requires a database path and a target path")
	}
	dbPath := args[0]
	target, err := filepath.Abs(args[1])
	if err != nil {
		return errors.Wrapf(err, "resolving %q", args[1])
	}

	store, err := catalog.Load(dbPath)
	if err != nil {
		return err
	}

	idx, err := catalog.BuildPathIndex(store)
	if err != nil {
		return err
	}

	if err := catalog.RemoveSubtree(store, idx, target, fsmutate.New()); err != nil {
		return err
	}

	if err := catalog.PropagateSizes(store); err != nil {
		return err
	}

	return catalog.Save(dbPath, store)
}
