package main

import (
	"flag"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fscat/fscat/catalog"
	"github.com/fscat/fscat/fsmutate"
)

const elsewhereShortHelp = `Check whether every file under a subtree exists elsewhere`
const elsewhereLongHelp = `
AllFilesElsewhere checks, for every file under target, whether a file with
the same content hash and size exists anywhere outside target. Comparison
is by hash and size only, not name or path. Empty files are excluded from
coverage accounting.

An optional second path argument is accepted but has no effect on the
result.
`

const elsewhereRemoveDupesShortHelp = `Like all_files_elsewhere, but also delete covered files`
const elsewhereRemoveDupesLongHelp = `
AllFilesElsewhereRemoveDupes behaves like all_files_elsewhere, then deletes
every file under target that was found covered elsewhere and removes
now-empty ancestor directories up to target, best-effort. The in-memory
catalog is not updated by removal; run update afterwards to reconcile.
`

type elsewhereCommand struct{}

func (cmd *elsewhereCommand) Name() string      { return "all_files_elsewhere" }
func (cmd *elsewhereCommand) Args() string      { return "DB target [other]" }
func (cmd *elsewhereCommand) ShortHelp() string { return elsewhereShortHelp }
func (cmd *elsewhereCommand) LongHelp() string  { return elsewhereLongHelp }
func (cmd *elsewhereCommand) Hidden() bool      { return false }

func (cmd *elsewhereCommand) Register(fs *flag.FlagSet) {}

func (cmd *elsewhereCommand) Run(ctx *runCtx, args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return errors.New("all_files_elsewhere requires a database path, a target path, and an optional extra path")
	}
	return runElsewhere(ctx, args[0], args[1], false)
}

type elsewhereRemoveDupesCommand struct{}

func (cmd *elsewhereRemoveDupesCommand) Name() string      { return "all_files_elsewhere_remove_dupes" }
func (cmd *elsewhereRemoveDupesCommand) Args() string      { return "DB target" }
func (cmd *elsewhereRemoveDupesCommand) ShortHelp() string { return elsewhereRemoveDupesShortHelp }
func (cmd *elsewhereRemoveDupesCommand) LongHelp() string  { return elsewhereRemoveDupesLongHelp }
func (cmd *elsewhereRemoveDupesCommand) Hidden() bool      { return false }

func (cmd *elsewhereRemoveDupesCommand) Register(fs *flag.FlagSet) {}

func (cmd *elsewhereRemoveDupesCommand) Run(ctx *runCtx, args []string) error {
	if len(args) != 2 {
		return errors.New("all_files_elsewhere_remove_dupes requires exactly a database path and a target path")
	}
	return runElsewhere(ctx, args[0], args[1], true)
}

func runElsewhere(ctx *runCtx, dbPath, targetArg string, removeDupes bool) error {
	target, err := filepath.Abs(targetArg)
	if err != nil {
		return errors.Wrapf(err, "resolving %q", targetArg)
	}

	store, err := catalog.Load(dbPath)
	if err != nil {
		return err
	}

	if err := catalog.PropagateHashes(store); err != nil {
		return err
	}

	var remover catalog.Remover
	if removeDupes {
		remover = fsmutate.New()
	}

	report, err := catalog.AllFilesElsewhere(store, target, remover)
	if err != nil {
		return err
	}

	for _, p := range report.MissingPaths {
		ctx.Out.Printf("file missing: %s\n", p)
	}
	for _, p := range report.RemovedPaths {
		ctx.Out.Printf("removed: %s\n", p)
	}
	ctx.Out.Printf("num dupes: %d\n", report.NumDupes)
	ctx.Out.Printf("files missing: %d\n", report.NumMissing)
	ctx.Out.Printf("dirs: %d\n", report.NumDirs)
	ctx.Out.Printf("empty files: %d\n", report.NumEmptyFiles)
	ctx.Out.Printf("num duped bytes: %d\n", report.NumDupedBytes)
	ctx.Out.Printf("num missing bytes: %d\n", report.NumMissingBytes)
	return nil
}
