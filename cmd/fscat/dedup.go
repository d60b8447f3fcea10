package main

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/fscat/fscat/catalog"
)

const dedupShortHelp = `Find duplicate files and directories`
const dedupLongHelp = `
Dedup propagates content hashes, groups every file and directory by
(hash, size), and reports every group with more than one member, ranked by
bytes saved (size times duplicate count minus one) descending.

Whole-subtree duplicates are reported too: a directory's hash is derived
from its children's hashes, so two directories with byte-identical
contents collide in the same group as any duplicated file.
`

type dedupCommand struct{}

func (cmd *dedupCommand) Name() string      { return "dedup" }
func (cmd *dedupCommand) Args() string      { return "DB" }
func (cmd *dedupCommand) ShortHelp() string { return dedupShortHelp }
func (cmd *dedupCommand) LongHelp() string  { return dedupLongHelp }
func (cmd *dedupCommand) Hidden() bool      { return false }

func (cmd *dedupCommand) Register(fs *flag.FlagSet) {}

func (cmd *dedupCommand) Run(ctx *runCtx, args []string) error {
	if len(args) != 1 {
		return errors.New("dedup requires exactly a database path")
	}
	dbPath := args[0]

	store, err := catalog.Load(dbPath)
	if err != nil {
		return err
	}

	if err := catalog.PropagateHashes(store); err != nil {
		return err
	}

	groups, err := catalog.Dedup(store)
	if err != nil {
		return err
	}

	var totalSaved uint64
	maxDupes := 0
	for _, g := range groups {
		dupeCount := len(g.Paths) - 1
		if dupeCount > maxDupes {
			maxDupes = dupeCount
		}
		ctx.Out.Printf("duplicated size: %d, dupes: %d, bytes saved: %d\n", g.Size, dupeCount, g.BytesSaved)
		for _, p := range g.Paths {
			ctx.Out.Printf("    %s\n", p)
		}
		totalSaved += g.BytesSaved
	}
	ctx.Out.Printf("total duped bytes: %d\n", totalSaved)
	ctx.Out.Printf("max dupe count: %d\n", maxDupes)
	return nil
}
