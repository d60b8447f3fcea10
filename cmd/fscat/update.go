package main

import (
	"flag"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fscat/fscat/catalog"
)

const updateShortHelp = `Rescan a previously catalogued root`
const updateLongHelp = `
Update loads DB, prunes any entry whose on-disk state no longer matches
what's stored (deleted files, changed size or modification time), then
re-crawls path to pick up anything new. root must be the same path
originally given to add; behavior is unspecified otherwise.
`

type updateCommand struct{}

func (cmd *updateCommand) Name() string      { return "update" }
func (cmd *updateCommand) Args() string      { return "DB path" }
func (cmd *updateCommand) ShortHelp() string { return updateShortHelp }
func (cmd *updateCommand) LongHelp() string  { return updateLongHelp }
func (cmd *updateCommand) Hidden() bool      { return false }

func (cmd *updateCommand) Register(fs *flag.FlagSet) {}

func (cmd *updateCommand) Run(ctx *runCtx, args []string) error {
	if len(args) != 2 {
		return errors.New("update requires exactly a database path and a root path")
	}
	dbPath := args[0]
	root, err := filepath.Abs(args[1])
	if err != nil {
		return errors.Wrapf(err, "resolving %q", args[1])
	}

	store, err := catalog.Load(dbPath)
	if err != nil {
		return err
	}

	pruneResult, err := catalog.Prune(store)
	if err != nil {
		return err
	}
	ctx.Out.Printf("pruned %d paths, before: %d, after: %d\n", pruneResult.Deleted, pruneResult.Before, pruneResult.After)

	crawler := catalog.NewCrawler(ctx.Options)
	if err := crawler.CrawlAdd(store, root); err != nil {
		return err
	}

	if err := catalog.PropagateSizes(store); err != nil {
		return err
	}

	return catalog.Save(dbPath, store)
}
