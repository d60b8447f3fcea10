package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fscat/fscat/catalog"
)

const addShortHelp = `Catalog one or more filesystem roots`
const addLongHelp = `
Add crawls each given path and records it in DB. If DB does not yet exist,
it is created by a full crawl of the given paths. If DB already exists, the
paths are merged into it: any path not yet present is added, and anything
already present is left untouched.

Directory sizes are recomputed after the crawl and the catalog is saved
back to DB.
`

type addCommand struct{}

func (cmd *addCommand) Name() string      { return "add" }
func (cmd *addCommand) Args() string      { return "DB path..." }
func (cmd *addCommand) ShortHelp() string { return addShortHelp }
func (cmd *addCommand) LongHelp() string  { return addLongHelp }
func (cmd *addCommand) Hidden() bool      { return false }

func (cmd *addCommand) Register(fs *flag.FlagSet) {}

func (cmd *addCommand) Run(ctx *runCtx, args []string) error {
	if len(args) < 2 {
		return errors.New("add requires a database path and at least one root path")
	}
	dbPath := args[0]
	roots := args[1:]

	absRoots := make([]string, len(roots))
	for i, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return errors.Wrapf(err, "resolving %q", r)
		}
		absRoots[i] = abs
	}

	crawler := catalog.NewCrawler(ctx.Options)

	var store *catalog.Store
	if _, err := os.Stat(dbPath); err == nil {
		store, err = catalog.Load(dbPath)
		if err != nil {
			return err
		}
		for _, root := range absRoots {
			if err := crawler.CrawlAdd(store, root); err != nil {
				return err
			}
		}
	} else {
		store = catalog.NewStore()
		if _, err = crawler.CrawlInitial(store, absRoots); err != nil {
			return err
		}
	}

	if err := catalog.PropagateSizes(store); err != nil {
		return err
	}

	ctx.Out.Printf("cataloged %d entries\n", store.Len())
	return catalog.Save(dbPath, store)
}
