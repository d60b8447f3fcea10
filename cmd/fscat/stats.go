package main

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/fscat/fscat/catalog"
)

const statsShortHelp = `Print catalog totals`
const statsLongHelp = `
Stats prints the entry, file and directory counts and total size for DB,
along with the single largest entry by size, as two lines. If one or more
prefixes are given, those two lines are printed once per prefix, with the
counts restricted to entries under that prefix (the largest-entry figure
is always over the whole catalog).
`

type statsCommand struct{}

func (cmd *statsCommand) Name() string      { return "stats" }
func (cmd *statsCommand) Args() string      { return "DB [prefix...]" }
func (cmd *statsCommand) ShortHelp() string { return statsShortHelp }
func (cmd *statsCommand) LongHelp() string  { return statsLongHelp }
func (cmd *statsCommand) Hidden() bool      { return false }

func (cmd *statsCommand) Register(fs *flag.FlagSet) {}

func (cmd *statsCommand) Run(ctx *runCtx, args []string) error {
	if len(args) < 1 {
		return errors.New("stats requires a database path")
	}
	dbPath := args[0]
	prefixes := args[1:]

	store, err := catalog.Load(dbPath)
	if err != nil {
		return err
	}

	if len(prefixes) == 0 {
		prefixes = []string{""}
	}

	for _, prefix := range prefixes {
		st, err := catalog.ComputeStats(store, prefix)
		if err != nil {
			return err
		}
		ctx.Out.Printf("entries: %d, files: %d, dirs: %d, size: %d\n", st.NumEntries, st.NumFiles, st.NumDirs, st.TotalSize)
		ctx.Out.Printf("largest entry: %s, size: %d\n", st.LargestEntryName, st.LargestEntrySize)
	}
	return nil
}
