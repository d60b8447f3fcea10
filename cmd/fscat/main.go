// Command fscat maintains a persistent, content-addressed catalog of files
// and directories and answers structural queries against it: aggregate
// directory sizes, whole-tree deduplication, and "is every file under this
// subtree reproduced somewhere else?" coverage checks.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fscat/fscat/catalog"
	"github.com/fscat/fscat/fclog"
)

type command interface {
	Name() string           // "dedup"
	Args() string           // "DB"
	ShortHelp() string      // "Find duplicate files and directories"
	LongHelp() string       // full usage text
	Register(*flag.FlagSet) // command-specific flags
	Hidden() bool
	Run(ctx *runCtx, args []string) error
}

// runCtx bundles the dependencies every command needs: the resolved
// options (possibly overlaid from a config file) and the loggers.
type runCtx struct {
	Options catalog.Options
	Out     *log.Logger
	Err     *log.Logger
}

func main() {
	c := &Config{
		Args:   os.Args,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Env:    os.Environ(),
	}
	os.Exit(c.Run())
}

// Config specifies a full configuration for an fscat execution.
type Config struct {
	Args           []string
	Env            []string
	Stdout, Stderr *os.File
}

// Run executes a configuration and returns an exit code.
func (c *Config) Run() (exitCode int) {
	commands := []command{
		&addCommand{},
		&updateCommand{},
		&mvCommand{},
		&rmRecursiveCommand{},
		&dedupCommand{},
		&elsewhereCommand{},
		&elsewhereRemoveDupesCommand{},
		&statsCommand{},
		&dumpCommand{},
		&dumpFullCommand{},
	}

	outLogger := log.New(c.Stdout, "", 0)
	errLogger := log.New(c.Stderr, "", 0)

	usage := func() {
		errLogger.Println("fscat catalogs a filesystem tree and answers duplication queries against it")
		errLogger.Println()
		errLogger.Println("Usage: fscat <command>")
		errLogger.Println()
		errLogger.Println("Commands:")
		errLogger.Println()
		w := tabwriter.NewWriter(c.Stderr, 0, 4, 2, ' ', 0)
		for _, cmd := range commands {
			if !cmd.Hidden() {
				fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.ShortHelp())
			}
		}
		w.Flush()
		errLogger.Println()
		errLogger.Println(`Use "fscat help <command>" for more information about a command.`)
	}

	cmdName, printCommandHelp, exit := parseArgs(c.Args)
	if exit {
		usage()
		exitCode = 1
		return
	}

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}

		fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		fs.SetOutput(c.Stderr)
		verbose := fs.Bool("v", false, "enable verbose logging")
		configPath := fs.String("config", defaultConfigPath(c.Env), "path to a config.toml overlay")

		cmd.Register(fs)
		resetUsage(errLogger, fs, cmdName, cmd.Args(), cmd.LongHelp())

		if printCommandHelp {
			fs.Usage()
			exitCode = 1
			return
		}

		if err := fs.Parse(c.Args[2:]); err != nil {
			exitCode = 1
			return
		}

		opts, err := catalog.LoadOptionsFile(*configPath, catalog.DefaultOptions())
		if err != nil {
			errLogger.Printf("%v\n", err)
			exitCode = 1
			return
		}

		verbosity := fclog.Level(0)
		if *verbose {
			verbosity = 1
		}
		opts.Logger = fclog.NewStd(c.Stderr, verbosity)

		ctx := &runCtx{Options: opts, Out: outLogger, Err: errLogger}

		if err := cmd.Run(ctx, fs.Args()); err != nil {
			errLogger.Printf("%v\n", err)
			exitCode = 1
			return
		}
		return
	}

	errLogger.Printf("fscat: %s: no such command\n", cmdName)
	usage()
	exitCode = 1
	return
}

func defaultConfigPath(env []string) string {
	if xdg := getEnv(env, "XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fscat", "config.toml")
	}
	home := getEnv(env, "HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "fscat", "config.toml")
}

func resetUsage(logger *log.Logger, fs *flag.FlagSet, name, args, longHelp string) {
	var (
		hasFlags   bool
		flagBlock  bytes.Buffer
		flagWriter = tabwriter.NewWriter(&flagBlock, 0, 4, 2, ' ', 0)
	)
	fs.VisitAll(func(f *flag.Flag) {
		hasFlags = true
		defValue := f.DefValue
		if defValue == "" {
			defValue = "<none>"
		}
		fmt.Fprintf(flagWriter, "\t-%s\t%s (default: %s)\n", f.Name, f.Usage, defValue)
	})
	flagWriter.Flush()
	fs.Usage = func() {
		logger.Printf("Usage: fscat %s %s\n", name, args)
		logger.Println()
		logger.Println(strings.TrimSpace(longHelp))
		logger.Println()
		if hasFlags {
			logger.Println("Flags:")
			logger.Println()
			logger.Println(flagBlock.String())
		}
	}
}

// parseArgs determines the name of the fscat command and whether the user
// asked for help to be printed.
func parseArgs(args []string) (cmdName string, printCmdUsage bool, exit bool) {
	isHelpArg := func() bool {
		return strings.Contains(strings.ToLower(args[1]), "help") || strings.ToLower(args[1]) == "-h"
	}

	switch len(args) {
	case 0, 1:
		exit = true
	case 2:
		if isHelpArg() {
			exit = true
		}
		cmdName = args[1]
	default:
		if isHelpArg() {
			cmdName = args[2]
			printCmdUsage = true
		} else {
			cmdName = args[1]
		}
	}
	return cmdName, printCmdUsage, exit
}

func getEnv(env []string, key string) string {
	for i := len(env) - 1; i >= 0; i-- {
		v := env[i]
		kv := strings.SplitN(v, "=", 2)
		if kv[0] == key {
			if len(kv) > 1 {
				return kv[1]
			}
			return ""
		}
	}
	return ""
}
