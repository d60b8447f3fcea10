package catalog

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/fscat/fscat/fclog"
)

// defaultArchiveExtensions lists the bare extensions recognized by
// IsArchive by default: tar, gz, xz, tgz. zip is also supported by the
// decompressor but is deliberately left out of this list, so IsArchive
// matches a zip only when a caller adds "zip" to ArchiveExtensions.
var defaultArchiveExtensions = []string{"tar", "gz", "xz", "tgz"}

// defaultExcludeNames is the default set of basenames skipped on every
// crawl: version-control metadata directories and vendor trees.
var defaultExcludeNames = []string{"vendor", ".bzr", ".git", ".hg", ".svn"}

// Options is the explicit configuration struct threaded through the
// Crawler. Archive handling, exclusions, and logging are all runtime
// settings rather than compile-time constants.
type Options struct {
	// DecompressArchives enables archive-as-directory handling. Off by
	// default; fully inert when disabled.
	DecompressArchives bool

	// ArchiveExtensions lists the bare extensions (without the leading
	// dot) that are treated as archives when DecompressArchives is set.
	ArchiveExtensions []string

	// ExcludeNames lists path basenames that are skipped entirely during a
	// crawl, never catalogued.
	ExcludeNames []string

	// HashWorkers, when > 1, parallelizes file hashing across a worker
	// pool during a crawl. 0 or 1 means unparallelized.
	HashWorkers int

	Logger fclog.Logger
}

// DefaultOptions returns the zero-configuration defaults: archive handling
// off, the standard VCS exclude list, unparallelized hashing, and a no-op
// logger.
func DefaultOptions() Options {
	return Options{
		DecompressArchives: false,
		ArchiveExtensions:  append([]string(nil), defaultArchiveExtensions...),
		ExcludeNames:       append([]string(nil), defaultExcludeNames...),
		HashWorkers:        0,
		Logger:             fclog.Noop{},
	}
}

// tomlOptions is the on-disk shape of a config.toml file. Only the fields a
// user would reasonably want to persist are exposed; Logger and runtime
// knobs are not serializable configuration.
type tomlOptions struct {
	DecompressArchives bool     `toml:"decompress_archives"`
	ArchiveExtensions  []string `toml:"archive_extensions"`
	ExcludeNames       []string `toml:"exclude_names"`
	HashWorkers        int      `toml:"hash_workers"`
}

// LoadOptionsFile reads a TOML configuration file at path and overlays its
// values onto base. A missing file is not an error: base is returned
// unmodified. This lets a user keep a persistent
// $XDG_CONFIG_HOME/fscat/config.toml instead of repeating flags on every
// invocation.
func LoadOptionsFile(path string, base Options) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, errors.Wrapf(err, "cannot read config file %q", path)
	}

	var t tomlOptions
	if err := toml.Unmarshal(data, &t); err != nil {
		return base, errors.Wrapf(err, "cannot parse config file %q", path)
	}

	out := base
	out.DecompressArchives = t.DecompressArchives
	if len(t.ArchiveExtensions) > 0 {
		out.ArchiveExtensions = t.ArchiveExtensions
	}
	if len(t.ExcludeNames) > 0 {
		out.ExcludeNames = t.ExcludeNames
	}
	if t.HashWorkers > 0 {
		out.HashWorkers = t.HashWorkers
	}
	return out, nil
}

func (o Options) logger() fclog.Logger {
	if o.Logger == nil {
		return fclog.Noop{}
	}
	return o.Logger
}

func (o Options) excludes(name string) bool {
	for _, ex := range o.ExcludeNames {
		if name == ex {
			return true
		}
	}
	return false
}
