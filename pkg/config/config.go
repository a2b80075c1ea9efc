// Package config holds the engine's configuration surface and loads it
// from a TOML file, the way golang-dep's manifest/lock layer leans on
// github.com/pelletier/go-toml.
package config

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Options is the single configuration struct the engine accepts. No
// environment variables are consulted directly by the engine.
type Options struct {
	// Test, if set, runs the resolver and conflict analyzer and emits all
	// events, but skips LPS mutation.
	Test bool `toml:"test"`

	// Force passes InstallForce/UninstallForce to the LPS.
	Force bool `toml:"force"`

	// Update passes InstallUpgrade to the LPS.
	Update bool `toml:"update"`

	// Downgrade passes InstallDowngrade to the LPS.
	Downgrade bool `toml:"downgrade"`

	// Verbose raises event-bus detail.
	Verbose bool `toml:"verbose"`

	// Root is the filesystem root for LPS operations.
	Root string `toml:"root"`

	// TmpDir is the directory for downloaded package files.
	TmpDir string `toml:"tmp_dir"`

	// TransactionDir is the directory for journals.
	TransactionDir string `toml:"transaction_dir"`

	// IgnoreFileConflicts skips the conflict analyzer's checks entirely.
	IgnoreFileConflicts bool `toml:"ignore_file_conflicts"`
}

// Default returns the baseline configuration: Root "/" and TransactionDir
// "~/.nautilus/transactions".
func Default() Options {
	home, _ := os.UserHomeDir()
	return Options{
		Root:           "/",
		TransactionDir: home + "/.nautilus/transactions",
	}
}

// Load reads Options from a TOML file at path, applying Default() for any
// field the file leaves unset for TransactionDir/Root.
func Load(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.Wrapf(err, "reading config file %q", path)
	}

	if err := toml.Unmarshal(data, &opts); err != nil {
		return opts, errors.Wrapf(err, "parsing config file %q", path)
	}

	if opts.Root == "" {
		opts.Root = "/"
	}
	if opts.TransactionDir == "" {
		home, _ := os.UserHomeDir()
		opts.TransactionDir = home + "/.nautilus/transactions"
	}

	return opts, nil
}
