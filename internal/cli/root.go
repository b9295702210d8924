// Package cli implements the catalog command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/catalog/internal/log"
	"github.com/mesh-intelligence/catalog/pkg/catalog"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values shared by every subcommand.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app is the state of one CLI invocation.
type app struct {
	flags     rootFlags
	configDir string
	cfg       *viper.Viper
	log       log.Logger
}

// NewRootCmd creates the top-level "catalog" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: log.Root}

	root := &cobra.Command{
		Use:     "catalog",
		Short:   "Browse and edit a schema metadata catalog",
		Long:    "Catalog lists, shows, creates, updates and deletes databases, tables,\ngroupings and columns held by a catalog REST backend.",
		Version: catalog.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}
	// Errors are printed once by Execute.
	root.SilenceUsage = true
	root.SilenceErrors = true

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory for serve and init (default: platform data dir)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newModelsCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(stderr io.Writer) error {
	if a.flags.verbose {
		a.log = log.New(stderr, true)
	}
	dir, err := resolveConfigDir(a.flags.configDir)
	if err != nil {
		return systemError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(dir)
	if err != nil {
		return systemError(err)
	}
	a.configDir = dir
	a.cfg = cfg
	return nil
}

// Execute runs the root command with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// Main runs the CLI against the process arguments and exits.
func Main() {
	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr))
}

// sysErr marks an error as an environment or backend failure.
type sysErr struct{ err error }

func (e sysErr) Error() string { return e.err.Error() }
func (e sysErr) Unwrap() error { return e.err }

func systemError(err error) error { return sysErr{err} }

// exitCode maps an error to exitUserError or exitSysError. Bad input,
// unknown models, missing records, and 4xx responses are user errors.
func exitCode(err error) int {
	var se sysErr
	if errors.As(err, &se) {
		return exitSysError
	}
	var re *types.RemoteError
	if errors.As(err, &re) {
		if re.IsClientError() {
			return exitUserError
		}
		return exitSysError
	}
	switch {
	case errors.Is(err, types.ErrUnknownModel),
		errors.Is(err, types.ErrUnknownField),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrNotImplemented),
		errors.Is(err, errUsage):
		return exitUserError
	}
	return exitSysError
}
