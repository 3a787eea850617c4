// Command polybool evaluates CSG scripts and runs Boolean operations on
// STL files.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/chazu/polybool/pkg/config"
	"github.com/chazu/polybool/pkg/csg"
	"github.com/spf13/cobra"
)

// options holds the configuration shared by all subcommands. It is filled
// in by the root command before any subcommand runs.
type options struct {
	cfg    *config.Config
	logger *slog.Logger

	kernel   string
	seed     uint64
	logLevel string
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "polybool",
		Short: "Polyhedral CSG for scripts and STL files",
		Long: `polybool builds solids from Lisp scripts and combines triangle meshes
with exact polyhedral Boolean operations (union, intersection, difference).
Settings are read from POLYBOOL_* environment variables; flags override them.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.kernel, "kernel", "", "geometry kernel: polyhedral or sdfx")
	flags.Uint64Var(&o.seed, "seed", 1, "seed for ray perturbation")
	flags.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newEvalCmd(o), newBooleanCmd(o), newInfoCmd())
	return root
}

// load reads the environment, applies flag overrides and installs the
// logger.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("kernel") {
		cfg.Kernel = o.kernel
	}
	if flags.Changed("seed") {
		cfg.Seed = o.seed
	}
	if flags.Changed("log-level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(o.logLevel)); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
	csg.SetLogger(o.logger)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
