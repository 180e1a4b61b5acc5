// Package cli provides the command-line interface for rolling dice locally.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/diceroller/internal/config"
	"github.com/cory-johannsen/diceroller/internal/dice"
	"github.com/cory-johannsen/diceroller/internal/observability"
	"github.com/cory-johannsen/diceroller/internal/scripting"
)

// Version information (set at build time).
var Version = "0.1.0"

type options struct {
	seed     uint64
	format   string
	maxDice  int
	macroDir string
	macro    string
	verbose  bool
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "roll [roll-string ...]",
		Short: "Roll dice-notation expressions such as 3d6+d8-2",
		Long: `roll evaluates dice-notation expressions and prints each total together
with every individual die rolled, grouped by the roll token that produced it.

Expressions combine NdS tokens and integers with + - * /. The first + or -
splits an expression before any * or /. Division floors. With no arguments
the default roll string 1d20 is rolled.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	flags := rootCmd.Flags()
	flags.Uint64Var(&opts.seed, "seed", 0, "seed a deterministic source (default: crypto/rand)")
	flags.StringVarP(&opts.format, "format", "f", "text", "output format: text, json, or yaml")
	flags.IntVar(&opts.maxDice, "max-dice", 1000, "reject roll tokens with more dice than this; 0 disables")
	flags.StringVar(&opts.macroDir, "macros", "", "directory of Lua roll macros")
	flags.StringVar(&opts.macro, "macro", "", "expand this macro with the positional args and roll the result")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log every roll at debug level to stderr")

	return rootCmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	if opts.format != "text" && opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unknown format %q: must be text, json, or yaml", opts.format)
	}

	logger := zap.NewNop()
	if opts.verbose {
		l, err := observability.NewLogger(config.LoggingConfig{Level: "debug", Format: "console"})
		if err != nil {
			return err
		}
		defer l.Sync()
		logger = l
	}

	src := dice.NewCryptoSource()
	if cmd.Flags().Changed("seed") {
		src = dice.NewSeededSource(opts.seed)
	}
	roller := dice.NewLoggedRoller(dice.NewEvaluator(src, dice.WithMaxDice(opts.maxDice)), logger)

	rollStrings, err := resolveRollStrings(opts, args, logger)
	if err != nil {
		return err
	}

	results := make([]dice.RollResult, 0, len(rollStrings))
	for _, s := range rollStrings {
		result, err := roller.Roll(s)
		if err != nil {
			return err
		}
		results = append(results, result)
	}
	return render(cmd.OutOrStdout(), opts.format, results)
}

func resolveRollStrings(opts *options, args []string, logger *zap.Logger) ([]string, error) {
	if opts.macro == "" {
		if len(args) == 0 {
			return []string{dice.DefaultRollString}, nil
		}
		return args, nil
	}
	if opts.macroDir == "" {
		return nil, fmt.Errorf("--macro requires --macros")
	}
	mgr := scripting.NewManager(logger, 0)
	defer mgr.Close()
	if err := mgr.LoadDir(opts.macroDir); err != nil {
		return nil, err
	}
	expr, err := mgr.Expand(opts.macro, args...)
	if err != nil {
		return nil, err
	}
	return []string{expr}, nil
}

func render(w io.Writer, format string, results []dice.RollResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encoding json: %w", err)
			}
		}
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encoding yaml: %w", err)
			}
		}
	default:
		for _, r := range results {
			if _, err := fmt.Fprintln(w, r.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
