package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sghaida/fixtures/examples/models"
	"github.com/sghaida/fixtures/hydrate"
	"github.com/sghaida/fixtures/internal/logger"
)

var errNoModel = errors.New("no model given; run 'hydrate list' to see the catalogue")

// app is what the commands operate on.
type app struct {
	catalogue hydrate.Catalogue
	register  func(*hydrate.Registry) error
	stdout    io.Writer
	stderr    io.Writer
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{
		catalogue: models.HydrationCatalogue(),
		register:  models.RegisterHydration,
		stdout:    stdout,
		stderr:    stderr,
	}
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "hydrate [model]",
		Short:         "Print hydrated fixtures for catalogue models",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Model = args[0]
			}
			return a.hydrate(cmd.Context(), cfg)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.Flags()
	flags.StringVar(&configFile, "config", "", "YAML config file")
	flags.Int("count", 1, "number of values to hydrate")
	flags.Int("recursion", 0, "recursion limit")
	flags.Uint64("seed", 0, "seed for deterministic choices")
	flags.String("format", FormatYAML, "output format: yaml, json or dump")
	flags.String("log-level", "warn", "log level: debug, info, warn, error or disabled")

	root.AddCommand(a.listCmd())
	return root
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the models that can be hydrated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range a.catalogue.Names() {
				entry, _ := a.catalogue.Lookup(name)
				if _, err := fmt.Fprintf(a.stdout, "%-12s %s\n", name, entry.Type); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) hydrate(ctx context.Context, cfg Config) error {
	if cfg.Model == "" {
		return errNoModel
	}
	entry, ok := a.catalogue.Lookup(cfg.Model)
	if !ok {
		return fmt.Errorf("unknown model %q; run 'hydrate list' to see the catalogue", cfg.Model)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		Output:     a.stderr,
		TimeFormat: "15:04:05",
	})
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.ContextWithLogger(ctx, log)

	opts := []hydrate.Option{hydrate.WithRecursionLimit(cfg.Recursion)}
	if cfg.Seed != nil {
		opts = append(opts, hydrate.WithSeed(*cfg.Seed))
	}
	reg, err := hydrate.Configure(opts...)
	if err != nil {
		return err
	}
	if err := a.register(reg); err != nil {
		return fmt.Errorf("register %s hydration: %w", cfg.Model, err)
	}

	started := time.Now()
	vals, err := entry.HydrateMany(ctx, reg, cfg.Count)
	if err != nil {
		return err
	}
	log.Info("hydrated", "model", cfg.Model, "count", len(vals), "elapsed", time.Since(started))

	return render(a.stdout, cfg.Format, vals)
}
