package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/stackforge/internal/blueprint"
	"github.com/dotcommander/stackforge/internal/builtin"
	"github.com/dotcommander/stackforge/internal/config"
	"github.com/dotcommander/stackforge/internal/manager"
	"github.com/dotcommander/stackforge/internal/planner"
	"github.com/dotcommander/stackforge/internal/registry"
	"github.com/dotcommander/stackforge/internal/resolver"
	"github.com/dotcommander/stackforge/internal/storage"
	"github.com/dotcommander/stackforge/pkg/forge"
	forgeerr "github.com/dotcommander/stackforge/pkg/forge/errors"
)

type globalFlags struct {
	configPath  string
	projectPath string
	logLevel    string
}

// app wires the engine components for one CLI invocation
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *registry.Registry
	resolver *resolver.Resolver
	manager  *manager.Manager
	planner  *planner.Planner
	fctx     *forge.Context
}

// newCatalog builds only the plugin catalog and resolver, for commands
// that never touch a project tree
func newCatalog(flags *globalFlags) (*registry.Registry, *resolver.Resolver, error) {
	logger := newLogger(flags.logLevel)
	reg := registry.New()
	if err := builtin.Register(reg); err != nil {
		return nil, nil, fmt.Errorf("registering builtin plugins: %w", err)
	}
	return reg, resolver.New(reg, logger), nil
}

// newApp loads configuration and wires the full engine
func newApp(flags *globalFlags) (*app, error) {
	if flags.projectPath != "" {
		os.Setenv("STACKFORGE_PROJECT_PATH", flags.projectPath)
	}
	if flags.logLevel != "" {
		os.Setenv("STACKFORGE_LOG_LEVEL", flags.logLevel)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log.Level)

	pm, err := blueprint.ParsePackageManager(cfg.Packages.Manager)
	if err != nil {
		return nil, err
	}

	fs := storage.NewFileSystem(cfg.Project.Path)
	runner := blueprint.NewRunner(
		blueprint.WithTimeout(cfg.Limits.CommandTimeout),
		blueprint.WithRateLimit(cfg.Limits.CommandsPerMinute, cfg.Limits.BurstSize),
		blueprint.WithMaxOutput(cfg.Limits.MaxOutputBytes),
		blueprint.WithLogger(logger),
	)
	executor := blueprint.NewExecutor(fs, runner, pm, logger)

	reg := registry.New()
	if err := builtin.Register(reg); err != nil {
		return nil, fmt.Errorf("registering builtin plugins: %w", err)
	}
	res := resolver.New(reg, logger)
	mgr := manager.New(reg, executor, logger)

	fctx := forge.NewContext(cfg.Project.Path, cfg.Project.Name, cfg.Packages.Manager, forge.NewLogger(logger))
	fctx.Executor = executor

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		resolver: res,
		manager:  mgr,
		planner:  planner.New(reg, res, mgr, logger),
		fctx:     fctx,
	}, nil
}

func newLogger(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func listCmd(flags *globalFlags) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := newCatalog(flags)
			if err != nil {
				return err
			}

			plugins := reg.All()
			if category != "" {
				plugins = reg.ByCategory(forge.Category(category))
			}
			for _, p := range plugins {
				meta := p.Metadata()
				fmt.Printf("%-12s %-8s %-12s %s\n", meta.Name, meta.Version, meta.Category, meta.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	return cmd
}

func searchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search plugins by name, description or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := newCatalog(flags)
			if err != nil {
				return err
			}
			for _, p := range reg.Search(args[0]) {
				meta := p.Metadata()
				fmt.Printf("%-12s %-12s %s\n", meta.Name, meta.Category, meta.Description)
			}
			return nil
		},
	}
}

func resolveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <plugin>...",
		Short: "Resolve installation order for a plugin set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := newCatalog(flags)
			if err != nil {
				return err
			}

			resolution, err := res.Resolve(args)
			if err != nil {
				return err
			}

			fmt.Println("Installation order:")
			for i, id := range resolution.Order {
				fmt.Printf("  %d. %s\n", i+1, id)
			}
			printResolutionIssues(resolution)
			if resolution.HasErrors() {
				return fmt.Errorf("resolution has errors")
			}
			return nil
		},
	}
}

func printResolutionIssues(resolution *resolver.Resolution) {
	for _, id := range resolution.Missing {
		fmt.Printf("  missing dependency: %s\n", id)
	}
	for _, c := range resolution.Conflicts {
		fmt.Printf("  conflict [%s]: %s / %s: %s\n", c.Severity, c.PluginA, c.PluginB, c.Reason)
	}
}

func installCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "install <plugin>...",
		Short: "Resolve and install plugins into the project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			resolution, err := a.resolver.Resolve(args)
			if err != nil {
				return err
			}
			if resolution.HasErrors() {
				printResolutionIssues(resolution)
				return fmt.Errorf("cannot install: resolution has errors")
			}

			run, err := a.manager.InstallAll(cmd.Context(), resolution.Order, a.fctx)
			if run != nil {
				printResults(run.Results)
			}
			return describeRunError(err)
		},
	}
}

func uninstallCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <plugin>...",
		Short: "Uninstall plugins from the project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			run, err := a.manager.UninstallAll(cmd.Context(), args, a.fctx)
			if run != nil {
				printResults(run.Results)
			}
			return describeRunError(err)
		},
	}
}

// describeRunError adds a usage hint to errors a user can act on
func describeRunError(err error) error {
	switch {
	case err == nil:
		return nil
	case forgeerr.IsNotFound(err):
		return fmt.Errorf("%w (run 'stackforge list' to see available plugins)", err)
	case forgeerr.IsUnsupportedAction(err):
		return fmt.Errorf("%w (the plugin's blueprint uses an action this version does not implement)", err)
	default:
		return err
	}
}

func printResults(results []*forge.PluginResult) {
	for _, result := range results {
		status := "ok"
		if !result.Success {
			status = "failed"
		}
		fmt.Printf("%-12s %-7s %d artifacts (%s)\n", result.PluginID, status, len(result.Artifacts), result.Duration.Round(time.Millisecond))
		for _, e := range result.Errors {
			fmt.Printf("  error: %s\n", e)
		}
		for _, w := range result.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}
}

func planCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "plan <plugin>...",
		Short: "Build an orchestration plan from a plugin set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			plan, resolution, err := a.planner.Build(a.cfg.Project.Name, args)
			if err != nil {
				return err
			}
			printResolutionIssues(resolution)
			if resolution.HasErrors() {
				return fmt.Errorf("cannot plan: resolution has errors")
			}

			data, err := yaml.Marshal(plan)
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Print(string(data))
				return nil
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("writing plan: %w", err)
			}
			fmt.Printf("Plan written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the plan to a YAML file instead of stdout")
	return cmd
}

func applyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <plan.yaml>",
		Short: "Validate and execute an orchestration plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			plan, err := a.planner.LoadPlan(args[0])
			if err != nil {
				return err
			}

			report, execErr := a.planner.Execute(cmd.Context(), plan, a.fctx)
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))

			if execErr != nil {
				return describeRunError(execErr)
			}
			if !report.Success() {
				return fmt.Errorf("plan completed with failures")
			}
			return nil
		},
	}
}
