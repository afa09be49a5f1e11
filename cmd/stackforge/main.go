// Package main provides the stackforge binary: a project scaffolding
// engine that composes technology plugins into a working project tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	version = "0.1.0"
	appName = "stackforge"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Composable project scaffolding engine",
		Long: `Stackforge scaffolds projects by composing technology plugins.

Plugins declare dependencies, conflicts and file blueprints; the engine
resolves an installation order, detects incompatible combinations, and
applies blueprints either directly or transactionally.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVarP(&flags.projectPath, "project", "p", "", "Target project path")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		listCmd(&flags),
		searchCmd(&flags),
		resolveCmd(&flags),
		installCmd(&flags),
		uninstallCmd(&flags),
		planCmd(&flags),
		applyCmd(&flags),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, version)
		},
	}
}
