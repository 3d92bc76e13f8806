// Package commands implements the CLI commands for watchdag.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/watchdag/internal/app"
	"go.trai.ch/watchdag/internal/build"
)

// CLI represents the command line interface for watchdag.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, root string, opts app.RunOptions) error
	SetLogJSON(enable bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "watchdag",
		Short:         "Watches files and runs a task DAG when they change",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			once, _ := cmd.Flags().GetBool("once")
			task, _ := cmd.Flags().GetString("task")
			logLevel, _ := cmd.Flags().GetString("log-level")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			outputMode, _ := cmd.Flags().GetString("output-mode")

			if logLevel == "json" {
				a.SetLogJSON(true)
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			return a.Run(cmd.Context(), cwd, app.RunOptions{
				ConfigPath: configPath,
				Once:       once,
				Task:       task,
				DryRun:     dryRun,
				OutputMode: outputMode,
			})
		},
	}

	rootCmd.Flags().StringP("config", "c", "", "Path to the config file (default \"Watchdag.toml\")")
	rootCmd.Flags().Bool("once", false, "Run until idle, then exit, instead of watching continuously")
	rootCmd.Flags().StringP("task", "t", "", "Restrict the initial run to a single named task")
	rootCmd.Flags().String("log-level", "", "Set to \"json\" for structured log output; other values are accepted but ignored (logging stays at info level)")
	rootCmd.Flags().Bool("dry-run", false, "Load and validate the config, print the plan, and exit")
	rootCmd.Flags().StringP("output-mode", "o", "auto", "Output mode: auto, tui, or linear")

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
