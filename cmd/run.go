package cmd

import (
	"fmt"

	"github.com/kenil-gopani/automated-pull-shark-repo/internal/clock"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/config"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/orchestrator"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type runOptions struct {
	dryRun       bool
	keepBranch   bool
	output       string
	filePath     string
	branchPrefix string
}

// newRunCmd creates the run command
func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one pull request cycle",
		Long: `Run one pull request cycle against the configured repository.

The cycle:
- Creates the repository when it does not exist
- Resolves the base branch (main, then master)
- Creates a branch and commits the tracked file
- Opens a pull request and merges it
- Commits a line to the activity log file on the base branch
- Deletes the branch

A failed run still appends a failure entry and exits non-zero.
local_log_file keeps a JSON lines copy of every entry on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}
			cfg, err := config.Load(root.configFile)
			if err != nil {
				return err
			}
			if err := applyOverrides(cfg, cmd.Flags(), root, opts); err != nil {
				return err
			}
			c, err := newContainer(cfg, afero.NewOsFs(), clock.Real(), opts.dryRun)
			if err != nil {
				return err
			}
			defer c.close()

			report, runErr := c.prCycle.Execute(cmd.Context(), orchestrator.PRCycleOptions{
				DryRun:     opts.dryRun,
				KeepBranch: opts.keepBranch,
			})
			if err := renderReport(cmd.OutOrStdout(), report, opts.output); err != nil {
				c.logger.Error("failed to render report", zap.Error(err))
			}
			if runErr != nil {
				return fmt.Errorf("pull request cycle failed: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Log GitHub calls instead of sending them")
	cmd.Flags().BoolVar(&opts.keepBranch, "keep-branch", false, "Keep the branch after merging")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputText, "Report format: text, json or yaml")
	cmd.Flags().StringVar(&opts.filePath, "file", "", "Repository path of the tracked file")
	cmd.Flags().StringVar(&opts.branchPrefix, "branch-prefix", "", "Prefix for generated branch names")
	return cmd
}

// applyOverrides copies explicitly set flags over the loaded configuration
// and validates the result again.
func applyOverrides(cfg *config.Config, flags *pflag.FlagSet, root *rootOptions, opts *runOptions) error {
	if flags.Changed("log-level") {
		cfg.LogLevel = root.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = root.logFormat
	}
	if flags.Changed("file") {
		cfg.Content.FilePath = opts.filePath
	}
	if flags.Changed("branch-prefix") {
		cfg.Content.BranchPrefix = opts.branchPrefix
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}
