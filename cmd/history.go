package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/config"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/domain"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/repository"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var errNoLocalLog = errors.New("no local activity log configured (set local_log_file or pass --file)")

type historyOptions struct {
	file   string
	limit  int
	output string
}

// newHistoryCmd creates the history command
func newHistoryCmd(root *rootOptions) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show runs recorded in the local activity log mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}
			path := opts.file
			if path == "" {
				cfg, err := config.Load(root.configFile)
				if err != nil {
					return err
				}
				path = cfg.LocalLogFile
			}
			if path == "" {
				return errNoLocalLog
			}
			entries, err := repository.NewActivityLog(afero.NewOsFs(), path).Entries(cmd.Context())
			if err != nil {
				return err
			}
			if opts.limit > 0 && len(entries) > opts.limit {
				entries = entries[len(entries)-opts.limit:]
			}
			return renderHistory(cmd.OutOrStdout(), entries, opts.output)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "Local activity log to read (default local_log_file)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Show only the last n runs")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputText, "Output format: text, json or yaml")
	return cmd
}

func renderHistory(w io.Writer, entries []domain.ActivityEntry, format string) error {
	if entries == nil {
		entries = []domain.ActivityEntry{}
	}
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode history: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to encode history: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTATUS\tRUN\tSUMMARY")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			entry.Time.UTC().Format(repository.LogTimeFormat), entry.Status, entry.RunID, entry.Summary())
	}
	return tw.Flush()
}
