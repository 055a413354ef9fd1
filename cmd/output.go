package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/domain"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q (use text, json or yaml)", format)
}

// renderReport writes report to w in the requested format.
func renderReport(w io.Writer, report *domain.RunReport, format string) error {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return renderText(w, report)
	}
}

func renderText(w io.Writer, report *domain.RunReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run:\t%s\n", report.RunID)
	fmt.Fprintf(tw, "Status:\t%s\n", report.Status)
	fmt.Fprintf(tw, "Repository:\t%s\n", report.Repository)
	if report.DryRun {
		fmt.Fprintf(tw, "Mode:\tdry-run\n")
	}
	if report.Branch != "" {
		fmt.Fprintf(tw, "Branch:\t%s -> %s\n", report.Branch, report.Base)
	}
	if report.PRNumber != 0 {
		fmt.Fprintf(tw, "Pull request:\t#%d %s\n", report.PRNumber, report.PRURL)
	}
	if report.MergeSHA != "" {
		fmt.Fprintf(tw, "Merge commit:\t%s\n", report.MergeSHA)
	}
	if report.Error != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", report.Error)
	}
	fmt.Fprintf(tw, "Duration:\t%s\n", report.Duration)
	fmt.Fprintln(tw, "Steps:")
	for _, step := range report.Steps {
		line := fmt.Sprintf("  %s\t%s", step.Type, step.Status)
		if reason := step.Details["reason"]; reason != "" {
			line += " (" + reason + ")"
		}
		if step.Error != "" {
			line += ": " + strings.TrimSpace(step.Error)
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}
