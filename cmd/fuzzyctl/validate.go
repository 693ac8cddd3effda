package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/respira-diag/fuzzydx/internal/knowledge"
	"github.com/respira-diag/fuzzydx/internal/shared/logging"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the knowledge tables and report rejected rows",
		Long: `validate loads the configured knowledge source without serving it and
prints what was accepted and which rows were skipped. It fails when no
membership set survives, or with --strict when any row was rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			log := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			source, closeSource, err := knowledge.Open(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeSource()

			tables, err := source.Load(ctx)
			if err != nil {
				return fmt.Errorf("load %s tables: %w", source.Name(), err)
			}
			report := knowledge.Build(tables, knowledge.BuildOptions{Source: source.Name()}).Report

			out := cmd.OutOrStdout()
			if root.jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(out, report)
			}

			switch {
			case report.Variables == 0:
				return knowledge.ErrEmptyKnowledgeBase
			case strict && report.RejectedCount() > 0:
				return fmt.Errorf("%d rows rejected", report.RejectedCount())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any row is rejected")
	return cmd
}

func printReport(out io.Writer, r knowledge.LoadReport) {
	fmt.Fprintf(out, "Source:     %s\n", r.Source)
	fmt.Fprintf(out, "Version:    %s\n", r.Version)
	fmt.Fprintf(out, "Variables:  %d (%d sets)\n", r.Variables, r.Sets)
	fmt.Fprintf(out, "Rules:      %d\n", r.Rules)
	fmt.Fprintf(out, "Outputs:    %d\n", r.Outputs)
	if len(r.MissingOutputs) > 0 {
		fmt.Fprintf(out, "No output set for: %v\n", r.MissingOutputs)
	}

	tables := make([]string, 0, len(r.RejectedByTable))
	for t := range r.RejectedByTable {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Fprintf(out, "Rejected %s: %d\n", t, r.RejectedByTable[t])
	}
	for _, row := range r.Rejected {
		fmt.Fprintf(out, "  %s line %d", row.Table, row.Line)
		if row.Key != "" {
			fmt.Fprintf(out, " (%s)", row.Key)
		}
		fmt.Fprintf(out, ": %s\n", row.Error)
	}
}
