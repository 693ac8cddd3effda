package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSymptomsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "symptoms",
		Short: "List the symptoms the knowledge base understands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			resp, err := s.service.Symptoms()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if root.jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tSYMPTOM\tRANGE\tSETS")
			for _, cat := range resp.Categories {
				for _, sym := range cat.Symptoms {
					fmt.Fprintf(tw, "%s\t%s\t%g..%g\t%s\n",
						cat.Category, sym.Variable, sym.Min, sym.Max, strings.Join(sym.Sets, ", "))
				}
			}
			return tw.Flush()
		},
	}
}
