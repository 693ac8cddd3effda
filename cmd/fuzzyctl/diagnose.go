package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/respira-diag/fuzzydx/internal/diagnosis"
	"github.com/respira-diag/fuzzydx/internal/shared/errors"
)

func newDiagnoseCmd(root *rootOptions) *cobra.Command {
	var (
		sets       []string
		inputsFile string
		strategy   string
		top        int
		trace      bool
	)

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Rank likely diseases for a set of symptom values",
		Example: `  fuzzyctl diagnose --set demam=7.5 --set batuk=6
  fuzzyctl diagnose --inputs patient.json --strategy mamdani --top 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := make(map[string]float64)
			if inputsFile != "" {
				fromFile, err := readInputsFile(inputsFile)
				if err != nil {
					return err
				}
				for k, v := range fromFile {
					inputs[k] = v
				}
			}
			if err := parseAssignments(sets, inputs); err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no symptoms given; use --set name=value or --inputs file.json")
			}

			s, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			resp, err := s.service.Diagnose(cmd.Context(), diagnosis.Request{
				Inputs:   inputs,
				Strategy: diagnosis.Strategy(strategy),
				TopN:     top,
				Trace:    trace,
			})
			if err != nil {
				return describeError(err)
			}

			out := cmd.OutOrStdout()
			if root.jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printDiagnosis(out, resp)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&sets, "set", nil, "symptom value as name=value (repeatable)")
	f.StringVar(&inputsFile, "inputs", "", "JSON file mapping symptom names to values")
	f.StringVar(&strategy, "strategy", "", "weighted or mamdani (default from INFERENCE_STRATEGY)")
	f.IntVar(&top, "top", 0, "number of diagnoses to rank (default from INFERENCE_TOP_N)")
	f.BoolVar(&trace, "trace", false, "show how each rule was evaluated")

	return cmd
}

// describeError flattens validation details into the message.
func describeError(err error) error {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || len(appErr.Details) == 0 {
		return err
	}
	keys := make([]string, 0, len(appErr.Details))
	for k := range appErr.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msg := appErr.Message
	for _, k := range keys {
		msg += fmt.Sprintf("\n  %s: %s", k, appErr.Details[k])
	}
	return stderrors.New(msg)
}

func printDiagnosis(out io.Writer, resp *diagnosis.Response) {
	fmt.Fprintf(out, "Strategy:   %s\n", resp.Strategy)
	fmt.Fprintf(out, "Knowledge:  %s\n", resp.KnowledgeVersion.Short())
	if resp.CrispScore != nil {
		fmt.Fprintf(out, "Crisp:      %.3f\n", *resp.CrispScore)
	}
	fmt.Fprintln(out)

	if resp.NoEvidence {
		fmt.Fprintln(out, "No diagnosis: none of the rules matched the given symptoms.")
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tDISEASE\tSCORE\tCONFIDENCE")
		for _, d := range resp.Diagnoses {
			fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.2f%%\n", d.Rank, d.Disease, d.Score, d.Confidence)
		}
		tw.Flush()
	}

	if resp.Trace == nil {
		return
	}
	fmt.Fprintln(out)
	for _, r := range resp.Trace.Rules {
		fmt.Fprintf(out, "%s: base %.4f, %d matched (ratio %.2f), boosted %.4f\n",
			r.Disease, r.Base, r.Matches, r.MatchRatio, r.Boosted)
		for _, c := range r.Contributions {
			fmt.Fprintf(out, "  %-24s mu=%.3f w=%.3f -> %.4f\n", c.Condition.Token(), c.Degree, c.Weight, c.Value)
		}
	}
	for _, a := range resp.Trace.Activations {
		fmt.Fprintf(out, "%s: alpha %.4f\n", a.Disease, a.Alpha)
	}
}
