package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

func printResult(w io.Writer, r *domain.QuestionResult) {
	switch {
	case r.Single != nil:
		options := make([]string, 0, len(r.Single.Counts))
		for option := range r.Single.Counts {
			options = append(options, option)
		}
		slices.Sort(options)
		fmt.Fprintf(w, "voters: %d\n", r.Single.TotalVotersResponding)
		for _, option := range options {
			fmt.Fprintf(w, "  %s: %d\n", option, r.Single.Counts[option])
		}
	case r.Ranked != nil:
		fmt.Fprintf(w, "voters: %d\n", r.Ranked.TotalVotersResponding)
		for i, round := range r.Ranked.Rounds {
			tallies := make([]string, 0, len(round))
			for _, c := range round {
				tallies = append(tallies, fmt.Sprintf("%s:%d", c.Name, c.Votes))
			}
			fmt.Fprintf(w, "  round %d: %s\n", i+1, strings.Join(tallies, " "))
		}
		if r.Ranked.Winner != "" {
			fmt.Fprintf(w, "winner: %s\n", r.Ranked.Winner)
		} else {
			fmt.Fprintln(w, "no winner")
		}
	}
}

func resultsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "results <question-id>",
		Short: "Tabulate the authority's records for a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseQuestionID(args[0])
			if err != nil {
				return err
			}
			result, err := appFrom(cmd.Context()).Reports.Results(cmd.Context(), id)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}
