package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/blindpoll/internal/app"
	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
)

func parseQuestionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid question id %q", arg)
	}
	return id, nil
}

// started returns the app after loading the open questions.
func started(cmd *cobra.Command) (*app.App, error) {
	a := appFrom(cmd.Context())
	if err := a.Voter.Start(cmd.Context()); err != nil {
		return nil, err
	}
	return a, nil
}

func printBallot(w io.Writer, v *ports.BallotView) {
	fmt.Fprintf(w, "[%d] %s (%s)\n", v.QuestionID, v.Text, v.Type)
	fmt.Fprintf(w, "  state: %s  signed: %t  can vote: %t  closed: %t\n", v.State, v.AllSigned, v.CanVote, v.Closed)
	fmt.Fprintf(w, "  options: %s\n", strings.Join(v.Options, ", "))
	if v.Selected != "" {
		fmt.Fprintf(w, "  selected: %s\n", v.Selected)
	}
	if len(v.Ranked) > 0 {
		fmt.Fprintf(w, "  ranked: %s\n", strings.Join(v.Ranked, " > "))
	}
	if len(v.Submitted) > 0 {
		fmt.Fprintf(w, "  submitted: %s\n", strings.Join(v.Submitted, " > "))
	}
}

func questionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "List open questions and the state of your ballots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := started(cmd)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tSTATE\tSIGNED\tCAN VOTE\tQUESTION")
			for _, v := range a.Voter.Questions(cmd.Context()) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%t\t%s\n", v.QuestionID, v.Type, v.State, v.AllSigned, v.CanVote, v.Text)
			}
			return tw.Flush()
		},
	}
}

func selectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "select <question-id> <response>",
		Short: "Choose the response of a single-choice ballot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseQuestionID(args[0])
			if err != nil {
				return err
			}
			a, err := started(cmd)
			if err != nil {
				return err
			}
			v, err := a.Voter.Select(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			printBallot(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func rankCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rank <question-id> <add|up|down|before|delete> <response> [before-response]",
		Short: "Edit the ranking of a ranked-choice ballot",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseQuestionID(args[0])
			if err != nil {
				return err
			}
			input := ports.RankInput{Op: ports.RankOp(args[1]), Response: args[2]}
			if input.Op == ports.RankBefore {
				if len(args) != 4 {
					return fmt.Errorf("before needs the response to insert in front of")
				}
				input.Before = args[3]
			}
			a, err := started(cmd)
			if err != nil {
				return err
			}
			v, err := a.Voter.Rank(cmd.Context(), id, input)
			if err != nil {
				return err
			}
			printBallot(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func signCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sign <question-id>",
		Short: "Request signatures for any unsigned chit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseQuestionID(args[0])
			if err != nil {
				return err
			}
			a, err := started(cmd)
			if err != nil {
				return err
			}
			v, err := a.Voter.Sign(cmd.Context(), id)
			if v != nil {
				printBallot(cmd.OutOrStdout(), v)
			}
			return err
		},
	}
}

func voteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <question-id>",
		Short: "Submit your ballot and verify it was counted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseQuestionID(args[0])
			if err != nil {
				return err
			}
			a, err := started(cmd)
			if err != nil {
				return err
			}
			v, err := a.Voter.Vote(cmd.Context(), id)
			if v != nil {
				printBallot(cmd.OutOrStdout(), v)
			}
			if s := a.Voter.Session(); s.Trouble {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: the ballot authority misbehaved in this session")
			}
			return err
		},
	}
}

func verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <question-id>",
		Short: "Check your vote against the authority's published records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseQuestionID(args[0])
			if err != nil {
				return err
			}
			a, err := started(cmd)
			if err != nil {
				return err
			}
			report, err := a.Voter.Verify(cmd.Context(), id)
			if report != nil {
				fmt.Fprintln(cmd.OutOrStdout(), report.Message)
				printResult(cmd.OutOrStdout(), &report.Result)
			}
			return err
		},
	}
}
