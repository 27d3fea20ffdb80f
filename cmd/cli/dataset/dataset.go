// Package dataset holds maintenance commands for the embedded
// questionnaire data.
package dataset

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/myrjola/allocovid/internal/errors"
	"github.com/myrjola/allocovid/internal/triage"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "dataset",
	Title: "Dataset operations",
}

var Check = &cobra.Command{
	Use:     "check",
	GroupID: "dataset",
	Short:   "Validate the embedded questionnaire",
	Long: `Loads the embedded questions and conclusions, validates the decision
graph and reports nodes that can never be reached from the start question.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		questions, err := triage.LoadQuestions()
		if err != nil {
			return err
		}
		if _, err = triage.LoadConclusions(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "questions: %d nodes, all choice targets resolve\n", questions.Len())
		_, _ = fmt.Fprintln(out, "conclusions: FIN1..FIN8 loaded")

		if unreachable := questions.Unreachable(); len(unreachable) > 0 {
			_, _ = fmt.Fprintf(os.Stderr, "unreachable nodes: %v\n", unreachable)
			return errors.New("dataset has unreachable nodes", slog.Any("nodes", unreachable))
		}
		_, _ = fmt.Fprintln(out, "every node is reachable from the start question")
		return nil
	},
}
