// Package chat runs the questionnaire interactively in the terminal.
// Useful for walking the decision tree without a telephony platform or a
// browser in front of it.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/myrjola/allocovid/internal/conversation"
	"github.com/myrjola/allocovid/internal/triage"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "chat",
	Title: "Conversation",
}

var Chat = &cobra.Command{
	Use:     "chat",
	GroupID: "chat",
	Short:   "Run the questionnaire in the terminal",
	Long:    `Starts an interactive triage questionnaire reading answers from stdin.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func run(ctx context.Context, in io.Reader, out io.Writer) error {
	questions, err := triage.LoadQuestions()
	if err != nil {
		return err
	}
	conclusions, err := triage.LoadConclusions()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bot := conversation.NewBot(
		conversation.NewEngine(questions, conclusions, logger),
		conversation.NewMemoryStore(),
		nil,
		logger,
	)

	sessionID := uuid.NewString()
	scanner := bufio.NewScanner(in)

	output := bot.Handle(ctx, sessionID, conversation.Input{Utterance: "Bonjour"})
	emit(out, output)
	for !output.End && scanner.Scan() {
		utterance := strings.TrimSpace(scanner.Text())
		output = bot.Handle(ctx, sessionID, conversation.Input{Utterance: utterance})
		emit(out, output)
	}
	return scanner.Err()
}

func emit(out io.Writer, output conversation.Output) {
	_, _ = fmt.Fprintln(out, output.Text)
	if len(output.Suggestions) > 0 {
		_, _ = fmt.Fprintf(out, "[%s]\n", strings.Join(output.Suggestions, " / "))
	}
}
