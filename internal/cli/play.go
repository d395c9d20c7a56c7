package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gamemaster-quiz/internal/app"
	"gamemaster-quiz/internal/domain"
	"github.com/spf13/cobra"
)

// NewPlayCmd runs one quiz session on stdin/stdout.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		quizID   string
		custom   bool
		username string
		password string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz; answers are read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if username != "" {
				if _, err := a.auth.Login(ctx, username, password); err != nil {
					return err
				}
			}
			session, err := a.quiz.LoadQuiz(ctx, quizID, custom, username)
			if err != nil {
				return err
			}
			return runSession(cmd, session)
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id to play")
	cmd.Flags().BoolVar(&custom, "custom", false, "play a custom quiz")
	cmd.Flags().StringVar(&username, "user", "", "username; omit to play anonymously")
	cmd.Flags().StringVar(&password, "password", "", "password for --user")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}

func runSession(cmd *cobra.Command, session *app.Session) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	for {
		q, ok := session.CurrentQuestion()
		if !ok {
			break
		}
		answered, total := session.Progress()
		fmt.Fprintf(out, "\nQuestion %d/%d: %s\n", answered+1, total, q.Prompt)
		for i, opt := range q.Options {
			fmt.Fprintf(out, "  %d. %s\n", i+1, opt)
		}
		fmt.Fprint(out, "Your answer: ")

		if !in.Scan() {
			if err := in.Err(); err != nil {
				return err
			}
			return fmt.Errorf("input closed after %d of %d questions: %w", answered, total, io.ErrUnexpectedEOF)
		}
		choice, err := strconv.Atoi(strings.TrimSpace(in.Text()))
		if err != nil {
			fmt.Fprintln(out, "Please enter the number of an option.")
			continue
		}

		res, err := session.SubmitAnswer(ctx, choice-1)
		if err != nil && !errors.Is(err, domain.ErrCredentialSync) {
			return err
		}
		if res.Correct {
			fmt.Fprintf(out, "Correct! +%d points\n", res.Awarded)
		} else {
			fmt.Fprintf(out, "Wrong. The answer was %d. %s\n", res.CorrectIndex+1, q.Options[res.CorrectIndex])
		}
		if err != nil {
			fmt.Fprintln(out, "Your score was saved, but your profile totals could not be updated; run `admin recompute` to repair them.")
		}
	}

	summary := session.Summary()
	fmt.Fprintf(out, "\nQuiz complete! Score: %d/%d (%.1f%%)\n%s\n", summary.Score, summary.MaxScore, summary.Percentage, summary.Message)
	return nil
}
