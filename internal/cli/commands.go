package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"gamemaster-quiz/internal/domain"
	"github.com/spf13/cobra"
)

// NewQuizzesCmd lists every playable bank.
func NewQuizzesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quizzes",
		Short: "List available quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			refs, err := a.catalog.ListAvailable(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(refs) == 0 {
				fmt.Fprintln(out, "No quizzes available. Run `seed` to create the default ones.")
				return nil
			}
			for _, ref := range refs {
				kind := "default"
				if ref.Custom {
					kind = "custom"
				}
				fmt.Fprintf(out, "%-30s %s\n", ref.ID, kind)
			}
			return nil
		},
	}
}

// NewCreateCmd builds a custom quiz from blocks read on stdin: a prompt line, four
// option lines and the number of the correct option. A blank prompt ends input.
func NewCreateCmd(configPath *string) *cobra.Command {
	var name, username, password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a custom quiz from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.auth.Login(ctx, username, password); err != nil {
				return err
			}
			questions, err := readQuestions(cmd)
			if err != nil {
				return err
			}
			ref, err := a.catalog.CreateCustom(ctx, username, name, questions)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Custom quiz %q created with %d question(s).\n", ref.ID, len(questions))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "quiz name")
	cmd.Flags().StringVar(&username, "user", "", "author username")
	cmd.Flags().StringVar(&password, "password", "", "author password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func readQuestions(cmd *cobra.Command) ([]domain.Question, error) {
	in := bufio.NewScanner(cmd.InOrStdin())
	var questions []domain.Question
	for in.Scan() {
		prompt := strings.TrimSpace(in.Text())
		if prompt == "" {
			break
		}
		q := domain.Question{Prompt: prompt}
		for len(q.Options) < 4 && in.Scan() {
			q.Options = append(q.Options, in.Text())
		}
		if !in.Scan() {
			return nil, fmt.Errorf("question %q: missing correct option number", prompt)
		}
		n, err := strconv.Atoi(strings.TrimSpace(in.Text()))
		if err != nil {
			return nil, fmt.Errorf("question %q: %w: correct option must be a number", prompt, domain.ErrInvalidInput)
		}
		q.CorrectIndex = n - 1
		questions = append(questions, q)
	}
	return questions, in.Err()
}

// NewLeaderboardCmd prints the best results or the player ranking.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var (
		limit   int
		players bool
		user    string
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			if user != "" {
				stats, ok, err := a.scoring.UserStats(ctx, user)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(out, "%s has not finished any quiz yet.\n", user)
					return nil
				}
				rank, _, err := a.scoring.RankOf(ctx, user)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: rank #%d, %d games, %d points, average %.1f\n", user, rank, stats.TotalGames, stats.TotalScore, stats.AverageScore)
				return nil
			}

			if players {
				rows, err := a.scoring.TopByAggregate(ctx, limit)
				if err != nil {
					return err
				}
				for i, row := range rows {
					fmt.Fprintf(out, "%2d. %-20s %6d points  %3d games  avg %.1f\n", i+1, row.Username, row.TotalScore, row.TotalGames, row.AverageScore)
				}
				return nil
			}

			entries, err := a.scoring.TopScores(ctx, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No scores yet.")
				return nil
			}
			for i, e := range entries {
				fmt.Fprintf(out, "%2d. %-20s %4d  %-20s %s\n", i+1, e.Username, e.Score, e.Quiz, e.RecordedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of rows; 0 shows all")
	cmd.Flags().BoolVar(&players, "players", false, "rank players by total score")
	cmd.Flags().StringVar(&user, "user", "", "show rank and stats of one player")
	return cmd
}

// NewRegisterCmd creates a player account.
func NewRegisterCmd(configPath *string) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new player",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.auth.Register(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s.\n", username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "username (at least 3 characters)")
	cmd.Flags().StringVar(&password, "password", "", "password (at least 4 characters)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// NewSeedCmd writes the built-in quizzes that are missing or unplayable.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			written, err := a.catalog.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			if len(written) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Default quizzes already present.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", strings.Join(written, ", "))
			return nil
		},
	}
}
