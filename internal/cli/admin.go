package cli

import (
	"fmt"
	"os"
	"sort"

	"gamemaster-quiz/internal/domain"
	"github.com/spf13/cobra"
)

// NewAdminCmd groups the maintenance commands.
func NewAdminCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Maintenance: backups, statistics and data repair",
	}
	cmd.AddCommand(
		adminBackupCmd(configPath),
		adminRestoreCmd(configPath),
		adminStatsCmd(configPath),
		adminCleanupCmd(configPath),
		adminRecomputeCmd(configPath),
		adminResetCmd(configPath),
		adminDeleteUserCmd(configPath),
		adminDeleteQuizCmd(configPath),
		adminExportCmd(configPath),
		adminImportCmd(configPath),
	)
	return cmd
}

// withApp adapts a command body that needs the wired services.
func withApp(configPath *string, run func(cmd *cobra.Command, a *application, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), *configPath)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}

func adminBackupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [name]",
		Short: "Copy all data files into the backup directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(configPath, func(cmd *cobra.Command, a *application, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			dir, err := a.admin.Backup(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %s\n", dir)
			return nil
		}),
	}
}

func adminRestoreCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <dir>",
		Short: "Restore data files from a backup directory",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(cmd *cobra.Command, a *application, args []string) error {
			if err := a.admin.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored from %s\n", args[0])
			return nil
		}),
	}
}

func adminStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show system statistics",
		RunE: withApp(configPath, func(cmd *cobra.Command, a *application, args []string) error {
			stats, err := a.admin.SystemStats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Users:          %d\n", stats.TotalUsers)
			fmt.Fprintf(out, "Games played:   %d\n", stats.TotalGamesPlayed)
			fmt.Fprintf(out, "Score entries:  %d\n", stats.TotalScoreEntries)
			fmt.Fprintf(out, "Points scored:  %d\n", stats.TotalPointsScored)
			fmt.Fprintf(out, "Quizzes:        %d (%d default, %d custom)\n", stats.TotalQuizzes, stats.DefaultQuizzes, stats.CustomQuizzes)

			quizzes := make([]string, 0, len(stats.QuizAverages))
			for quiz := range stats.QuizAverages {
				quizzes = append(quizzes, quiz)
			}
			sort.Strings(quizzes)
			if len(quizzes) > 0 {
				fmt.Fprintln(out, "Average score per quiz:")
				for _, quiz := range quizzes {
					fmt.Fprintf(out, "  %-24s %.1f\n", quiz, stats.QuizAverages[quiz])
				}
			}
			if len(stats.TopPlayers) > 0 {
				fmt.Fprintln(out, "Top players:")
				for i, p := range stats.TopPlayers {
					fmt.Fprintf(out, "  %d. %-20s %d points\n", i+1, p.Username, p.TotalScore)
				}
			}
			return nil
		}),
	}
}

func adminCleanupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove scores of users that no longer exist",
		RunE: withApp(configPath, func(cmd *cobra.Command, a *application, args []string) error {
			removed, err := a.admin.CleanupOrphanedScores(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d orphaned score(s).\n", removed)
			return nil
		}),
	}
}

func adminRecomputeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild player statistics from the leaderboard",
		RunE: withApp(configPath, func(cmd *cobra.Command, a *application, args []string) error {
			if err := a.admin.RecomputeStats(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Statistics recomputed.")
			return nil
		}),
	}
}

func adminResetCmd(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every score and reset player statistics",
		RunE: withApp(configPath, func(cmd *cobra.Command, a *application, args []string) error {
			if !yes {
				return fmt.Errorf("%w: pass --yes to reset all scores", domain.ErrInvalidInput)
			}
			if err := a.admin.ResetScores(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All scores reset.")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func adminDeleteUserCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <username>",
		Short: "Delete a player and all of their scores",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(cmd *cobra.Command, a *application, args []string) error {
			if err := a.admin.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s.\n", args[0])
			return nil
		}),
	}
}

func adminDeleteQuizCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-quiz <id>",
		Short: "Delete a custom quiz",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(cmd *cobra.Command, a *application, args []string) error {
			if err := a.catalog.DeleteBank(cmd.Context(), domain.BankKey{ID: args[0], Custom: true}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted custom quiz %s.\n", args[0])
			return nil
		}),
	}
}

func adminExportCmd(configPath *string) *cobra.Command {
	var custom bool
	var output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a quiz in the bank file format",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(cmd *cobra.Command, a *application, args []string) error {
			data, err := a.catalog.ExportBank(cmd.Context(), domain.BankKey{ID: args[0], Custom: custom})
			if err != nil {
				return err
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], output)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&custom, "custom", false, "export a custom quiz")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; stdout when empty")
	return cmd
}

func adminImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bank file as a custom quiz",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(cmd *cobra.Command, a *application, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ref, err := a.catalog.ImportBank(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported as custom quiz %s\n", ref.ID)
			return nil
		}),
	}
}
