package app

import (
	"context"
	"fmt"
	"time"

	"gamemaster-quiz/internal/domain"
	"gamemaster-quiz/internal/logger"
)

const topPlayersInStats = 5

// AdminService bundles maintenance operations over all stores.
type AdminService struct {
	users   UserRepository
	scores  ScoreRepository
	scoring *ScoreService
	catalog *CatalogService
	archive Archiver
	now     func() time.Time
	log     *logger.Logger
}

func NewAdminService(users UserRepository, scores ScoreRepository, scoring *ScoreService, catalog *CatalogService, archive Archiver, log *logger.Logger) *AdminService {
	return &AdminService{
		users:   users,
		scores:  scores,
		scoring: scoring,
		catalog: catalog,
		archive: archive,
		now:     time.Now,
		log:     log,
	}
}

// Backup snapshots every data file. An empty name defaults to backup_<timestamp>.
func (a *AdminService) Backup(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = "backup_" + a.now().Format("20060102_150405")
	}
	dir, err := a.archive.Backup(ctx, name)
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	a.log.Info("backup created", "dir", dir)
	return dir, nil
}

// Restore copies a backup over the live data and reloads every store.
func (a *AdminService) Restore(ctx context.Context, dir string) error {
	if err := a.archive.Restore(ctx, dir); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	for _, store := range []interface{}{a.users, a.scores} {
		if r, ok := store.(Reloader); ok {
			if err := r.Reload(ctx); err != nil {
				return fmt.Errorf("reload after restore: %w", err)
			}
		}
	}
	if err := a.catalog.Purge(ctx); err != nil {
		return err
	}
	a.log.Info("backup restored", "dir", dir)
	return nil
}

// SystemStats summarizes users, scores and quizzes.
func (a *AdminService) SystemStats(ctx context.Context) (domain.SystemStats, error) {
	var stats domain.SystemStats

	users, err := a.users.ListUsers(ctx)
	if err != nil {
		return stats, err
	}
	stats.TotalUsers = len(users)
	for _, u := range users {
		stats.TotalGamesPlayed += u.GamesPlayed
	}

	book, err := a.scores.LoadScores(ctx)
	if err != nil {
		return stats, err
	}
	stats.TotalScoreEntries = len(book.Leaderboard)
	totals := make(map[string]int)
	counts := make(map[string]int)
	for _, e := range book.Leaderboard {
		stats.TotalPointsScored += e.Score
		totals[e.Quiz] += e.Score
		counts[e.Quiz]++
	}
	stats.QuizAverages = make(map[string]float64, len(totals))
	for quiz, total := range totals {
		stats.QuizAverages[quiz] = average(total, counts[quiz])
	}

	refs, err := a.catalog.ListAvailable(ctx)
	if err != nil {
		return stats, err
	}
	stats.TotalQuizzes = len(refs)
	for _, ref := range refs {
		if ref.Custom {
			stats.CustomQuizzes++
		} else {
			stats.DefaultQuizzes++
		}
	}

	ranked := rankUsers(book.UserStats)
	stats.TopPlayers = ranked[:limitOf(topPlayersInStats, len(ranked))]
	return stats, nil
}

// CleanupOrphanedScores drops leaderboard entries whose user no longer exists and
// rebuilds the aggregates. It returns the number of entries removed.
func (a *AdminService) CleanupOrphanedScores(ctx context.Context) (int, error) {
	users, err := a.users.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.Username] = true
	}
	removed, err := a.rewrite(ctx, func(e domain.ScoreEntry) bool { return known[e.Username] })
	if err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}
	a.log.Info("orphaned scores removed", "count", removed)
	return removed, nil
}

// RecomputeStats rebuilds all aggregates from the leaderboard.
func (a *AdminService) RecomputeStats(ctx context.Context) error {
	return a.scoring.Repair(ctx)
}

// ResetScores clears the leaderboard and every aggregate.
func (a *AdminService) ResetScores(ctx context.Context) error {
	if _, err := a.rewrite(ctx, func(domain.ScoreEntry) bool { return false }); err != nil {
		return fmt.Errorf("reset scores: %w", err)
	}
	a.log.Info("scores reset")
	return nil
}

// DeleteUser removes a user and every score they own.
func (a *AdminService) DeleteUser(ctx context.Context, username string) error {
	if err := a.users.DeleteUser(ctx, username); err != nil {
		return err
	}
	removed, err := a.rewrite(ctx, func(e domain.ScoreEntry) bool { return e.Username != username })
	if err != nil {
		return fmt.Errorf("delete user scores: %w", err)
	}
	a.log.Info("user deleted", "username", username, "scores_removed", removed)
	return nil
}

// rewrite keeps the entries accepted by keep, recomputes the aggregates and syncs users.
func (a *AdminService) rewrite(ctx context.Context, keep func(domain.ScoreEntry) bool) (int, error) {
	book, err := a.scores.LoadScores(ctx)
	if err != nil {
		return 0, err
	}
	kept := make([]domain.ScoreEntry, 0, len(book.Leaderboard))
	for _, e := range book.Leaderboard {
		if keep(e) {
			kept = append(kept, e)
		}
	}
	if err := a.scoring.replace(ctx, kept); err != nil {
		return 0, err
	}
	return len(book.Leaderboard) - len(kept), nil
}
