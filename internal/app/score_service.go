package app

import (
	"context"
	"fmt"
	"time"

	"gamemaster-quiz/internal/domain"
	"gamemaster-quiz/internal/logger"
)

// ScoreService records finished sessions and answers ranking queries.
type ScoreService struct {
	scores   ScoreRepository
	users    UserRepository
	capacity int
	now      func() time.Time
	log      *logger.Logger
}

func NewScoreService(scores ScoreRepository, users UserRepository, capacity int, log *logger.Logger) *ScoreService {
	return NewScoreServiceWithClock(scores, users, capacity, log, time.Now)
}

// NewScoreServiceWithClock allows deterministic timestamps in tests.
func NewScoreServiceWithClock(scores ScoreRepository, users UserRepository, capacity int, log *logger.Logger, now func() time.Time) *ScoreService {
	return &ScoreService{
		scores:   scores,
		users:    users,
		capacity: capacity,
		now:      now,
		log:      log,
	}
}

// Record persists one finished session for username. The score store is written
// first; if that fails nothing changed. If the credential update fails afterwards
// the returned error wraps domain.ErrCredentialSync and Reconcile can repair it.
func (s *ScoreService) Record(ctx context.Context, username, quizID string, score int) (domain.UserStats, error) {
	book, err := s.scores.LoadScores(ctx)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("load scores: %w", err)
	}

	stats := applyResult(&book, domain.ScoreEntry{
		Username:   username,
		Score:      score,
		Quiz:       quizID,
		RecordedAt: s.now(),
	}, s.capacity)

	if err := s.scores.SaveScores(ctx, book); err != nil {
		return domain.UserStats{}, fmt.Errorf("save scores: %w", err)
	}
	if err := s.users.UpdateStats(ctx, username, stats.TotalGames, stats.TotalScore); err != nil {
		s.log.Error("credential stats update failed", "username", username, "error", err)
		return stats, fmt.Errorf("%w: %s: %w", domain.ErrCredentialSync, username, err)
	}

	s.log.Info("score recorded", "username", username, "quiz", quizID, "score", score, "total_games", stats.TotalGames)
	return stats, nil
}

// Reconcile copies the score store's aggregate for username into the credential store.
func (s *ScoreService) Reconcile(ctx context.Context, username string) error {
	book, err := s.scores.LoadScores(ctx)
	if err != nil {
		return fmt.Errorf("load scores: %w", err)
	}
	stats := book.UserStats[username]
	return s.users.UpdateStats(ctx, username, stats.TotalGames, stats.TotalScore)
}

// Repair recomputes every aggregate from the leaderboard entries and pushes the
// result to the credential store.
func (s *ScoreService) Repair(ctx context.Context) error {
	book, err := s.scores.LoadScores(ctx)
	if err != nil {
		return fmt.Errorf("load scores: %w", err)
	}
	return s.replace(ctx, book.Leaderboard)
}

// replace persists a new leaderboard with freshly recomputed stats and syncs users.
func (s *ScoreService) replace(ctx context.Context, entries []domain.ScoreEntry) error {
	book := domain.ScoreBook{
		Leaderboard: rankEntries(entries, s.capacity),
		UserStats:   RecomputeStats(entries),
	}
	if err := s.scores.SaveScores(ctx, book); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}
	if err := s.users.SyncStats(ctx, book.UserStats); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCredentialSync, err)
	}
	return nil
}

// TopScores returns the best individual results, highest first.
func (s *ScoreService) TopScores(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	book, err := s.scores.LoadScores(ctx)
	if err != nil {
		return nil, err
	}
	return book.Leaderboard[:limitOf(limit, len(book.Leaderboard))], nil
}

// TopByAggregate ranks users by total score; ties go to the alphabetically first username.
func (s *ScoreService) TopByAggregate(ctx context.Context, limit int) ([]domain.UserRanking, error) {
	book, err := s.scores.LoadScores(ctx)
	if err != nil {
		return nil, err
	}
	rows := rankUsers(book.UserStats)
	return rows[:limitOf(limit, len(rows))], nil
}

// RankOf returns the 1-based aggregate rank of username, or false if it has no games.
func (s *ScoreService) RankOf(ctx context.Context, username string) (int, bool, error) {
	book, err := s.scores.LoadScores(ctx)
	if err != nil {
		return 0, false, err
	}
	if _, ok := book.UserStats[username]; !ok {
		return 0, false, nil
	}
	for i, row := range rankUsers(book.UserStats) {
		if row.Username == username {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

// UserStats returns the aggregate of username, or false if it has no games.
func (s *ScoreService) UserStats(ctx context.Context, username string) (domain.UserStats, bool, error) {
	book, err := s.scores.LoadScores(ctx)
	if err != nil {
		return domain.UserStats{}, false, err
	}
	stats, ok := book.UserStats[username]
	return stats, ok, nil
}
