package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"gamemaster-quiz/internal/domain"
)

const (
	scoresSchemaVersion = 1
	// DateLayout is the leaderboard timestamp format ("YYYY-MM-DD HH:MM").
	DateLayout = "2006-01-02 15:04"
)

type scoresFile struct {
	SchemaVersion int                        `json:"schema_version,omitempty"`
	Leaderboard   []scoreRecord              `json:"leaderboard"`
	UserStats     map[string]userStatsRecord `json:"user_stats"`
}

type scoreRecord struct {
	Username string `json:"username"`
	Score    *int   `json:"score"`
	Quiz     string `json:"quiz"`
	Date     string `json:"date"`
}

type userStatsRecord struct {
	TotalGames   *int     `json:"total_games"`
	TotalScore   *int     `json:"total_score"`
	AverageScore *float64 `json:"average_score"`
}

// ScoreStore is the score store kept in scores.json.
type ScoreStore struct {
	path string
	mu   sync.RWMutex
	book domain.ScoreBook
}

// OpenScoreStore loads path; a missing or zero-length file is an empty store.
func OpenScoreStore(path string) (*ScoreStore, error) {
	s := &ScoreStore{path: path}
	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ScoreStore) Reload(_ context.Context) error {
	book, err := readScores(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.book = book
	s.mu.Unlock()
	return nil
}

func (s *ScoreStore) LoadScores(_ context.Context) (domain.ScoreBook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.Clone(), nil
}

func (s *ScoreStore) SaveScores(_ context.Context, book domain.ScoreBook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(s.path, encodeScores(book)); err != nil {
		return fmt.Errorf("write scores: %w", err)
	}
	s.book = book.Clone()
	return nil
}

func readScores(path string) (domain.ScoreBook, error) {
	empty := domain.ScoreBook{UserStats: make(map[string]domain.UserStats)}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return empty, nil
	}
	if err != nil {
		return domain.ScoreBook{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return empty, nil
	}

	var raw scoresFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return domain.ScoreBook{}, fmt.Errorf("%s: %w: %v", path, domain.ErrCorrupt, err)
	}
	return decodeScores(path, raw)
}

func decodeScores(path string, raw scoresFile) (domain.ScoreBook, error) {
	// Files written before versioning carry no schema_version.
	if raw.SchemaVersion != 0 && raw.SchemaVersion != scoresSchemaVersion {
		return domain.ScoreBook{}, fmt.Errorf("%s: %w: unsupported schema_version %d", path, domain.ErrCorrupt, raw.SchemaVersion)
	}
	if raw.Leaderboard == nil {
		return domain.ScoreBook{}, fmt.Errorf("%s: %w: missing leaderboard", path, domain.ErrCorrupt)
	}

	book := domain.ScoreBook{
		Leaderboard: make([]domain.ScoreEntry, 0, len(raw.Leaderboard)),
		UserStats:   make(map[string]domain.UserStats, len(raw.UserStats)),
	}
	for i, rec := range raw.Leaderboard {
		if rec.Username == "" || rec.Score == nil {
			return domain.ScoreBook{}, fmt.Errorf("%s: leaderboard entry %d: %w: missing field", path, i, domain.ErrCorrupt)
		}
		at, err := time.ParseInLocation(DateLayout, rec.Date, time.Local)
		if err != nil {
			return domain.ScoreBook{}, fmt.Errorf("%s: leaderboard entry %d: %w: %v", path, i, domain.ErrCorrupt, err)
		}
		book.Leaderboard = append(book.Leaderboard, domain.ScoreEntry{
			Username:   rec.Username,
			Score:      *rec.Score,
			Quiz:       rec.Quiz,
			RecordedAt: at,
		})
	}
	for name, rec := range raw.UserStats {
		if rec.TotalGames == nil || rec.TotalScore == nil {
			return domain.ScoreBook{}, fmt.Errorf("%s: stats for %q: %w: missing field", path, name, domain.ErrCorrupt)
		}
		stats := domain.UserStats{TotalGames: *rec.TotalGames, TotalScore: *rec.TotalScore}
		if rec.AverageScore != nil {
			stats.AverageScore = *rec.AverageScore
		} else if stats.TotalGames > 0 {
			stats.AverageScore = float64(stats.TotalScore) / float64(stats.TotalGames)
		}
		book.UserStats[name] = stats
	}
	return book, nil
}

func encodeScores(book domain.ScoreBook) scoresFile {
	out := scoresFile{
		SchemaVersion: scoresSchemaVersion,
		Leaderboard:   make([]scoreRecord, 0, len(book.Leaderboard)),
		UserStats:     make(map[string]userStatsRecord, len(book.UserStats)),
	}
	for _, e := range book.Leaderboard {
		score := e.Score
		out.Leaderboard = append(out.Leaderboard, scoreRecord{
			Username: e.Username,
			Score:    &score,
			Quiz:     e.Quiz,
			Date:     e.RecordedAt.Format(DateLayout),
		})
	}
	for name, st := range book.UserStats {
		st := st
		out.UserStats[name] = userStatsRecord{
			TotalGames:   &st.TotalGames,
			TotalScore:   &st.TotalScore,
			AverageScore: &st.AverageScore,
		}
	}
	return out
}
