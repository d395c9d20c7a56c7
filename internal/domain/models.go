package domain

import "time"

// User is a registered player and the aggregate totals mirrored from the score store.
type User struct {
	Username     string
	PasswordHash string
	GamesPlayed  int
	TotalScore   int
}

// Question models an MCQ question; CorrectIndex always indexes into Options once loaded.
type Question struct {
	Prompt       string
	Options      []string
	CorrectIndex int
}

// BankKey identifies a bank inside the catalog. Built-in and custom banks live in
// separate namespaces, so the same ID may exist in both.
type BankKey struct {
	ID     string
	Custom bool
}

func (k BankKey) String() string {
	if k.Custom {
		return "custom/" + k.ID
	}
	return k.ID
}

// QuestionBank is a named, validated collection of questions.
type QuestionBank struct {
	ID          string
	Category    string
	Description string
	CreatedBy   string
	Custom      bool
	Questions   []Question
}

// Key returns the catalog key of the bank.
func (b QuestionBank) Key() BankKey {
	return BankKey{ID: b.ID, Custom: b.Custom}
}

// BankRef is a catalog listing row.
type BankRef struct {
	ID     string
	Path   string
	Custom bool
}

// ScoreEntry is one completed, named session on the leaderboard.
type ScoreEntry struct {
	Username   string
	Score      int
	Quiz       string
	RecordedAt time.Time
}

// UserStats is the per-user aggregate over every recorded session.
type UserStats struct {
	TotalGames   int
	TotalScore   int
	AverageScore float64
}

// UserRanking is a UserStats row tagged with its owner, as returned by ranking queries.
type UserRanking struct {
	Username string
	UserStats
}

// ScoreBook is the full content of the score store.
type ScoreBook struct {
	Leaderboard []ScoreEntry
	UserStats   map[string]UserStats
}

// Clone returns a deep copy so callers can build the next state without touching the current one.
func (b ScoreBook) Clone() ScoreBook {
	out := ScoreBook{
		Leaderboard: make([]ScoreEntry, len(b.Leaderboard)),
		UserStats:   make(map[string]UserStats, len(b.UserStats)),
	}
	copy(out.Leaderboard, b.Leaderboard)
	for name, stats := range b.UserStats {
		out.UserStats[name] = stats
	}
	return out
}

// AnswerResult summarizes the outcome of a single submission.
type AnswerResult struct {
	Correct      bool
	CorrectIndex int
	Awarded      int
	TotalScore   int
	Complete     bool
}

// SystemStats is the administrative overview of all stores.
type SystemStats struct {
	TotalUsers        int
	TotalGamesPlayed  int
	TotalScoreEntries int
	TotalPointsScored int
	TotalQuizzes      int
	DefaultQuizzes    int
	CustomQuizzes     int
	QuizAverages      map[string]float64
	TopPlayers        []UserRanking
}
