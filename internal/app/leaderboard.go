package app

import (
	"sort"

	"gamemaster-quiz/internal/domain"
)

// applyResult appends entry to the book, folds it into the owner's aggregate and
// trims the leaderboard to capacity. It returns the owner's updated stats.
func applyResult(book *domain.ScoreBook, entry domain.ScoreEntry, capacity int) domain.UserStats {
	book.Leaderboard = append(book.Leaderboard, entry)

	if book.UserStats == nil {
		book.UserStats = make(map[string]domain.UserStats)
	}
	stats := book.UserStats[entry.Username]
	stats.TotalGames++
	stats.TotalScore += entry.Score
	stats.AverageScore = average(stats.TotalScore, stats.TotalGames)
	book.UserStats[entry.Username] = stats

	book.Leaderboard = rankEntries(book.Leaderboard, capacity)
	return stats
}

// rankEntries orders entries by score, highest first, keeping insertion order among
// equal scores, and drops everything past capacity.
func rankEntries(entries []domain.ScoreEntry, capacity int) []domain.ScoreEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if capacity > 0 && len(entries) > capacity {
		entries = entries[:capacity]
	}
	return entries
}

// rankUsers sorts aggregates by total score, then username for a stable order.
func rankUsers(stats map[string]domain.UserStats) []domain.UserRanking {
	rows := make([]domain.UserRanking, 0, len(stats))
	for username, s := range stats {
		rows = append(rows, domain.UserRanking{Username: username, UserStats: s})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalScore != rows[j].TotalScore {
			return rows[i].TotalScore > rows[j].TotalScore
		}
		return rows[i].Username < rows[j].Username
	})
	return rows
}

// RecomputeStats rebuilds every aggregate from scratch out of entries.
func RecomputeStats(entries []domain.ScoreEntry) map[string]domain.UserStats {
	out := make(map[string]domain.UserStats)
	for _, e := range entries {
		if e.Username == "" {
			continue
		}
		s := out[e.Username]
		s.TotalGames++
		s.TotalScore += e.Score
		out[e.Username] = s
	}
	for name, s := range out {
		s.AverageScore = average(s.TotalScore, s.TotalGames)
		out[name] = s
	}
	return out
}

func average(total, games int) float64 {
	if games <= 0 {
		return 0
	}
	return float64(total) / float64(games)
}

func limitOf(limit, n int) int {
	if limit <= 0 || limit > n {
		return n
	}
	return limit
}
