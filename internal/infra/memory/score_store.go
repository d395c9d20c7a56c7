package memory

import (
	"context"
	"sync"

	"gamemaster-quiz/internal/domain"
)

// ScoreStore is an in-memory score store.
type ScoreStore struct {
	mu   sync.RWMutex
	book domain.ScoreBook
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{book: domain.ScoreBook{UserStats: make(map[string]domain.UserStats)}}
}

func (s *ScoreStore) LoadScores(_ context.Context) (domain.ScoreBook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.Clone(), nil
}

func (s *ScoreStore) SaveScores(_ context.Context, book domain.ScoreBook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.book = book.Clone()
	return nil
}
