package memory

import (
	"context"
	"sort"
	"sync"

	"gamemaster-quiz/internal/domain"
)

// UserStore is an in-memory credential store.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]domain.User)}
}

func (s *UserStore) GetUser(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserStore) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return domain.ErrUserExists
	}
	s.users[user.Username] = user
	return nil
}

func (s *UserStore) UpdateStats(_ context.Context, username string, gamesPlayed, totalScore int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.GamesPlayed = gamesPlayed
	user.TotalScore = totalScore
	s.users[username] = user
	return nil
}

func (s *UserStore) SyncStats(_ context.Context, stats map[string]domain.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, user := range s.users {
		st := stats[name]
		user.GamesPlayed = st.TotalGames
		user.TotalScore = st.TotalScore
		s.users[name] = user
	}
	return nil
}

func (s *UserStore) DeleteUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, username)
	return nil
}

func (s *UserStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
