package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"gamemaster-quiz/internal/domain"
)

// userRecord is one value of users.json. Pointers distinguish missing keys from zeros.
type userRecord struct {
	PasswordHash *string `json:"password_hash"`
	GamesPlayed  *int    `json:"games_played"`
	TotalScore   *int    `json:"total_score"`
}

// UserStore is the credential store kept in users.json. Every mutation rewrites the
// file and only updates memory once the write succeeded.
type UserStore struct {
	path  string
	mu    sync.RWMutex
	users map[string]domain.User
}

// OpenUserStore loads path; a missing or zero-length file is an empty store.
func OpenUserStore(path string) (*UserStore, error) {
	s := &UserStore{path: path}
	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *UserStore) Reload(_ context.Context) error {
	users, err := readUsers(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return nil
}

func readUsers(path string) (map[string]domain.User, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]domain.User), nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return make(map[string]domain.User), nil
	}

	var raw map[string]userRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, domain.ErrCorrupt, err)
	}
	users := make(map[string]domain.User, len(raw))
	for name, rec := range raw {
		if rec.PasswordHash == nil || rec.GamesPlayed == nil || rec.TotalScore == nil {
			return nil, fmt.Errorf("%s: user %q: %w: missing field", path, name, domain.ErrCorrupt)
		}
		users[name] = domain.User{
			Username:     name,
			PasswordHash: *rec.PasswordHash,
			GamesPlayed:  *rec.GamesPlayed,
			TotalScore:   *rec.TotalScore,
		}
	}
	return users, nil
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
	return s.mutate(func(users map[string]domain.User) error {
		if _, ok := users[user.Username]; ok {
			return domain.ErrUserExists
		}
		users[user.Username] = user
		return nil
	})
}

func (s *UserStore) UpdateStats(_ context.Context, username string, gamesPlayed, totalScore int) error {
	return s.mutate(func(users map[string]domain.User) error {
		user, ok := users[username]
		if !ok {
			return domain.ErrUserNotFound
		}
		user.GamesPlayed = gamesPlayed
		user.TotalScore = totalScore
		users[username] = user
		return nil
	})
}

func (s *UserStore) SyncStats(_ context.Context, stats map[string]domain.UserStats) error {
	return s.mutate(func(users map[string]domain.User) error {
		for name, user := range users {
			st := stats[name]
			user.GamesPlayed = st.TotalGames
			user.TotalScore = st.TotalScore
			users[name] = user
		}
		return nil
	})
}

func (s *UserStore) DeleteUser(_ context.Context, username string) error {
	return s.mutate(func(users map[string]domain.User) error {
		if _, ok := users[username]; !ok {
			return domain.ErrUserNotFound
		}
		delete(users, username)
		return nil
	})
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

// mutate applies fn to a copy of the users, writes the copy and then swaps it in.
func (s *UserStore) mutate(fn func(map[string]domain.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]domain.User, len(s.users))
	for name, u := range s.users {
		next[name] = u
	}
	if err := fn(next); err != nil {
		return err
	}

	raw := make(map[string]userRecord, len(next))
	for name, u := range next {
		u := u
		raw[name] = userRecord{PasswordHash: &u.PasswordHash, GamesPlayed: &u.GamesPlayed, TotalScore: &u.TotalScore}
	}
	if err := writeJSON(s.path, raw); err != nil {
		return fmt.Errorf("write users: %w", err)
	}
	s.users = next
	return nil
}
