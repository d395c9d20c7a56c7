package app

import (
	"context"

	"gamemaster-quiz/internal/domain"
)

// BankRepository loads validated quiz content (possibly through a cache).
type BankRepository interface {
	GetBank(ctx context.Context, key domain.BankKey) (domain.QuestionBank, error)
}

// BankStore is the backing store of the catalog (files, database, ...).
type BankStore interface {
	ListBanks(ctx context.Context) ([]domain.BankRef, error)
	LoadBank(ctx context.Context, key domain.BankKey) (domain.QuestionBank, error)
	SaveBank(ctx context.Context, bank domain.QuestionBank) (domain.BankRef, error)
	DeleteBank(ctx context.Context, key domain.BankKey) error
}

// BankCache fronts a BankStore and must be told when content changes underneath it.
type BankCache interface {
	BankRepository
	Invalidate(ctx context.Context, key domain.BankKey) error
	Purge(ctx context.Context) error
}

// UserRepository abstracts the credential store.
type UserRepository interface {
	GetUser(ctx context.Context, username string) (domain.User, error)
	CreateUser(ctx context.Context, user domain.User) error
	// UpdateStats overwrites the aggregate columns; calling it twice is harmless.
	UpdateStats(ctx context.Context, username string, gamesPlayed, totalScore int) error
	// SyncStats overwrites the aggregates of every user, zeroing users absent from stats.
	SyncStats(ctx context.Context, stats map[string]domain.UserStats) error
	DeleteUser(ctx context.Context, username string) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// ScoreRepository abstracts the score store. LoadScores returns a copy the caller may mutate.
type ScoreRepository interface {
	LoadScores(ctx context.Context) (domain.ScoreBook, error)
	SaveScores(ctx context.Context, book domain.ScoreBook) error
}

// Reloader is implemented by stores that cache file content and can re-read it.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Archiver copies the persisted data set to and from a backup location.
type Archiver interface {
	Backup(ctx context.Context, name string) (string, error)
	Restore(ctx context.Context, dir string) error
}
