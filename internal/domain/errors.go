package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced quiz bank does not exist.
	ErrNotFound = errors.New("quiz bank not found")
	// ErrEmpty indicates a bank that has no questions to play.
	ErrEmpty = errors.New("quiz bank has no questions")
	// ErrCorrupt indicates bank or store content that fails structural parsing.
	ErrCorrupt = errors.New("corrupt data")
	// ErrIntegrityViolation indicates a question whose correct index is outside its options.
	ErrIntegrityViolation = errors.New("correct answer index out of range")
	// ErrSessionComplete is returned when answering a session that already finished.
	ErrSessionComplete = errors.New("quiz session already complete")

	// ErrUserNotFound is returned when a username is not registered.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned on duplicate registration.
	ErrUserExists = errors.New("username already exists")
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("incorrect password")
	// ErrInvalidInput covers caller-supplied values rejected by validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCredentialSync means the score was saved but the user record could not be updated.
	ErrCredentialSync = errors.New("credential store out of sync")
)

// IsUnplayable reports whether err means a bank exists but cannot be played.
func IsUnplayable(err error) bool {
	return errors.Is(err, ErrEmpty) || errors.Is(err, ErrCorrupt) || errors.Is(err, ErrIntegrityViolation)
}
