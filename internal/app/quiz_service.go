package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gamemaster-quiz/internal/domain"
	"gamemaster-quiz/internal/logger"
	"github.com/google/uuid"
)

// ResultRecorder persists the outcome of a finished, named session.
type ResultRecorder interface {
	Record(ctx context.Context, username, quizID string, score int) (domain.UserStats, error)
}

// QuizService starts quiz sessions.
type QuizService struct {
	banks    BankRepository
	users    UserRepository
	recorder ResultRecorder
	points   int
	shuffle  func(n int, swap func(i, j int))
	log      *logger.Logger
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithPoints sets the points awarded per correct answer.
func WithPoints(points int) Option {
	return func(s *QuizService) {
		if points > 0 {
			s.points = points
		}
	}
}

// WithShuffle replaces the question shuffler; tests pass a no-op to keep bank order.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(s *QuizService) {
		s.shuffle = shuffle
	}
}

func NewQuizService(banks BankRepository, users UserRepository, recorder ResultRecorder, log *logger.Logger, opts ...Option) *QuizService {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := &QuizService{
		banks:    banks,
		users:    users,
		recorder: recorder,
		points:   10,
		shuffle:  rnd.Shuffle,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadQuiz starts a session over a shuffled copy of a bank. Built-in bank ids are
// case-insensitive. An empty username plays anonymously and nothing is recorded.
func (s *QuizService) LoadQuiz(ctx context.Context, bankID string, custom bool, username string) (*Session, error) {
	id := strings.TrimSpace(bankID)
	if !custom {
		id = strings.ToLower(id)
	}
	if id == "" {
		return nil, domain.ErrNotFound
	}
	if username != "" {
		if _, err := s.users.GetUser(ctx, username); err != nil {
			return nil, err
		}
	}

	key := domain.BankKey{ID: id, Custom: custom}
	bank, err := s.banks.GetBank(ctx, key)
	if err != nil {
		s.log.Warn("quiz load failed", "bank", key.String(), "error", err)
		return nil, err
	}
	if len(bank.Questions) == 0 {
		return nil, fmt.Errorf("bank %s: %w", key, domain.ErrEmpty)
	}

	questions := make([]domain.Question, len(bank.Questions))
	for i, q := range bank.Questions {
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		questions[i] = domain.Question{Prompt: q.Prompt, Options: options, CorrectIndex: q.CorrectIndex}
	}
	s.shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	session := &Session{
		id:        uuid.NewString(),
		quizID:    id,
		username:  username,
		questions: questions,
		points:    s.points,
		recorder:  s.recorder,
	}
	session.log = s.log.With("session_id", session.id, "quiz", id)
	session.log.Info("quiz loaded", "username", username, "questions", len(questions))
	return session, nil
}

// SessionState is the lifecycle position of a session.
type SessionState int

const (
	StateUnstarted SessionState = iota
	StateInProgress
	StateComplete
)

func (s SessionState) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateInProgress:
		return "in_progress"
	default:
		return "complete"
	}
}

// Session is one play through a bank. It is not safe for concurrent use.
type Session struct {
	id        string
	quizID    string
	username  string
	questions []domain.Question
	index     int
	score     int
	points    int
	recorder  ResultRecorder
	log       *logger.Logger
}

func (s *Session) ID() string       { return s.id }
func (s *Session) QuizID() string   { return s.quizID }
func (s *Session) Username() string { return s.username }
func (s *Session) Score() int       { return s.score }

// CurrentQuestion returns the question to answer next; false means the quiz is over.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	if s.index >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// Progress returns the number of answered questions and the total.
func (s *Session) Progress() (int, int) {
	return s.index, len(s.questions)
}

func (s *Session) IsComplete() bool {
	return s.index >= len(s.questions)
}

func (s *Session) State() SessionState {
	switch {
	case s.IsComplete():
		return StateComplete
	case s.index == 0:
		return StateUnstarted
	default:
		return StateInProgress
	}
}

// SubmitAnswer scores option against the current question and advances. Option is
// not range-checked; anything other than the correct index is simply wrong.
//
// The last answer records the score before the session completes. If recording
// fails before the score is durable the answer is undone so it can be resubmitted.
func (s *Session) SubmitAnswer(ctx context.Context, option int) (domain.AnswerResult, error) {
	if s.IsComplete() {
		return domain.AnswerResult{TotalScore: s.score, Complete: true}, domain.ErrSessionComplete
	}

	q := s.questions[s.index]
	correct := option == q.CorrectIndex
	awarded := 0
	if correct {
		awarded = s.points
	}
	s.score += awarded
	s.index++

	result := domain.AnswerResult{
		Correct:      correct,
		CorrectIndex: q.CorrectIndex,
		Awarded:      awarded,
		TotalScore:   s.score,
		Complete:     s.IsComplete(),
	}
	if !result.Complete {
		return result, nil
	}

	if err := s.finish(ctx); err != nil {
		if errors.Is(err, domain.ErrCredentialSync) {
			return result, err
		}
		s.index--
		s.score -= awarded
		return domain.AnswerResult{}, err
	}
	return result, nil
}

func (s *Session) finish(ctx context.Context) error {
	if s.username == "" || s.recorder == nil {
		s.log.Debug("anonymous session finished", "score", s.score)
		return nil
	}
	if _, err := s.recorder.Record(ctx, s.username, s.quizID, s.score); err != nil {
		s.log.Error("score save failed", "username", s.username, "score", s.score, "error", err)
		return err
	}
	return nil
}

// Summary describes a finished (or in-flight) session for display.
type Summary struct {
	Score      int
	MaxScore   int
	Percentage float64
	Message    string
}

// Summary reports the score against the maximum achievable for the session.
func (s *Session) Summary() Summary {
	return Summarize(s.score, len(s.questions)*s.points)
}

// Summarize grades score out of maxScore.
func Summarize(score, maxScore int) Summary {
	pct := 0.0
	if maxScore > 0 {
		pct = float64(score) / float64(maxScore) * 100
	}
	var msg string
	switch {
	case pct >= 80:
		msg = "Excellent! You're a true gaming master!"
	case pct >= 60:
		msg = "Great job! You know your games well!"
	case pct >= 40:
		msg = "Good effort! Keep practicing!"
	default:
		msg = "Keep playing to improve your knowledge!"
	}
	return Summary{Score: score, MaxScore: maxScore, Percentage: pct, Message: msg}
}
