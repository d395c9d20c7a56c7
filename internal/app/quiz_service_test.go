package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gamemaster-quiz/internal/app"
	"gamemaster-quiz/internal/domain"
	"gamemaster-quiz/internal/infra/memory"
	"gamemaster-quiz/internal/logger"
)

func TestAllCorrectRunScoresFullMarks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, makeBank("history", 5))
	env.register(t, "alice")

	session, err := env.quiz.LoadQuiz(ctx, "HISTORY", false, "alice")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if session.QuizID() != "history" {
		t.Fatalf("expected quiz id history, got %q", session.QuizID())
	}
	if session.State() != app.StateUnstarted {
		t.Fatalf("expected unstarted, got %s", session.State())
	}

	var last domain.AnswerResult
	for {
		q, ok := session.CurrentQuestion()
		if !ok {
			break
		}
		last, err = session.SubmitAnswer(ctx, q.CorrectIndex)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if !last.Correct || last.Awarded != 10 {
			t.Fatalf("expected 10 points for a correct answer, got %+v", last)
		}
	}
	if !last.Complete || last.TotalScore != 50 || session.Score() != 50 {
		t.Fatalf("expected complete with 50, got %+v", last)
	}
	if session.State() != app.StateComplete {
		t.Fatalf("expected complete state, got %s", session.State())
	}

	top, err := env.scoring.TopScores(ctx, 0)
	if err != nil {
		t.Fatalf("top scores: %v", err)
	}
	if len(top) != 1 || top[0].Username != "alice" || top[0].Score != 50 || top[0].Quiz != "history" {
		t.Fatalf("unexpected leaderboard: %+v", top)
	}
	user, _ := env.users.GetUser(ctx, "alice")
	if user.GamesPlayed != 1 || user.TotalScore != 50 {
		t.Fatalf("credential store not updated: %+v", user)
	}

	summary := session.Summary()
	if summary.MaxScore != 50 || summary.Percentage != 100 || summary.Message != "Excellent! You're a true gaming master!" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestWrongAndOutOfRangeAnswersScoreNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, makeBank("history", 3))

	session, err := env.quiz.LoadQuiz(ctx, "history", false, "")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	q, _ := session.CurrentQuestion()
	res, err := session.SubmitAnswer(ctx, (q.CorrectIndex+1)%4)
	if err != nil || res.Correct || res.Awarded != 0 || res.CorrectIndex != q.CorrectIndex {
		t.Fatalf("expected wrong answer, got %+v %v", res, err)
	}
	if session.State() != app.StateInProgress {
		t.Fatalf("expected in progress, got %s", session.State())
	}
	res, err = session.SubmitAnswer(ctx, 99)
	if err != nil || res.Correct {
		t.Fatalf("out of range option should be wrong, got %+v %v", res, err)
	}
	res, err = session.SubmitAnswer(ctx, -1)
	if err != nil || res.Correct || !res.Complete || res.TotalScore != 0 {
		t.Fatalf("expected complete with 0, got %+v %v", res, err)
	}
}

func TestSubmitAfterCompleteIsRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, makeBank("history", 1))
	env.register(t, "alice")

	session, err := env.quiz.LoadQuiz(ctx, "history", false, "alice")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if _, err := session.SubmitAnswer(ctx, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := session.SubmitAnswer(ctx, 0)
	if !errors.Is(err, domain.ErrSessionComplete) {
		t.Fatalf("expected session complete, got %v", err)
	}
	if res.TotalScore != 10 || session.Score() != 10 {
		t.Fatalf("score changed after completion: %+v", res)
	}
	answered, total := session.Progress()
	if answered != 1 || total != 1 {
		t.Fatalf("progress changed after completion: %d/%d", answered, total)
	}
	top, _ := env.scoring.TopScores(ctx, 0)
	if len(top) != 1 {
		t.Fatalf("expected a single recorded result, got %d", len(top))
	}
}

func TestLoadQuizErrors(t *testing.T) {
	ctx := context.Background()
	empty := domain.QuestionBank{ID: "empty", Category: "EMPTY", Questions: []domain.Question{}}
	env := newTestEnv(t, makeBank("history", 2), empty)

	if _, err := env.quiz.LoadQuiz(ctx, "missing", false, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := env.quiz.LoadQuiz(ctx, "  ", false, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for blank id, got %v", err)
	}
	if _, err := env.quiz.LoadQuiz(ctx, "empty", false, ""); !errors.Is(err, domain.ErrEmpty) {
		t.Fatalf("expected empty, got %v", err)
	}
	if _, err := env.quiz.LoadQuiz(ctx, "history", false, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected unknown user, got %v", err)
	}
}

func TestAnonymousPlayPersistsNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, makeBank("history", 2))

	session, err := env.quiz.LoadQuiz(ctx, "history", false, "")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	playAll(t, session, true)

	book, _ := env.scores.LoadScores(ctx)
	if len(book.Leaderboard) != 0 || len(book.UserStats) != 0 {
		t.Fatalf("anonymous play must not be recorded: %+v", book)
	}
}

func TestShuffleDoesNotTouchBank(t *testing.T) {
	ctx := context.Background()
	bank := makeBank("history", 4)
	store := memory.NewBankStore(bank)
	reverse := app.WithShuffle(func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	})
	service := app.NewQuizService(memory.NewBankCache(store, 0), memory.NewUserStore(), nil, logger.NewNop(), reverse)

	session, err := service.LoadQuiz(ctx, "history", false, "")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	first, _ := session.CurrentQuestion()
	if first.Prompt != "Question 4" {
		t.Fatalf("expected reversed order, got %q", first.Prompt)
	}
	first.Options[0] = "mutated"

	stored, _ := store.LoadBank(ctx, bank.Key())
	if stored.Questions[0].Prompt != "Question 1" || stored.Questions[3].Options[0] != "A" {
		t.Fatalf("bank was mutated: %+v", stored.Questions)
	}
}

func TestFinalAnswerRollsBackWhenScoreSaveFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, makeBank("history", 2))
	env.register(t, "alice")
	env.scores.failSave = true

	session, err := env.quiz.LoadQuiz(ctx, "history", false, "alice")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	q, _ := session.CurrentQuestion()
	if _, err := session.SubmitAnswer(ctx, q.CorrectIndex); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	q, _ = session.CurrentQuestion()
	if _, err := session.SubmitAnswer(ctx, q.CorrectIndex); err == nil {
		t.Fatalf("expected save failure")
	}
	if session.IsComplete() || session.Score() != 10 {
		t.Fatalf("expected rollback to question 2 with score 10, complete=%v score=%d", session.IsComplete(), session.Score())
	}

	env.scores.failSave = false
	res, err := session.SubmitAnswer(ctx, q.CorrectIndex)
	if err != nil || !res.Complete || res.TotalScore != 20 {
		t.Fatalf("retry should complete with 20, got %+v %v", res, err)
	}
	user, _ := env.users.GetUser(ctx, "alice")
	if user.GamesPlayed != 1 || user.TotalScore != 20 {
		t.Fatalf("unexpected user after retry: %+v", user)
	}
}

func TestCredentialFailureCompletesAndCanBeReconciled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, makeBank("history", 1))
	env.register(t, "alice")
	env.users.failUpdate = true

	session, err := env.quiz.LoadQuiz(ctx, "history", false, "alice")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	res, err := session.SubmitAnswer(ctx, 0)
	if !errors.Is(err, domain.ErrCredentialSync) {
		t.Fatalf("expected credential sync error, got %v", err)
	}
	if !res.Complete || !session.IsComplete() {
		t.Fatalf("session should complete once the score is durable")
	}
	stats, ok, _ := env.scoring.UserStats(ctx, "alice")
	if !ok || stats.TotalScore != 10 {
		t.Fatalf("score store should hold the result: %+v", stats)
	}

	env.users.failUpdate = false
	if err := env.scoring.Reconcile(ctx, "alice"); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if err := env.scoring.Reconcile(ctx, "alice"); err != nil {
		t.Fatalf("reconcile twice: %v", err)
	}
	user, _ := env.users.GetUser(ctx, "alice")
	if user.GamesPlayed != 1 || user.TotalScore != 10 {
		t.Fatalf("reconcile did not sync: %+v", user)
	}
}

func TestSummarizeTiers(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{80, "Excellent! You're a true gaming master!"},
		{60, "Great job! You know your games well!"},
		{40, "Good effort! Keep practicing!"},
		{30, "Keep playing to improve your knowledge!"},
	}
	for _, tc := range cases {
		if got := app.Summarize(tc.score, 100); got.Message != tc.want {
			t.Fatalf("score %d: expected %q, got %q", tc.score, tc.want, got.Message)
		}
	}
	if got := app.Summarize(0, 0); got.Percentage != 0 {
		t.Fatalf("zero max should give 0%%, got %v", got.Percentage)
	}
}

// testEnv wires every service over in-memory stores with failure switches.
type testEnv struct {
	users   *failingUsers
	scores  *failingScores
	banks   *memory.BankStore
	scoring *app.ScoreService
	catalog *app.CatalogService
	quiz    *app.QuizService
	auth    *app.AuthService
}

func newTestEnv(t *testing.T, banks ...domain.QuestionBank) *testEnv {
	t.Helper()
	log := logger.NewNop()
	users := &failingUsers{UserStore: memory.NewUserStore()}
	scores := &failingScores{ScoreStore: memory.NewScoreStore()}
	store := memory.NewBankStore(banks...)
	catalog := app.NewCatalogService(store, memory.NewBankCache(store, 0), log)
	scoring := app.NewScoreService(scores, users, 50, log)
	return &testEnv{
		users:   users,
		scores:  scores,
		banks:   store,
		scoring: scoring,
		catalog: catalog,
		quiz:    app.NewQuizService(catalog, users, scoring, log, app.WithShuffle(noShuffle)),
		auth:    app.NewAuthService(users, "testsalt", log),
	}
}

func (e *testEnv) register(t *testing.T, username string) {
	t.Helper()
	if err := e.auth.Register(context.Background(), username, "secret"); err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
}

func noShuffle(int, func(i, j int)) {}

// makeBank builds a bank of n questions whose correct answers cycle through 0..3.
func makeBank(id string, n int) domain.QuestionBank {
	bank := domain.QuestionBank{ID: id, Category: "TEST", Description: "test bank"}
	for i := 0; i < n; i++ {
		bank.Questions = append(bank.Questions, domain.Question{
			Prompt:       fmt.Sprintf("Question %d", i+1),
			Options:      []string{"A", "B", "C", "D"},
			CorrectIndex: i % 4,
		})
	}
	return bank
}

func playAll(t *testing.T, session *app.Session, correct bool) {
	t.Helper()
	for {
		q, ok := session.CurrentQuestion()
		if !ok {
			return
		}
		option := q.CorrectIndex
		if !correct {
			option = (q.CorrectIndex + 1) % len(q.Options)
		}
		if _, err := session.SubmitAnswer(context.Background(), option); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
}

type failingScores struct {
	*memory.ScoreStore
	failSave bool
}

func (s *failingScores) SaveScores(ctx context.Context, book domain.ScoreBook) error {
	if s.failSave {
		return errors.New("disk full")
	}
	return s.ScoreStore.SaveScores(ctx, book)
}

type failingUsers struct {
	*memory.UserStore
	failUpdate bool
}

func (u *failingUsers) UpdateStats(ctx context.Context, username string, games, total int) error {
	if u.failUpdate {
		return errors.New("users.json is read-only")
	}
	return u.UserStore.UpdateStats(ctx, username, games, total)
}
