package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/quiz-access-service/internal/events"
	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-access-service/internal/session"
	"github.com/SAP-F-2025/quiz-access-service/internal/validator"
)

const baseTime = int64(1_700_000_000)

// stubUsers is an in-memory user directory; unknown ids are not found
type stubUsers map[string]*models.User

func (u stubUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	if id == "directory-down" {
		return nil, errors.New("directory unavailable")
	}
	return nil, repositories.ErrNotFound
}

type testEnv struct {
	repo      repositories.Repository
	sessions  *session.MemoryStore
	publisher *events.MockEventPublisher
	users     stubUsers
	now       int64

	quizzes   QuizService
	access    QuizAccessService
	overrides OverrideService
	overdue   OverdueService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := stubUsers{}
	env := &testEnv{
		repo:      postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, Users: users}),
		users:     users,
		sessions:  session.NewMemoryStore(),
		publisher: events.NewMockEventPublisher(log),
		now:       baseTime,
	}
	clock := func() time.Time { return time.Unix(env.now, 0) }
	v := validator.New()

	env.quizzes = NewQuizService(env.repo, log, v, bcrypt.MinCost)
	env.access = NewQuizAccessService(env.repo, env.sessions, env.publisher, log, clock)
	env.overrides = NewOverrideService(env.repo, log, v, bcrypt.MinCost)
	env.overdue = NewOverdueService(env.repo, env.publisher, log, 2, clock)
	return env
}

func (e *testEnv) createQuiz(t *testing.T, req QuizSettingsRequest) uint {
	t.Helper()
	if req.Title == "" {
		req.Title = "Quiz"
	}
	quiz, err := e.quizzes.Create(context.Background(), &req, "teacher-1")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz.ID
}

func (e *testEnv) eventTypes() []events.EventType {
	var out []events.EventType
	for _, ev := range e.publisher.GetPublishedEvents() {
		out = append(out, ev.Type)
	}
	return out
}

func student(id string, groups ...string) CallerInfo {
	return CallerInfo{UserID: id, Groups: groups, SessionID: "session-" + id, RemoteAddr: "10.0.0.5"}
}

func teacher(id string) CallerInfo {
	c := student(id)
	c.IsPreviewUser = true
	return c
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }
