package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/quiz-access-service/internal/events"
	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-access-service/internal/services"
	"github.com/SAP-F-2025/quiz-access-service/internal/session"
	"github.com/SAP-F-2025/quiz-access-service/internal/utils"
	"github.com/SAP-F-2025/quiz-access-service/internal/validator"
)

const testSecret = "test-secret"

type noUsers struct{}

func (noUsers) GetByID(context.Context, string) (*models.User, error) {
	return nil, repositories.ErrNotFound
}

type testServer struct {
	router     *gin.Engine
	verifier   *HMACVerifier
	now        int64
	remoteAddr string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{DB: db, Users: noUsers{}})
	require.NoError(t, repoManager.Initialize())

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := &testServer{verifier: NewHMACVerifier(testSecret), now: 1_700_000_000, remoteAddr: "10.0.0.5:40000"}

	sm := services.NewServiceManager(repoManager, session.NewMemoryStore(), events.NewMockEventPublisher(log), log, validator.New(), services.ServiceManagerConfig{
		PasswordHashCost: bcrypt.MinCost,
		Clock:            func() time.Time { return time.Unix(ts.now, 0) },
	})
	require.NoError(t, sm.Initialize(context.Background()))
	t.Cleanup(func() {
		sm.Shutdown(context.Background())
		repoManager.Shutdown(context.Background())
	})

	ts.router, err = NewEngine(nil)
	require.NoError(t, err)
	SetupMiddleware(ts.router, utils.NewSlogLogger(log))
	NewHandlerManager(sm, ts.verifier, utils.NewSlogLogger(log)).SetupRoutes(ts.router)
	return ts
}

func (ts *testServer) token(t *testing.T, sub, role string, groups ...string) string {
	t.Helper()
	tok, err := ts.verifier.Sign(UserClaims{Role: role, Groups: groups, RegisteredClaims: jwtSubject(sub)}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return ts.doWithHeaders(t, method, path, token, body, nil)
}

func (ts *testServer) doWithHeaders(t *testing.T, method, path, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = ts.remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/quizzes/1/access", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/quizzes/1/access", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged, err := NewHMACVerifier("other").Sign(UserClaims{Role: "admin", RegisteredClaims: jwtSubject("x")}, time.Hour)
	require.NoError(t, err)
	w = ts.do(t, http.MethodPost, "/api/v1/tasks/overdue", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/quizzes", ts.token(t, "s1", "student"), services.QuizSettingsRequest{Title: "q"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/tasks/overdue", ts.token(t, "t1", "teacher"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/tasks/overdue", ts.token(t, "a1", "admin"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.OverdueResult{}, decode[services.OverdueResult](t, w))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestQuizLifecycle(t *testing.T) {
	ts := newTestServer(t)
	teacher := ts.token(t, "t1", "teacher")
	student := ts.token(t, "s1", "student")

	w := ts.do(t, http.MethodPost, "/api/v1/quizzes", teacher, services.QuizSettingsRequest{Title: "q", OverdueHandling: "sometime"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", decode[ErrorResponse](t, w).Message)

	w = ts.do(t, http.MethodPost, "/api/v1/quizzes", teacher, services.QuizSettingsRequest{Title: "Weekly", Password: "pw", Attempts: 1})
	require.Equal(t, http.StatusCreated, w.Code)
	quiz := decode[services.QuizResponse](t, w)
	assert.True(t, quiz.HasPassword)
	assert.NotContains(t, w.Body.String(), `"password"`)

	access := decode[services.AccessSummary](t, ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/quizzes/%d/access", quiz.ID), student, nil))
	assert.True(t, access.CanStart)
	assert.True(t, access.PreflightRequired)

	attemptsPath := fmt.Sprintf("/api/v1/quizzes/%d/attempts", quiz.ID)
	w = ts.do(t, http.MethodPost, attemptsPath, student, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Preflight check failed", decode[ErrorResponse](t, w).Message)

	w = ts.do(t, http.MethodPost, attemptsPath, student, map[string]interface{}{"preflight": map[string]string{"quizpassword": "pw"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	attempt := decode[services.AttemptResponse](t, w)
	assert.Equal(t, 1, attempt.AttemptNumber)

	w = ts.do(t, http.MethodPost, attemptsPath, student, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[services.AttemptResponse](t, w).Resumed)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/attempts/%d/timer", attempt.ID), ts.token(t, "s2", "student"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/finish", attempt.ID), student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AttemptFinished, decode[services.AttemptResponse](t, w).State)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/finish", attempt.ID), student, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, attemptsPath, student, map[string]interface{}{"preflight": map[string]string{"quizpassword": "pw"}})
	require.Equal(t, http.StatusForbidden, w.Code)
	denied := decode[ErrorResponse](t, w)
	assert.Equal(t, "No more attempts are allowed", denied.Message)

	w = ts.do(t, http.MethodGet, "/api/v1/attempts/abc/timer", student, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodGet, "/api/v1/quizzes/999/access", student, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOverrideRoutes(t *testing.T) {
	ts := newTestServer(t)
	teacher := ts.token(t, "t1", "teacher")

	w := ts.do(t, http.MethodPost, "/api/v1/quizzes", teacher, services.QuizSettingsRequest{Title: "Exam", Attempts: 1})
	require.Equal(t, http.StatusCreated, w.Code)
	quiz := decode[services.QuizResponse](t, w)
	base := fmt.Sprintf("/api/v1/quizzes/%d/overrides", quiz.ID)

	w = ts.do(t, http.MethodPut, base+"/users/s1", teacher, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, base+"/users/s1", teacher, map[string]interface{}{"attempts": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	userOverride := decode[services.OverrideResponse](t, w)

	w = ts.do(t, http.MethodPut, base+"/groups/lab-a", teacher, map[string]interface{}{"password": "lab"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[services.OverrideResponse](t, w).HasPassword)

	w = ts.do(t, http.MethodGet, base, teacher, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]services.OverrideResponse](t, w), 2)

	// group members are asked for the group password
	access := decode[services.AccessSummary](t, ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/quizzes/%d/access", quiz.ID), ts.token(t, "s2", "student", "lab-a"), nil))
	assert.True(t, access.PreflightRequired)

	w = ts.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, userOverride.ID), teacher, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, userOverride.ID), teacher, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForwardedForIsNotTrusted(t *testing.T) {
	ts := newTestServer(t)
	ts.remoteAddr = "192.168.1.1:40000"
	teacher := ts.token(t, "t1", "teacher")
	student := ts.token(t, "s1", "student")

	w := ts.do(t, http.MethodPost, "/api/v1/quizzes", teacher, services.QuizSettingsRequest{Title: "Lab", Subnet: "10.0.0.0/8"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	attemptsPath := fmt.Sprintf("/api/v1/quizzes/%d/attempts", decode[services.QuizResponse](t, w).ID)

	w = ts.do(t, http.MethodPost, attemptsPath, student, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = ts.doWithHeaders(t, http.MethodPost, attemptsPath, student, nil, map[string]string{
		"X-Forwarded-For": "10.1.2.3",
		"X-Real-IP":       "10.1.2.3",
	})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Contains(t, decode[ErrorResponse](t, w).Message, "only accessible from certain locations")

	ts.remoteAddr = "10.9.9.9:40000"
	w = ts.do(t, http.MethodPost, attemptsPath, student, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	attempt := decode[services.AttemptResponse](t, w)
	require.NotNil(t, attempt.IPAddress)
	assert.Equal(t, "10.9.9.9", *attempt.IPAddress)
}

func TestSessionHeaderIsScopedToUser(t *testing.T) {
	ts := newTestServer(t)
	teacher := ts.token(t, "t1", "teacher")

	w := ts.do(t, http.MethodPost, "/api/v1/quizzes", teacher, services.QuizSettingsRequest{Title: "Locked", Password: "pw"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	attemptsPath := fmt.Sprintf("/api/v1/quizzes/%d/attempts", decode[services.QuizResponse](t, w).ID)

	w = ts.do(t, http.MethodPost, attemptsPath, ts.token(t, "victim", "student"), map[string]interface{}{"preflight": map[string]string{"quizpassword": "pw"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	other := ts.token(t, "other", "student")
	for _, sessionID := range []string{"", "victim"} {
		w = ts.doWithHeaders(t, http.MethodPost, attemptsPath, other, nil, map[string]string{SessionHeader: sessionID})
		assert.Equal(t, http.StatusBadRequest, w.Code, "session %q", sessionID)
		assert.Equal(t, "Preflight check failed", decode[ErrorResponse](t, w).Message)
	}
}
