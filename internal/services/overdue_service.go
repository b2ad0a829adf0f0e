package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-access-service/internal/accessrules"
	"github.com/SAP-F-2025/quiz-access-service/internal/events"
	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
)

const defaultOverdueBatchSize = 200

type overdueService struct {
	repo      repositories.Repository
	publisher events.Publisher
	logger    *slog.Logger
	batchSize int
	now       func() time.Time
}

func NewOverdueService(repo repositories.Repository, publisher events.Publisher, logger *slog.Logger, batchSize int, now func() time.Time) OverdueService {
	if batchSize <= 0 {
		batchSize = defaultOverdueBatchSize
	}
	if now == nil {
		now = time.Now
	}
	return &overdueService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		batchSize: batchSize,
		now:       now,
	}
}

// overdueRun caches quizzes and attempt owners for the duration of one run
type overdueRun struct {
	now     int64
	quizzes map[uint]*models.Quiz
	users   map[string]*models.User
}

// ProcessOverdueAttempts applies the overdue handling to every open attempt whose time ran out.
// Each attempt is judged with the owner's user and group overrides and role, as on the request path.
func (s *overdueService) ProcessOverdueAttempts(ctx context.Context) (*OverdueResult, error) {
	result := &OverdueResult{}
	run := &overdueRun{
		now:     s.now().Unix(),
		quizzes: make(map[uint]*models.Quiz),
		users:   make(map[string]*models.User),
	}

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		batch, err := s.repo.Attempt().GetOpenAttempts(ctx, nil, s.batchSize, offset)
		if err != nil {
			return result, fmt.Errorf("failed to get open attempts: %w", err)
		}

		closed := 0
		for _, attempt := range batch {
			result.Checked++
			state, err := s.processAttempt(ctx, attempt, run)
			if err != nil {
				result.Failed++
				s.logger.ErrorContext(ctx, "Failed to process overdue attempt", "error", err, "attempt_id", attempt.ID)
				continue
			}
			switch state {
			case models.AttemptFinished:
				result.Finished++
				closed++
			case models.AttemptAbandoned:
				result.Abandoned++
				closed++
			case models.AttemptOverdue:
				result.Overdue++
			}
		}

		if len(batch) < s.batchSize {
			break
		}
		// closed attempts drop out of the open set, so the next page starts earlier
		offset += len(batch) - closed
	}

	if result.Finished+result.Overdue+result.Abandoned > 0 {
		s.logger.InfoContext(ctx, "Overdue attempts processed",
			"checked", result.Checked,
			"finished", result.Finished,
			"overdue", result.Overdue,
			"abandoned", result.Abandoned)
	}
	return result, nil
}

// processAttempt returns the new state, or "" when the attempt was left alone
func (s *overdueService) processAttempt(ctx context.Context, attempt *models.QuizAttempt, run *overdueRun) (models.AttemptState, error) {
	now := run.now
	quiz, ok := run.quizzes[attempt.QuizID]
	if !ok {
		var err error
		quiz, err = s.repo.Quiz().GetByID(ctx, nil, attempt.QuizID)
		if err != nil {
			return "", fmt.Errorf("failed to get quiz %d: %w", attempt.QuizID, err)
		}
		run.quizzes[attempt.QuizID] = quiz
	}

	caller, err := s.attemptCaller(ctx, attempt, run)
	if err != nil {
		return "", err
	}

	settings, err := effectiveSettings(ctx, s.repo, quiz, attempt.UserID, caller.Groups)
	if err != nil {
		return "", err
	}
	manager := accessrules.NewManager(settings, now, caller.ruleCaller())
	end, ok := manager.EndTime(attempt.RuleAttempt())
	if !ok {
		return "", nil
	}
	transition, ok := accessrules.HandleIfTimeExpired(attempt.RuleAttempt(), end, &settings, now)
	if !ok {
		return "", nil
	}

	if err := s.repo.Attempt().UpdateState(ctx, nil, attempt.ID, transition.State, transition.TimeFinish); err != nil {
		return "", fmt.Errorf("failed to update attempt state: %w", err)
	}
	attempt.State = transition.State
	if transition.TimeFinish != 0 {
		attempt.TimeFinish = transition.TimeFinish
	}
	publishAttemptEvent(ctx, s.publisher, s.logger, eventForState(transition.State), attempt, end)
	return transition.State, nil
}

// attemptCaller resolves the owner of an attempt through the user directory, once per user and run.
// Owners the directory does not know fall back to the snapshot taken when the attempt started.
// A lookup failure leaves the attempt open until a later run.
func (s *overdueService) attemptCaller(ctx context.Context, attempt *models.QuizAttempt, run *overdueRun) (CallerInfo, error) {
	user, ok := run.users[attempt.UserID]
	if !ok {
		var err error
		user, err = s.repo.User().GetByID(ctx, attempt.UserID)
		switch {
		case err == nil:
		case repositories.IsNotFoundError(err):
			user = nil
		default:
			return CallerInfo{}, fmt.Errorf("failed to get user %s: %w", attempt.UserID, err)
		}
		run.users[attempt.UserID] = user
	}

	if user != nil {
		return NewCallerInfo(user, "", ""), nil
	}
	return CallerInfo{
		UserID:              attempt.UserID,
		Groups:              attempt.UserGroups,
		IsPreviewUser:       attempt.Preview,
		CanIgnoreTimeLimits: attempt.IgnoreTimeLimits,
	}, nil
}

// Start runs the task on a ticker until ctx is cancelled
func (s *overdueService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Overdue attempt task started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Overdue attempt task stopped")
			return
		case <-ticker.C:
			if _, err := s.ProcessOverdueAttempts(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Overdue attempt task failed", "error", err)
			}
		}
	}
}
