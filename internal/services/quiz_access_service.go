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
	"github.com/SAP-F-2025/quiz-access-service/internal/session"
)

type quizAccessService struct {
	repo      repositories.Repository
	sessions  session.Store
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewQuizAccessService(repo repositories.Repository, sessions session.Store, publisher events.Publisher, logger *slog.Logger, now func() time.Time) QuizAccessService {
	if now == nil {
		now = time.Now
	}
	return &quizAccessService{
		repo:      repo,
		sessions:  sessions,
		publisher: publisher,
		logger:    logger,
		now:       now,
	}
}

// accessContext is one evaluation of the rules for one user on one quiz
type accessContext struct {
	quiz    *models.Quiz
	manager *accessrules.Manager
	now     int64
	numPrev int
	last    *accessrules.Attempt
	open    *models.QuizAttempt
}

func (s *quizAccessService) loadAccess(ctx context.Context, quizID uint, caller CallerInfo) (*accessContext, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	settings, err := effectiveSettings(ctx, s.repo, quiz, caller.UserID, caller.Groups)
	if err != nil {
		return nil, err
	}

	now := s.now().Unix()
	ac := &accessContext{
		quiz:    quiz,
		manager: accessrules.NewManager(settings, now, caller.ruleCaller()),
		now:     now,
	}

	attempts, err := s.repo.Attempt().GetByUserAndQuiz(ctx, nil, caller.UserID, quizID, repositories.AttemptFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	for _, a := range attempts {
		if a.IsOpen() {
			ac.open = a
			continue
		}
		ac.numPrev++
		ac.last = a.RuleAttempt()
	}

	// a teacher's preview is never counted, but it can still be resumed
	if ac.open == nil && caller.IsPreviewUser {
		preview, err := s.repo.Attempt().GetOpenAttempt(ctx, nil, caller.UserID, quizID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get open attempt: %w", err)
		}
		if err == nil {
			ac.open = preview
		}
	}
	return ac, nil
}

// effectiveSettings applies the user's override, or else the merged overrides of their groups
func effectiveSettings(ctx context.Context, repo repositories.Repository, quiz *models.Quiz, userID string, groups []string) (accessrules.Settings, error) {
	var userOverride *accessrules.Override
	override, err := repo.Override().GetUserOverride(ctx, nil, quiz.ID, userID)
	switch {
	case err == nil:
		o := override.RuleOverride()
		userOverride = &o
	case !repositories.IsNotFoundError(err):
		return accessrules.Settings{}, fmt.Errorf("failed to get user override: %w", err)
	}

	var groupOverrides []accessrules.Override
	if userOverride == nil && len(groups) > 0 {
		rows, err := repo.Override().GetGroupOverrides(ctx, nil, quiz.ID, groups)
		if err != nil {
			return accessrules.Settings{}, fmt.Errorf("failed to get group overrides: %w", err)
		}
		for _, row := range rows {
			groupOverrides = append(groupOverrides, row.RuleOverride())
		}
	}
	return accessrules.ApplyOverrides(quiz.Settings(), userOverride, groupOverrides), nil
}

// GetAccess summarises what the caller may do on the quiz right now
func (s *quizAccessService) GetAccess(ctx context.Context, quizID uint, caller CallerInfo) (*AccessSummary, error) {
	ac, err := s.loadAccess(ctx, quizID, caller)
	if err != nil {
		return nil, err
	}
	state, err := s.sessions.Load(ctx, caller.sessionKey(), quizID)
	if err != nil {
		return nil, err
	}

	summary := &AccessSummary{
		QuizID:               quizID,
		IsPreview:            caller.IsPreviewUser,
		Description:          ac.manager.DescribeRules(),
		NumAttempts:          ac.numPrev,
		IsFinished:           ac.manager.IsFinished(ac.numPrev, ac.last),
		AttemptMustBeInPopup: ac.manager.AttemptMustBeInPopup(),
		PageLayout:           ac.manager.PageLayout(),
	}
	if opts, ok := ac.manager.PopupOptions(); ok {
		summary.PopupOptions = &opts
	}

	if ac.open != nil {
		summary.OpenAttempt = s.attemptResponse(ac, ac.open)
		if reasons := ac.manager.PreventAccess(); len(reasons) > 0 && !caller.IsPreviewUser {
			summary.Reason, summary.Reasons = reasons[0], reasons
		} else {
			summary.CanStart = true
		}
	} else {
		decision := ac.manager.CanStartNewAttempt(ac.numPrev, ac.last)
		summary.CanStart = decision.Allowed || caller.IsPreviewUser
		summary.Reason, summary.Reasons = decision.Reason, decision.Reasons
	}

	current := ac.open.RuleAttempt()
	if ac.manager.IsPreflightCheckRequired(current, state) {
		summary.PreflightRequired = true
		summary.PreflightFields = ac.manager.PreflightFields(current, state)
	}
	return summary, nil
}

// StartAttempt starts a new attempt, or resumes the open one
func (s *quizAccessService) StartAttempt(ctx context.Context, quizID uint, req *StartAttemptRequest, caller CallerInfo) (*AttemptResponse, error) {
	s.logger.InfoContext(ctx, "Starting quiz attempt", "quiz_id", quizID, "user_id", caller.UserID)

	ac, err := s.loadAccess(ctx, quizID, caller)
	if err != nil {
		return nil, err
	}
	if ac.open != nil {
		s.logger.InfoContext(ctx, "Resuming existing attempt", "attempt_id", ac.open.ID)
		return s.resume(ctx, ac, ac.open, req, caller)
	}

	if !caller.IsPreviewUser {
		if decision := ac.manager.CanStartNewAttempt(ac.numPrev, ac.last); !decision.Allowed {
			return nil, &AccessDeniedError{Reasons: decision.Reasons}
		}
	}
	if err := s.runPreflight(ctx, ac, nil, req, caller); err != nil {
		return nil, err
	}

	attempt := &models.QuizAttempt{
		QuizID:        quizID,
		UserID:        caller.UserID,
		AttemptNumber: ac.numPrev + 1,
		State:         models.AttemptInProgress,
		Preview:       caller.IsPreviewUser,
		TimeStart:     ac.now,

		UserGroups:       caller.Groups,
		IgnoreTimeLimits: caller.CanIgnoreTimeLimits,
	}
	if caller.RemoteAddr != "" {
		attempt.IPAddress = &caller.RemoteAddr
	}
	if req.UserAgent != "" {
		attempt.UserAgent = &req.UserAgent
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if attempt.Preview {
			if err := tx.Attempt().DeletePreviews(ctx, nil, caller.UserID, quizID); err != nil {
				return fmt.Errorf("failed to delete previews: %w", err)
			}
		}
		return tx.Attempt().Create(ctx, nil, attempt)
	})
	if err != nil {
		// a concurrent start for the same user holds the only open slot
		if open, lookupErr := s.repo.Attempt().GetOpenAttempt(ctx, nil, caller.UserID, quizID); lookupErr == nil {
			s.logger.InfoContext(ctx, "Resuming attempt started concurrently", "attempt_id", open.ID)
			return s.resume(ctx, ac, open, req, caller)
		}
		return nil, fmt.Errorf("failed to start attempt: %w", err)
	}

	resp := s.attemptResponse(ac, attempt)
	s.publish(ctx, events.AttemptStarted, attempt, resp.EndTime)
	s.logger.InfoContext(ctx, "Quiz attempt started",
		"attempt_id", attempt.ID,
		"quiz_id", quizID,
		"user_id", caller.UserID,
		"preview", attempt.Preview)
	return resp, nil
}

// ResumeAttempt continues an open attempt, asking again for checks the session has not passed
func (s *quizAccessService) ResumeAttempt(ctx context.Context, attemptID uint, req *StartAttemptRequest, caller CallerInfo) (*AttemptResponse, error) {
	attempt, err := s.ownAttempt(ctx, attemptID, caller, "resume")
	if err != nil {
		return nil, err
	}
	ac, err := s.loadAccess(ctx, attempt.QuizID, caller)
	if err != nil {
		return nil, err
	}
	return s.resume(ctx, ac, attempt, req, caller)
}

func (s *quizAccessService) resume(ctx context.Context, ac *accessContext, attempt *models.QuizAttempt, req *StartAttemptRequest, caller CallerInfo) (*AttemptResponse, error) {
	if err := s.expireIfDue(ctx, ac, attempt); err != nil {
		return nil, err
	}
	if !attempt.IsOpen() {
		return nil, ErrAttemptNotActive
	}

	if !attempt.Preview {
		if reasons := ac.manager.PreventAccess(); len(reasons) > 0 {
			return nil, &AccessDeniedError{Reasons: reasons}
		}
	}
	if err := s.runPreflight(ctx, ac, attempt, req, caller); err != nil {
		return nil, err
	}

	resp := s.attemptResponse(ac, attempt)
	resp.Resumed = true
	return resp, nil
}

// GetTimer reports the end time and countdown, closing the attempt first when it already expired
func (s *quizAccessService) GetTimer(ctx context.Context, attemptID uint, caller CallerInfo) (*TimerResponse, error) {
	attempt, err := s.ownAttempt(ctx, attemptID, caller, "view")
	if err != nil {
		return nil, err
	}
	ac, err := s.loadAccess(ctx, attempt.QuizID, caller)
	if err != nil {
		return nil, err
	}
	if err := s.expireIfDue(ctx, ac, attempt); err != nil {
		return nil, err
	}

	resp := &TimerResponse{AttemptID: attempt.ID, State: attempt.State, Now: ac.now}
	if !attempt.IsOpen() {
		return resp, nil
	}
	if end, ok := ac.manager.EndTime(attempt.RuleAttempt()); ok {
		resp.EndTime = end
	}
	if left, ok := ac.manager.TimeLeftDisplay(attempt.RuleAttempt(), ac.now); ok {
		resp.TimeLeft = &left
	}
	return resp, nil
}

// FinishAttempt submits the attempt and forgets the session's preflight checks for the quiz
func (s *quizAccessService) FinishAttempt(ctx context.Context, attemptID uint, caller CallerInfo) (*AttemptResponse, error) {
	attempt, err := s.ownAttempt(ctx, attemptID, caller, "finish")
	if err != nil {
		return nil, err
	}
	if !attempt.IsOpen() {
		return nil, ErrAttemptNotActive
	}
	ac, err := s.loadAccess(ctx, attempt.QuizID, caller)
	if err != nil {
		return nil, err
	}

	// An overdue attempt can still be submitted; anything past that is decided by the quiz's overdue handling
	transition := accessrules.Transition{State: models.AttemptFinished, TimeFinish: ac.now}
	end, hasEnd := ac.manager.EndTime(attempt.RuleAttempt())
	if hasEnd {
		settings := ac.manager.Settings()
		if t, ok := accessrules.HandleIfTimeExpired(attempt.RuleAttempt(), end, &settings, ac.now); ok && t.State != models.AttemptOverdue {
			transition = t
		}
	}
	if err := s.applyTransition(ctx, attempt, transition, end); err != nil {
		return nil, err
	}

	state, err := s.sessions.Load(ctx, caller.sessionKey(), attempt.QuizID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, caller.sessionKey(), ac.manager.CurrentAttemptFinished(state)); err != nil {
		s.logger.WarnContext(ctx, "Failed to clear preflight state", "error", err, "quiz_id", attempt.QuizID)
	}

	s.logger.InfoContext(ctx, "Quiz attempt closed", "attempt_id", attempt.ID, "state", attempt.State)
	return s.attemptResponse(ac, attempt), nil
}

// ===== HELPERS =====

func (s *quizAccessService) ownAttempt(ctx context.Context, attemptID uint, caller CallerInfo, action string) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != caller.UserID {
		return nil, &PermissionError{Resource: "attempt", Action: action, Reason: "attempt belongs to another user"}
	}
	return attempt, nil
}

// runPreflight validates the form when any rule still needs input and records the passed checks
func (s *quizAccessService) runPreflight(ctx context.Context, ac *accessContext, attempt *models.QuizAttempt, req *StartAttemptRequest, caller CallerInfo) error {
	state, err := s.sessions.Load(ctx, caller.sessionKey(), ac.quiz.ID)
	if err != nil {
		return err
	}
	current := attempt.RuleAttempt()
	if !ac.manager.IsPreflightCheckRequired(current, state) {
		return nil
	}

	if errs := ac.manager.ValidatePreflightCheck(req.Preflight, current, state); len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPreflightFailed, errs)
	}
	next := ac.manager.NotifyPreflightCheckPassed(current, state)
	if err := s.sessions.Save(ctx, caller.sessionKey(), next); err != nil {
		return err
	}
	return nil
}

// expireIfDue applies the overdue handling when the attempt's time already ran out
func (s *quizAccessService) expireIfDue(ctx context.Context, ac *accessContext, attempt *models.QuizAttempt) error {
	end, ok := ac.manager.EndTime(attempt.RuleAttempt())
	if !ok {
		return nil
	}
	settings := ac.manager.Settings()
	transition, ok := accessrules.HandleIfTimeExpired(attempt.RuleAttempt(), end, &settings, ac.now)
	if !ok {
		return nil
	}
	return s.applyTransition(ctx, attempt, transition, end)
}

func (s *quizAccessService) applyTransition(ctx context.Context, attempt *models.QuizAttempt, t accessrules.Transition, endTime int64) error {
	if err := s.repo.Attempt().UpdateState(ctx, nil, attempt.ID, t.State, t.TimeFinish); err != nil {
		return fmt.Errorf("failed to update attempt state: %w", err)
	}
	attempt.State = t.State
	if t.TimeFinish != 0 {
		attempt.TimeFinish = t.TimeFinish
	}
	s.publish(ctx, eventForState(t.State), attempt, endTime)
	return nil
}

func (s *quizAccessService) attemptResponse(ac *accessContext, attempt *models.QuizAttempt) *AttemptResponse {
	resp := &AttemptResponse{
		QuizAttempt:          attempt,
		AttemptMustBeInPopup: ac.manager.AttemptMustBeInPopup(),
		PageLayout:           ac.manager.PageLayout(),
	}
	if opts, ok := ac.manager.PopupOptions(); ok {
		resp.PopupOptions = &opts
	}
	if !attempt.IsOpen() {
		return resp
	}
	if end, ok := ac.manager.EndTime(attempt.RuleAttempt()); ok {
		resp.EndTime = end
	}
	if left, ok := ac.manager.TimeLeftDisplay(attempt.RuleAttempt(), ac.now); ok {
		resp.TimeLeft = &left
	}
	return resp
}

func (s *quizAccessService) publish(ctx context.Context, eventType events.EventType, attempt *models.QuizAttempt, endTime int64) {
	publishAttemptEvent(ctx, s.publisher, s.logger, eventType, attempt, endTime)
}

func publishAttemptEvent(ctx context.Context, publisher events.Publisher, logger *slog.Logger, eventType events.EventType, attempt *models.QuizAttempt, endTime int64) {
	if publisher == nil {
		return
	}
	err := publisher.PublishAttemptEvent(ctx, &events.AttemptEvent{
		Type:          eventType,
		QuizID:        attempt.QuizID,
		AttemptID:     attempt.ID,
		UserID:        attempt.UserID,
		AttemptNumber: attempt.AttemptNumber,
		State:         string(attempt.State),
		Preview:       attempt.Preview,
		TimeStart:     attempt.TimeStart,
		TimeFinish:    attempt.TimeFinish,
		EndTime:       endTime,
	})
	if err != nil {
		// the state change is already committed
		logger.WarnContext(ctx, "Failed to publish attempt event",
			"error", err,
			"event_type", eventType,
			"attempt_id", attempt.ID)
	}
}

func eventForState(state models.AttemptState) events.EventType {
	switch state {
	case models.AttemptOverdue:
		return events.AttemptOverdue
	case models.AttemptAbandoned:
		return events.AttemptAbandoned
	default:
		return events.AttemptFinished
	}
}
