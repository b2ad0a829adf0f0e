package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/quiz-access-service/internal/events"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-access-service/internal/session"
	"github.com/SAP-F-2025/quiz-access-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// OverdueInterval is how often the overdue task runs; zero disables the background loop
	OverdueInterval  time.Duration
	OverdueBatchSize int

	// PasswordHashCost is the bcrypt cost for quiz and override passwords
	PasswordHashCost int

	// Clock overrides time.Now (tests)
	Clock func() time.Time
}

// DefaultServiceManagerConfig returns the production defaults
func DefaultServiceManagerConfig() ServiceManagerConfig {
	return ServiceManagerConfig{
		OverdueInterval:  time.Minute,
		OverdueBatchSize: defaultOverdueBatchSize,
		PasswordHashCost: bcrypt.DefaultCost,
	}
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repoManager repositories.RepositoryManager
	sessions    session.Store
	publisher   events.Publisher
	logger      *slog.Logger
	validator   *validator.Validator
	config      ServiceManagerConfig

	// Service instances
	quizService       QuizService
	quizAccessService QuizAccessService
	overrideService   OverrideService
	overdueService    OverdueService

	// Lifecycle management
	stopTasks   context.CancelFunc
	tasksDone   sync.WaitGroup
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(
	repoManager repositories.RepositoryManager,
	sessions session.Store,
	publisher events.Publisher,
	logger *slog.Logger,
	validator *validator.Validator,
	config ServiceManagerConfig,
) ServiceManager {
	if config.PasswordHashCost == 0 {
		config.PasswordHashCost = bcrypt.DefaultCost
	}
	return &serviceManager{
		repoManager: repoManager,
		sessions:    sessions,
		publisher:   publisher,
		logger:      logger,
		validator:   validator,
		config:      config,
	}
}

// Initialize sets up all services and starts the background overdue task
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	repo := sm.repoManager.GetRepository()
	if repo == nil {
		return fmt.Errorf("failed to initialize services: repository not initialized")
	}

	sm.quizService = NewQuizService(repo, sm.logger, sm.validator, sm.config.PasswordHashCost)
	sm.quizAccessService = NewQuizAccessService(repo, sm.sessions, sm.publisher, sm.logger, sm.config.Clock)
	sm.overrideService = NewOverrideService(repo, sm.logger, sm.validator, sm.config.PasswordHashCost)
	sm.overdueService = NewOverdueService(repo, sm.publisher, sm.logger, sm.config.OverdueBatchSize, sm.config.Clock)

	if sm.config.OverdueInterval > 0 {
		taskCtx, cancel := context.WithCancel(context.Background())
		sm.stopTasks = cancel
		sm.tasksDone.Add(1)
		go func() {
			defer sm.tasksDone.Done()
			sm.overdueService.Start(taskCtx, sm.config.OverdueInterval)
		}()
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")
	return nil
}

// Service getters
func (sm *serviceManager) Quiz() QuizService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.quizService
}

func (sm *serviceManager) QuizAccess() QuizAccessService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.quizAccessService
}

func (sm *serviceManager) Override() OverrideService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.overrideService
}

func (sm *serviceManager) Overdue() OverdueService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.overdueService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}
	if err := sm.repoManager.HealthCheck(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

// Shutdown stops the background task and closes the event publisher
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.logger.Info("Shutting down service manager")

	if sm.stopTasks != nil {
		sm.stopTasks()
		done := make(chan struct{})
		go func() {
			sm.tasksDone.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for background tasks: %w", ctx.Err())
		}
	}

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Warn("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down")
	return nil
}
