package repositories

import "context"

// Repository groups every repository of the service
type Repository interface {
	Quiz() QuizRepository
	Override() OverrideRepository
	Attempt() AttemptRepository

	// Identity provider (read-only)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
