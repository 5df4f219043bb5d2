package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// Ensure PostgresStore implements the Store interface
var _ repositories.Store = (*PostgresStore)(nil)

// PostgresStore keeps meetings, teams and notifications in PostgreSQL.
// Subscriptions poll their query and deliver when the result changes.
type PostgresStore struct {
	db           *gorm.DB
	logger       *zap.Logger
	pollInterval time.Duration
}

// PostgresOption configures a PostgresStore
type PostgresOption func(*PostgresStore)

// WithPollInterval sets how often subscriptions reload
func WithPollInterval(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// NewPostgresStore creates a store on top of an open gorm connection
func NewPostgresStore(db *gorm.DB, logger *zap.Logger, opts ...PostgresOption) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PostgresStore{
		db:           db,
		logger:       logger,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func pollWatch[T any](ctx context.Context, s *PostgresStore, name string, load func(context.Context) ([]T, error), onSnapshot func([]T)) (repositories.Unsubscribe, error) {
	return watch(ctx, watchConfig[T]{
		name:     name,
		interval: s.pollInterval,
		load:     load,
		logger:   s.logger,
	}, onSnapshot)
}
