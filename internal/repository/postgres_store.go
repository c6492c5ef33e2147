package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/repository/base"
)

// PostgresStore is the pgx-backed Store. A store returned by InTx is bound
// to the transaction; the root store is bound to the pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	tx     pgx.Tx
	db     base.Querier
	logger *zap.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, db: pool, logger: logger}
}

func (s *PostgresStore) Users() Users             { return NewUserRepository(s.db) }
func (s *PostgresStore) Privacy() Privacy         { return NewPrivacyRepository(s.db) }
func (s *PostgresStore) Friends() Friends         { return NewFriendRepository(s.db) }
func (s *PostgresStore) Courses() Courses         { return NewCourseRepository(s.db) }
func (s *PostgresStore) Chats() Chats             { return NewChatRepository(s.db) }

func (s *PostgresStore) CourseModules() CourseModules {
	return NewCourseModuleRepository(s.db)
}
func (s *PostgresStore) Slideshows() Slideshows   { return NewSlideshowRepository(s.db) }
func (s *PostgresStore) Slides() Slides           { return NewSlideRepository(s.db) }
func (s *PostgresStore) Suggestions() Suggestions { return NewSuggestionRepository(s.db) }

func (s *PostgresStore) FriendRequests() FriendRequests {
	return NewFriendRequestRepository(s.db)
}

func (s *PostgresStore) Memberships() Memberships {
	return NewMembershipRepository(s.db, s.logger)
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PostgresStore{pool: s.pool, tx: tx, db: tx, logger: s.logger}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
