package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/hitoshi/hygienesurvey/internal/model"
)

var sessionColumns = []string{"token", "user_id", "expires_at", "created_at"}

// PostgresSessionRepo はsessionsテーブルに対するSessionRepositoryの実装。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	query, args, err := psql.Insert("sessions").
		Columns(sessionColumns...).
		Values(session.Token, session.UserID, session.ExpiresAt, session.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build session insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByToken はトークンに一致するセッションを返す。無ければnil。
// 期限切れの行もそのまま返し、判定はauth.Resolverに任せる。
func (r *PostgresSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	query, args, err := psql.Select(sessionColumns...).
		From("sessions").
		Where(sq.Eq{"token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build session select: %w", err)
	}

	var s model.Session
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &s, nil
}

func (r *PostgresSessionRepo) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.exec(ctx, psql.Delete("sessions").Where(sq.Eq{"token": token})); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired はexpires_atがnowより前の行を削除し、件数を返す。
func (r *PostgresSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.exec(ctx, psql.Delete("sessions").Where(sq.Lt{"expires_at": now}))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

func (r *PostgresSessionRepo) exec(ctx context.Context, b sq.DeleteBuilder) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return r.db.ExecContext(ctx, query, args...)
}

var _ SessionRepository = (*PostgresSessionRepo)(nil)
