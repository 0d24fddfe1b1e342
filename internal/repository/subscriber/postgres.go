package subscriber

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) Create(ctx context.Context, s domain.Subscriber) (*domain.Subscriber, error) {
	const q = `
INSERT INTO newsletter_subscribers (id, email, source)
VALUES ($1, $2, $3)
RETURNING created_at
`
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := r.pool.QueryRow(ctx, q, s.ID, s.Email, s.Source).Scan(&s.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Sugar().Errorf("subscriber repo: insert email=%s err=%v", s.Email, err)
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	const q = `
SELECT id::text, email, source, welcome_sent_at, created_at
FROM newsletter_subscribers
WHERE lower(email) = lower($1)
LIMIT 1
`
	var out domain.Subscriber
	if err := r.pool.QueryRow(ctx, q, email).Scan(&out.ID, &out.Email, &out.Source, &out.WelcomeSentAt, &out.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) MarkWelcomeSent(ctx context.Context, email string, at time.Time) (bool, error) {
	const q = `
UPDATE newsletter_subscribers
SET welcome_sent_at = $2
WHERE lower(email) = lower($1) AND welcome_sent_at IS NULL
`
	tag, err := r.pool.Exec(ctx, q, email, at)
	if err != nil {
		return false, err
	}
	marked := tag.RowsAffected() == 1
	r.logger.Sugar().Debugf("subscriber repo: mark welcome email=%s marked=%t", email, marked)
	return marked, nil
}

func (r *postgresRepo) ClearWelcomeSent(ctx context.Context, email string) error {
	const q = `UPDATE newsletter_subscribers SET welcome_sent_at = NULL WHERE lower(email) = lower($1)`
	_, err := r.pool.Exec(ctx, q, email)
	return err
}
