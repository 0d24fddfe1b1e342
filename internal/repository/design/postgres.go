package design

import (
	"context"

	"github.com/google/uuid"
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

func (r *postgresRepo) Create(ctx context.Context, d domain.DesignSubmission) (*domain.DesignSubmission, error) {
	const q = `
INSERT INTO design_submissions (id, name, email, phone, piece_type, metal, gemstone, ring_size, budget, description, sketch_url)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, NULLIF($11, ''))
RETURNING created_at
`
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, q, d.ID, d.Name, d.Email, d.Phone, d.PieceType, d.Metal, d.Gemstone, d.RingSize, d.Budget, d.Description, d.SketchURL).
		Scan(&d.CreatedAt)
	if err != nil {
		r.logger.Sugar().Errorf("design repo: insert id=%s err=%v", d.ID, err)
		return nil, err
	}
	return &d, nil
}

func (r *postgresRepo) ListRecent(ctx context.Context, limit int) ([]domain.DesignSubmission, error) {
	const q = `
SELECT id::text, name, email, COALESCE(phone, ''), COALESCE(piece_type, ''), COALESCE(metal, ''), COALESCE(gemstone, ''),
       COALESCE(ring_size, ''), COALESCE(budget, ''), description, COALESCE(sketch_url, ''), created_at
FROM design_submissions
ORDER BY created_at DESC
LIMIT $1
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.DesignSubmission{}
	for rows.Next() {
		var d domain.DesignSubmission
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.PieceType, &d.Metal, &d.Gemstone, &d.RingSize, &d.Budget, &d.Description, &d.SketchURL, &d.CreatedAt); err != nil {
			r.logger.Sugar().Errorf("design repo: scan error=%v", err)
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
