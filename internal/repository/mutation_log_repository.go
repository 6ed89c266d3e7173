package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxq/console/internal/domain"
)

// MutationLogRepository stores settled mutation records.
type MutationLogRepository interface {
	Create(ctx context.Context, entry *domain.MutationLog) error
	ListRecent(ctx context.Context, limit int) ([]domain.MutationLog, error)
	ListByRow(ctx context.Context, rowID int64) ([]domain.MutationLog, error)
}

type mutationLogRepository struct {
	pool *pgxpool.Pool
}

// NewMutationLogRepository builds repository.
func NewMutationLogRepository(pool *pgxpool.Pool) MutationLogRepository {
	return &mutationLogRepository{pool: pool}
}

const mutationLogColumns = `id, kind, row_id, role_id, status, patched_pages, error_message, actor, created_at`

func (r *mutationLogRepository) Create(ctx context.Context, entry *domain.MutationLog) error {
	const query = `
        INSERT INTO mutation_log (id, kind, row_id, role_id, status, patched_pages, error_message, actor)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.Kind,
		entry.RowID,
		entry.RoleID,
		entry.Status,
		entry.PatchedPages,
		entry.ErrorMessage,
		entry.Actor,
	).Scan(&entry.CreatedAt)
}

func (r *mutationLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.MutationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + mutationLogColumns + ` FROM mutation_log ORDER BY created_at DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *mutationLogRepository) ListByRow(ctx context.Context, rowID int64) ([]domain.MutationLog, error) {
	query := `SELECT ` + mutationLogColumns + ` FROM mutation_log WHERE row_id=$1 ORDER BY created_at ASC`
	return r.list(ctx, query, rowID)
}

func (r *mutationLogRepository) list(ctx context.Context, query string, args ...any) ([]domain.MutationLog, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MutationLog
	for rows.Next() {
		var entry domain.MutationLog
		if err := rows.Scan(
			&entry.ID,
			&entry.Kind,
			&entry.RowID,
			&entry.RoleID,
			&entry.Status,
			&entry.PatchedPages,
			&entry.ErrorMessage,
			&entry.Actor,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
