package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/hrm/internal/domain"
)

// pgUniqueViolation — SQLSTATE нарушения уникальности.
const pgUniqueViolation = "23505"

// WorkRequestRepo — репозиторий для таблицы work_requests.
type WorkRequestRepo struct {
	pool *pgxpool.Pool
}

// NewWorkRequestRepo создаёт новый WorkRequestRepo.
func NewWorkRequestRepo(pool *pgxpool.Pool) *WorkRequestRepo {
	return &WorkRequestRepo{pool: pool}
}

// Create сохраняет новый work request.
func (r *WorkRequestRepo) Create(ctx context.Context, wr *domain.WorkRequest) error {
	query := `
		INSERT INTO work_requests (id, title, description, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		wr.ID,
		wr.Title,
		wr.Description,
		wr.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: work request %s", ErrAlreadyExists, wr.ID)
		}
		return fmt.Errorf("insert work request: %w", err)
	}
	return nil
}

// GetByID возвращает work request по ID.
func (r *WorkRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkRequest, error) {
	query := `
		SELECT id, title, description, created_at
		FROM work_requests
		WHERE id = $1
	`
	var wr domain.WorkRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&wr.ID,
		&wr.Title,
		&wr.Description,
		&wr.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get work request by id: %w", err)
	}
	return &wr, nil
}

// List возвращает последние work requests (не больше limit).
func (r *WorkRequestRepo) List(ctx context.Context, limit int) ([]domain.WorkRequest, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, title, description, created_at
		FROM work_requests
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list work requests: %w", err)
	}
	defer rows.Close()

	var items []domain.WorkRequest
	for rows.Next() {
		var wr domain.WorkRequest
		if err := rows.Scan(
			&wr.ID,
			&wr.Title,
			&wr.Description,
			&wr.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan work request: %w", err)
		}
		items = append(items, wr)
	}
	return items, rows.Err()
}
