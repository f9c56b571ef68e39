package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/domain"
)

// SQLiteImportJobRepo implements ImportJobRepo over a DBTX.
type SQLiteImportJobRepo struct {
	db db.DBTX
}

// NewSQLiteImportJobRepo creates a new SQLiteImportJobRepo.
func NewSQLiteImportJobRepo(dbtx db.DBTX) *SQLiteImportJobRepo {
	return &SQLiteImportJobRepo{db: dbtx}
}

func (r *SQLiteImportJobRepo) Create(ctx context.Context, j *domain.ImportJob) error {
	query := `INSERT INTO import_jobs (id, file_name, state, articles_total, articles_done,
		error, created_at, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		j.ID,
		j.FileName,
		string(j.State),
		j.ArticlesTotal,
		j.ArticlesDone,
		j.Error,
		j.CreatedAt.Format(time.RFC3339),
		nullableTimeToString(j.StartedAt, time.RFC3339),
		nullableTimeToString(j.FinishedAt, time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting import job: %w", err)
	}
	return nil
}

func (r *SQLiteImportJobRepo) GetByID(ctx context.Context, id string) (*domain.ImportJob, error) {
	query := `SELECT id, file_name, state, articles_total, articles_done,
		error, created_at, started_at, finished_at
		FROM import_jobs WHERE id = ?`
	var j domain.ImportJob
	var stateStr, createdAt string
	var startedAt, finishedAt sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&j.ID, &j.FileName, &stateStr, &j.ArticlesTotal, &j.ArticlesDone,
		&j.Error, &createdAt, &startedAt, &finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import job: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning import job: %w", err)
	}
	j.State = domain.ImportJobState(stateStr)
	j.StartedAt = parseNullableTime(startedAt, time.RFC3339)
	j.FinishedAt = parseNullableTime(finishedAt, time.RFC3339)
	if j.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing import job created_at: %w", err)
	}
	return &j, nil
}

func (r *SQLiteImportJobRepo) Update(ctx context.Context, j *domain.ImportJob) error {
	query := `UPDATE import_jobs SET state = ?, articles_total = ?, articles_done = ?,
		error = ?, started_at = ?, finished_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		string(j.State),
		j.ArticlesTotal,
		j.ArticlesDone,
		j.Error,
		nullableTimeToString(j.StartedAt, time.RFC3339),
		nullableTimeToString(j.FinishedAt, time.RFC3339),
		j.ID,
	)
	if err != nil {
		return fmt.Errorf("updating import job: %w", err)
	}
	return nil
}
