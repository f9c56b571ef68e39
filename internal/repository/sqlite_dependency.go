package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/domain"
)

// SQLiteDependencyRepo implements DependencyRepo over a DBTX.
type SQLiteDependencyRepo struct {
	db db.DBTX
}

// NewSQLiteDependencyRepo creates a new SQLiteDependencyRepo.
func NewSQLiteDependencyRepo(dbtx db.DBTX) *SQLiteDependencyRepo {
	return &SQLiteDependencyRepo{db: dbtx}
}

func (r *SQLiteDependencyRepo) Create(ctx context.Context, d *domain.TodoDependency) error {
	query := `INSERT INTO todo_dependencies (id, predecessor_id, successor_id, dependency_type, lag_minutes)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.PredecessorID, d.SuccessorID, string(d.Type), d.LagMinutes)
	if err != nil {
		// The unique index on (predecessor, successor) is the real
		// guard; duplicate inserts surface as a constraint violation.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("dependency %s -> %s: %w",
				d.PredecessorID, d.SuccessorID, ErrDuplicateDependency)
		}
		return fmt.Errorf("inserting dependency: %w", err)
	}
	return nil
}

func (r *SQLiteDependencyRepo) GetByID(ctx context.Context, id string) (*domain.TodoDependency, error) {
	query := `SELECT id, predecessor_id, successor_id, dependency_type, lag_minutes
		FROM todo_dependencies WHERE id = ?`
	var d domain.TodoDependency
	var typeStr string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.PredecessorID, &d.SuccessorID, &typeStr, &d.LagMinutes)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("dependency: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning dependency: %w", err)
	}
	d.Type = domain.DependencyType(typeStr)
	return &d, nil
}

func (r *SQLiteDependencyRepo) List(ctx context.Context) ([]*domain.TodoDependency, error) {
	query := `SELECT id, predecessor_id, successor_id, dependency_type, lag_minutes
		FROM todo_dependencies`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies: %w", err)
	}
	defer rows.Close()
	return r.scanDependencies(rows)
}

func (r *SQLiteDependencyRepo) ListByTodo(ctx context.Context, todoID string) ([]*domain.TodoDependency, error) {
	query := `SELECT id, predecessor_id, successor_id, dependency_type, lag_minutes
		FROM todo_dependencies WHERE predecessor_id = ? OR successor_id = ?`
	rows, err := r.db.QueryContext(ctx, query, todoID, todoID)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies by todo: %w", err)
	}
	defer rows.Close()
	return r.scanDependencies(rows)
}

func (r *SQLiteDependencyRepo) Exists(ctx context.Context, predecessorID, successorID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM todo_dependencies WHERE predecessor_id = ? AND successor_id = ?`,
		predecessorID, successorID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking dependency existence: %w", err)
	}
	return count > 0, nil
}

func (r *SQLiteDependencyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todo_dependencies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("dependency %s: %w", id, ErrNotFound)
	}
	return nil
}

// scanDependencies scans multiple dependency rows from *sql.Rows.
func (r *SQLiteDependencyRepo) scanDependencies(rows *sql.Rows) ([]*domain.TodoDependency, error) {
	var deps []*domain.TodoDependency
	for rows.Next() {
		var d domain.TodoDependency
		var typeStr string
		if err := rows.Scan(&d.ID, &d.PredecessorID, &d.SuccessorID, &typeStr, &d.LagMinutes); err != nil {
			return nil, fmt.Errorf("scanning dependency: %w", err)
		}
		d.Type = domain.DependencyType(typeStr)
		deps = append(deps, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependencies: %w", err)
	}
	return deps, nil
}
