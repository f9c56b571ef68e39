package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/domain"
)

const resourceColumns = `id, resource_type, erp_id, name, capacity,
		department_erp_id, level, active, synced_at`

// SQLiteResourceRepo implements ResourceRepo over a DBTX.
type SQLiteResourceRepo struct {
	db db.DBTX
}

// NewSQLiteResourceRepo creates a new SQLiteResourceRepo.
func NewSQLiteResourceRepo(dbtx db.DBTX) *SQLiteResourceRepo {
	return &SQLiteResourceRepo{db: dbtx}
}

func (r *SQLiteResourceRepo) Create(ctx context.Context, res *domain.Resource) error {
	query := `INSERT INTO resources (` + resourceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		res.ID,
		string(res.Type),
		res.ErpID,
		res.Name,
		res.Capacity,
		nullableInt64ToValue(res.DepartmentErpID),
		res.Level,
		boolToInt(res.Active),
		res.SyncedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting resource: %w", err)
	}
	return nil
}

func (r *SQLiteResourceRepo) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = ?`
	return r.scanResource(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteResourceRepo) GetByErpID(ctx context.Context, typ domain.ResourceType, erpID int64) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE resource_type = ? AND erp_id = ?`
	return r.scanResource(r.db.QueryRowContext(ctx, query, string(typ), erpID))
}

func (r *SQLiteResourceRepo) ListByType(ctx context.Context, typ domain.ResourceType, activeOnly bool) ([]*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE resource_type = ?`
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, string(typ))
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	var resources []*domain.Resource
	for rows.Next() {
		res, err := scanResourceFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources: %w", err)
	}
	return resources, nil
}

func (r *SQLiteResourceRepo) Update(ctx context.Context, res *domain.Resource) error {
	query := `UPDATE resources SET name = ?, capacity = ?, department_erp_id = ?,
		level = ?, active = ?, synced_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		res.Name,
		res.Capacity,
		nullableInt64ToValue(res.DepartmentErpID),
		res.Level,
		boolToInt(res.Active),
		res.SyncedAt.Format(time.RFC3339),
		res.ID,
	)
	if err != nil {
		return fmt.Errorf("updating resource: %w", err)
	}
	return nil
}

// Deactivate marks a resource inactive without deleting it, so todo
// assignments created against it stay resolvable.
func (r *SQLiteResourceRepo) Deactivate(ctx context.Context, id string, syncedAt time.Time) error {
	query := `UPDATE resources SET active = 0, synced_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, syncedAt.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("deactivating resource: %w", err)
	}
	return nil
}

// Delete removes a resource row outright. Sync never calls this; it
// exists for admin cleanup and exercises the ON DELETE SET NULL path.
func (r *SQLiteResourceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting resource: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("resource %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteResourceRepo) scanResource(row *sql.Row) (*domain.Resource, error) {
	res, err := scanResourceFrom(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resource: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning resource: %w", err)
	}
	return res, nil
}

func scanResourceFrom(scan func(dest ...any) error) (*domain.Resource, error) {
	var res domain.Resource
	var typeStr, syncedAt string
	var departmentErpID sql.NullInt64
	var activeInt int
	if err := scan(
		&res.ID, &typeStr, &res.ErpID, &res.Name, &res.Capacity,
		&departmentErpID, &res.Level, &activeInt, &syncedAt,
	); err != nil {
		return nil, err
	}
	res.Type = domain.ResourceType(typeStr)
	res.DepartmentErpID = nullInt64Ptr(departmentErpID)
	res.Active = intToBool(activeInt)
	var err error
	res.SyncedAt, err = time.Parse(time.RFC3339, syncedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing synced_at: %w", err)
	}
	return &res, nil
}
