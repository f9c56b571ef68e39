package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/domain"
)

// todoColumns is the canonical SELECT column list for todos.
const todoColumns = `id, parent_id, todo_type,
		erp_order_id, erp_order_article_id, erp_bom_detail_id, erp_workplan_detail_id,
		title, description, quantity, setup_minutes, run_minutes,
		is_duration_manual, total_duration_minutes,
		planned_start, planned_end, actual_start, actual_end,
		status, blocked_reason, priority, delivery_date,
		department_id, machine_id, employee_id, created_by_id,
		version, progress, created_at, updated_at`

// SQLiteTodoRepo implements TodoRepo over a DBTX, so the same code runs
// against *sql.DB and transaction scopes.
type SQLiteTodoRepo struct {
	db db.DBTX
}

// NewSQLiteTodoRepo creates a new SQLiteTodoRepo.
func NewSQLiteTodoRepo(dbtx db.DBTX) *SQLiteTodoRepo {
	return &SQLiteTodoRepo{db: dbtx}
}

func (r *SQLiteTodoRepo) Create(ctx context.Context, t *domain.Todo) error {
	query := `INSERT INTO todos (` + todoColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		nullableStrToValue(t.ParentID),
		string(t.Type),
		nullableInt64ToValue(t.ErpOrderID),
		nullableInt64ToValue(t.ErpOrderArticleID),
		nullableInt64ToValue(t.ErpBomDetailID),
		nullableInt64ToValue(t.ErpWorkplanDetailID),
		t.Title,
		t.Description,
		t.Quantity,
		t.SetupMinutes,
		t.RunMinutes,
		boolToInt(t.IsDurationManual),
		t.TotalDurationMinutes,
		nullableTimeToString(t.PlannedStart, time.RFC3339),
		nullableTimeToString(t.PlannedEnd, time.RFC3339),
		nullableTimeToString(t.ActualStart, time.RFC3339),
		nullableTimeToString(t.ActualEnd, time.RFC3339),
		string(t.Status),
		t.BlockedReason,
		t.Priority,
		nullableTimeToString(t.DeliveryDate, dateLayout),
		nullableStrToValue(t.DepartmentID),
		nullableStrToValue(t.MachineID),
		nullableStrToValue(t.EmployeeID),
		nullableStrToValue(t.CreatedByID),
		t.Version,
		t.Progress,
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting todo: %w", err)
	}
	return nil
}

func (r *SQLiteTodoRepo) GetByID(ctx context.Context, id string) (*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanTodo(row)
}

func (r *SQLiteTodoRepo) List(ctx context.Context, f TodoFilter) ([]*domain.Todo, error) {
	var (
		where []string
		args  []any
	)

	if f.ErpOrderID != nil {
		where = append(where, "erp_order_id = ?")
		args = append(args, *f.ErpOrderID)
	}
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}
	if len(f.Types) > 0 {
		where = append(where, "todo_type IN ("+placeholders(len(f.Types))+")")
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	if f.PlannedFrom != nil {
		where = append(where, "planned_end >= ?")
		args = append(args, f.PlannedFrom.Format(time.RFC3339))
	}
	if f.PlannedTo != nil {
		where = append(where, "planned_start <= ?")
		args = append(args, f.PlannedTo.Format(time.RFC3339))
	}
	if f.ResourceID != nil {
		where = append(where, "(department_id = ? OR machine_id = ? OR employee_id = ?)")
		args = append(args, *f.ResourceID, *f.ResourceID, *f.ResourceID)
	}
	if f.EmployeeID != nil {
		where = append(where, "(employee_id = ? OR created_by_id = ?)")
		args = append(args, *f.EmployeeID, *f.EmployeeID)
	}
	if f.ParentID != nil {
		where = append(where, "parent_id = ?")
		args = append(args, *f.ParentID)
	}
	if f.HasConflicts {
		where = append(where, `EXISTS (SELECT 1 FROM conflicts c
			WHERE c.todo_id = todos.id AND c.resolved = 0)`)
	}
	if f.Search != "" {
		where = append(where, "(title LIKE ? OR description LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}

	// Category toggles OR together when more than one is set.
	var cats []string
	if f.CategoryOrders {
		cats = append(cats, string(domain.TypeContainerOrder))
	}
	if f.CategoryArticles {
		cats = append(cats, string(domain.TypeContainerArticle))
	}
	if f.CategoryOperations {
		cats = append(cats, string(domain.TypeOperation))
	}
	if len(cats) > 0 {
		where = append(where, "todo_type IN ("+placeholders(len(cats))+")")
		for _, c := range cats {
			args = append(args, c)
		}
	}

	query := `SELECT ` + todoColumns + ` FROM todos`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY priority DESC, planned_start, created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	defer rows.Close()
	return r.scanTodos(rows)
}

// ListSchedulable returns todos participating in conflict detection:
// both planned timestamps set and status neither completed nor blocked.
func (r *SQLiteTodoRepo) ListSchedulable(ctx context.Context) ([]*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos
		WHERE planned_start IS NOT NULL
		  AND planned_end IS NOT NULL
		  AND status NOT IN ('completed', 'blocked')
		ORDER BY planned_start`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing schedulable todos: %w", err)
	}
	defer rows.Close()
	return r.scanTodos(rows)
}

func (r *SQLiteTodoRepo) ListChildren(ctx context.Context, parentID string) ([]*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE parent_id = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing child todos: %w", err)
	}
	defer rows.Close()
	return r.scanTodos(rows)
}

// Update performs a compare-and-swap on (id, version). The caller's
// t.Version must be the version it last read; on success the stored
// row carries t.Version+1 and t is updated to match.
func (r *SQLiteTodoRepo) Update(ctx context.Context, t *domain.Todo) error {
	query := `UPDATE todos SET parent_id = ?, todo_type = ?,
		erp_order_id = ?, erp_order_article_id = ?, erp_bom_detail_id = ?, erp_workplan_detail_id = ?,
		title = ?, description = ?, quantity = ?, setup_minutes = ?, run_minutes = ?,
		is_duration_manual = ?, total_duration_minutes = ?,
		planned_start = ?, planned_end = ?, actual_start = ?, actual_end = ?,
		status = ?, blocked_reason = ?, priority = ?, delivery_date = ?,
		department_id = ?, machine_id = ?, employee_id = ?, created_by_id = ?,
		version = version + 1, progress = ?, updated_at = ?
		WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableStrToValue(t.ParentID),
		string(t.Type),
		nullableInt64ToValue(t.ErpOrderID),
		nullableInt64ToValue(t.ErpOrderArticleID),
		nullableInt64ToValue(t.ErpBomDetailID),
		nullableInt64ToValue(t.ErpWorkplanDetailID),
		t.Title,
		t.Description,
		t.Quantity,
		t.SetupMinutes,
		t.RunMinutes,
		boolToInt(t.IsDurationManual),
		t.TotalDurationMinutes,
		nullableTimeToString(t.PlannedStart, time.RFC3339),
		nullableTimeToString(t.PlannedEnd, time.RFC3339),
		nullableTimeToString(t.ActualStart, time.RFC3339),
		nullableTimeToString(t.ActualEnd, time.RFC3339),
		string(t.Status),
		t.BlockedReason,
		t.Priority,
		nullableTimeToString(t.DeliveryDate, dateLayout),
		nullableStrToValue(t.DepartmentID),
		nullableStrToValue(t.MachineID),
		nullableStrToValue(t.EmployeeID),
		nullableStrToValue(t.CreatedByID),
		t.Progress,
		t.UpdatedAt.Format(time.RFC3339),
		t.ID,
		t.Version,
	)
	if err != nil {
		return fmt.Errorf("updating todo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		// Distinguish a stale version from a missing row.
		var exists int
		checkErr := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM todos WHERE id = ?`, t.ID).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("checking todo existence: %w", checkErr)
		}
		if exists == 0 {
			return fmt.Errorf("todo %s: %w", t.ID, ErrNotFound)
		}
		return fmt.Errorf("todo %s at version %d: %w", t.ID, t.Version, ErrVersionConflict)
	}
	t.Version++
	return nil
}

func (r *SQLiteTodoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting todo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteTodoRepo) scanTodo(row *sql.Row) (*domain.Todo, error) {
	t, err := scanTodoFrom(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("todo: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning todo: %w", err)
	}
	return t, nil
}

func (r *SQLiteTodoRepo) scanTodos(rows *sql.Rows) ([]*domain.Todo, error) {
	var todos []*domain.Todo
	for rows.Next() {
		t, err := scanTodoFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating todos: %w", err)
	}
	return todos, nil
}

// scanTodoFrom scans one todo from any Scan-shaped source.
func scanTodoFrom(scan func(dest ...any) error) (*domain.Todo, error) {
	var t domain.Todo
	var (
		parentID, plannedStart, plannedEnd, actualStart, actualEnd  sql.NullString
		deliveryDate, departmentID, machineID, employeeID, createdBy sql.NullString
		orderID, orderArticleID, bomDetailID, workplanDetailID      sql.NullInt64
		typeStr, statusStr, createdAt, updatedAt                    string
		manualInt                                                   int
	)
	if err := scan(
		&t.ID, &parentID, &typeStr,
		&orderID, &orderArticleID, &bomDetailID, &workplanDetailID,
		&t.Title, &t.Description, &t.Quantity, &t.SetupMinutes, &t.RunMinutes,
		&manualInt, &t.TotalDurationMinutes,
		&plannedStart, &plannedEnd, &actualStart, &actualEnd,
		&statusStr, &t.BlockedReason, &t.Priority, &deliveryDate,
		&departmentID, &machineID, &employeeID, &createdBy,
		&t.Version, &t.Progress, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	t.ParentID = nullStrPtr(parentID)
	t.Type = domain.TodoType(typeStr)
	t.ErpOrderID = nullInt64Ptr(orderID)
	t.ErpOrderArticleID = nullInt64Ptr(orderArticleID)
	t.ErpBomDetailID = nullInt64Ptr(bomDetailID)
	t.ErpWorkplanDetailID = nullInt64Ptr(workplanDetailID)
	t.IsDurationManual = intToBool(manualInt)
	t.PlannedStart = parseNullableTime(plannedStart, time.RFC3339)
	t.PlannedEnd = parseNullableTime(plannedEnd, time.RFC3339)
	t.ActualStart = parseNullableTime(actualStart, time.RFC3339)
	t.ActualEnd = parseNullableTime(actualEnd, time.RFC3339)
	t.Status = domain.TodoStatus(statusStr)
	t.DeliveryDate = parseNullableTime(deliveryDate, dateLayout)
	t.DepartmentID = nullStrPtr(departmentID)
	t.MachineID = nullStrPtr(machineID)
	t.EmployeeID = nullStrPtr(employeeID)
	t.CreatedByID = nullStrPtr(createdBy)

	var err error
	t.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	t.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &t, nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
