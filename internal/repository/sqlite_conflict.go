package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/domain"
)

// SQLiteConflictRepo implements ConflictRepo over a DBTX.
type SQLiteConflictRepo struct {
	db db.DBTX
}

// NewSQLiteConflictRepo creates a new SQLiteConflictRepo.
func NewSQLiteConflictRepo(dbtx db.DBTX) *SQLiteConflictRepo {
	return &SQLiteConflictRepo{db: dbtx}
}

func (r *SQLiteConflictRepo) Create(ctx context.Context, c *domain.Conflict) error {
	query := `INSERT INTO conflicts (id, conflict_type, todo_id, related_todo_id,
		description, severity, resolved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		string(c.Type),
		c.TodoID,
		nullableStrToValue(c.RelatedTodoID),
		c.Description,
		string(c.Severity),
		boolToInt(c.Resolved),
		c.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting conflict: %w", err)
	}
	return nil
}

// List returns conflicts joined with todo titles for display.
func (r *SQLiteConflictRepo) List(ctx context.Context, unresolvedOnly bool) ([]ConflictWithTitle, error) {
	query := `SELECT c.id, c.conflict_type, c.todo_id, c.related_todo_id,
			c.description, c.severity, c.resolved, c.created_at,
			t.title, COALESCE(rt.title, '')
		FROM conflicts c
		JOIN todos t ON c.todo_id = t.id
		LEFT JOIN todos rt ON c.related_todo_id = rt.id`
	if unresolvedOnly {
		query += ` WHERE c.resolved = 0`
	}
	query += ` ORDER BY c.severity DESC, c.created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing conflicts: %w", err)
	}
	defer rows.Close()

	var result []ConflictWithTitle
	for rows.Next() {
		var cw ConflictWithTitle
		var typeStr, sevStr, createdAt string
		var relatedID sql.NullString
		var resolvedInt int
		if err := rows.Scan(
			&cw.Conflict.ID, &typeStr, &cw.Conflict.TodoID, &relatedID,
			&cw.Conflict.Description, &sevStr, &resolvedInt, &createdAt,
			&cw.TodoTitle, &cw.RelatedTodoTitle,
		); err != nil {
			return nil, fmt.Errorf("scanning conflict: %w", err)
		}
		cw.Conflict.Type = domain.ConflictType(typeStr)
		cw.Conflict.RelatedTodoID = nullStrPtr(relatedID)
		cw.Conflict.Severity = domain.ConflictSeverity(sevStr)
		cw.Conflict.Resolved = intToBool(resolvedInt)
		cw.Conflict.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing conflict created_at: %w", err)
		}
		result = append(result, cw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conflicts: %w", err)
	}
	return result, nil
}

func (r *SQLiteConflictRepo) ListByTodo(ctx context.Context, todoID string) ([]*domain.Conflict, error) {
	query := `SELECT id, conflict_type, todo_id, related_todo_id,
			description, severity, resolved, created_at
		FROM conflicts WHERE todo_id = ? OR related_todo_id = ?
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, todoID, todoID)
	if err != nil {
		return nil, fmt.Errorf("listing conflicts by todo: %w", err)
	}
	defer rows.Close()

	var conflicts []*domain.Conflict
	for rows.Next() {
		var c domain.Conflict
		var typeStr, sevStr, createdAt string
		var relatedID sql.NullString
		var resolvedInt int
		if err := rows.Scan(
			&c.ID, &typeStr, &c.TodoID, &relatedID,
			&c.Description, &sevStr, &resolvedInt, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning conflict: %w", err)
		}
		c.Type = domain.ConflictType(typeStr)
		c.RelatedTodoID = nullStrPtr(relatedID)
		c.Severity = domain.ConflictSeverity(sevStr)
		c.Resolved = intToBool(resolvedInt)
		c.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing conflict created_at: %w", err)
		}
		conflicts = append(conflicts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conflicts: %w", err)
	}
	return conflicts, nil
}

func (r *SQLiteConflictRepo) DeleteUnresolvedByTypes(ctx context.Context, types []domain.ConflictType) error {
	if len(types) == 0 {
		return nil
	}
	query := `DELETE FROM conflicts WHERE resolved = 0 AND conflict_type IN (` + placeholders(len(types)) + `)`
	args := make([]any, len(types))
	for i, t := range types {
		args[i] = string(t)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clearing unresolved conflicts: %w", err)
	}
	return nil
}

func (r *SQLiteConflictRepo) DeleteForTodo(ctx context.Context, todoID string) error {
	query := `DELETE FROM conflicts WHERE todo_id = ? OR related_todo_id = ?`
	if _, err := r.db.ExecContext(ctx, query, todoID, todoID); err != nil {
		return fmt.Errorf("clearing conflicts for todo: %w", err)
	}
	return nil
}

func (r *SQLiteConflictRepo) SetResolved(ctx context.Context, id string, resolved bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE conflicts SET resolved = ? WHERE id = ?`, boolToInt(resolved), id)
	if err != nil {
		return fmt.Errorf("updating conflict resolution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("conflict %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountUnresolvedByTodo returns unresolved conflict counts keyed by
// todo id, feeding the Gantt projection's conflict-presence flag.
func (r *SQLiteConflictRepo) CountUnresolvedByTodo(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT todo_id, COUNT(*) FROM conflicts WHERE resolved = 0 GROUP BY todo_id`)
	if err != nil {
		return nil, fmt.Errorf("counting conflicts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var todoID string
		var n int
		if err := rows.Scan(&todoID, &n); err != nil {
			return nil, fmt.Errorf("scanning conflict count: %w", err)
		}
		counts[todoID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conflict counts: %w", err)
	}
	return counts, nil
}
