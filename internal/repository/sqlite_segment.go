package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/domain"
)

// SQLiteSegmentRepo implements SegmentRepo over a DBTX.
type SQLiteSegmentRepo struct {
	db db.DBTX
}

// NewSQLiteSegmentRepo creates a new SQLiteSegmentRepo.
func NewSQLiteSegmentRepo(dbtx db.DBTX) *SQLiteSegmentRepo {
	return &SQLiteSegmentRepo{db: dbtx}
}

// ReplaceForTodo swaps the todo's segment set in place. Callers run
// this inside a UnitOfWork when the swap must be atomic with a todo
// update.
func (r *SQLiteSegmentRepo) ReplaceForTodo(ctx context.Context, todoID string, segments []*domain.TodoSegment) error {
	if err := r.DeleteByTodo(ctx, todoID); err != nil {
		return err
	}
	query := `INSERT INTO todo_segments (id, todo_id, segment_index, start_at, end_at, machine_id, employee_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, s := range segments {
		if _, err := r.db.ExecContext(ctx, query,
			s.ID,
			todoID,
			s.SegmentIndex,
			s.StartAt.Format(time.RFC3339),
			s.EndAt.Format(time.RFC3339),
			nullableStrToValue(s.MachineID),
			nullableStrToValue(s.EmployeeID),
		); err != nil {
			return fmt.Errorf("inserting segment %d: %w", s.SegmentIndex, err)
		}
	}
	return nil
}

func (r *SQLiteSegmentRepo) ListByTodo(ctx context.Context, todoID string) ([]*domain.TodoSegment, error) {
	query := `SELECT id, todo_id, segment_index, start_at, end_at, machine_id, employee_id
		FROM todo_segments WHERE todo_id = ? ORDER BY segment_index`
	rows, err := r.db.QueryContext(ctx, query, todoID)
	if err != nil {
		return nil, fmt.Errorf("listing segments: %w", err)
	}
	defer rows.Close()

	var segments []*domain.TodoSegment
	for rows.Next() {
		var s domain.TodoSegment
		var startStr, endStr string
		var machineID, employeeID sql.NullString
		if err := rows.Scan(&s.ID, &s.TodoID, &s.SegmentIndex, &startStr, &endStr, &machineID, &employeeID); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		if s.StartAt, err = time.Parse(time.RFC3339, startStr); err != nil {
			return nil, fmt.Errorf("parsing segment start: %w", err)
		}
		if s.EndAt, err = time.Parse(time.RFC3339, endStr); err != nil {
			return nil, fmt.Errorf("parsing segment end: %w", err)
		}
		s.MachineID = nullStrPtr(machineID)
		s.EmployeeID = nullStrPtr(employeeID)
		segments = append(segments, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating segments: %w", err)
	}
	return segments, nil
}

func (r *SQLiteSegmentRepo) DeleteByTodo(ctx context.Context, todoID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM todo_segments WHERE todo_id = ?`, todoID); err != nil {
		return fmt.Errorf("deleting segments: %w", err)
	}
	return nil
}
