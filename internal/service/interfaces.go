package service

import (
	"context"
	"time"

	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/repository"
)

// SegmentSpec is one requested slice of a split.
type SegmentSpec struct {
	StartAt    time.Time
	EndAt      time.Time
	MachineID  *string
	EmployeeID *string
}

// GenerateRequest drives bulk todo generation from one ERP order.
type GenerateRequest struct {
	ErpOrderID        int64
	IncludeBomItems   bool
	IncludeOperations bool
	CreatedByID       *string
}

// GenerateResult reports what the fan-out created.
type GenerateResult struct {
	ContainerID    string
	ArticleCount   int
	BomItemCount   int
	OperationCount int
}

type TodoService interface {
	Create(ctx context.Context, t *domain.Todo) error
	GetByID(ctx context.Context, id string) (*domain.Todo, error)
	List(ctx context.Context, f repository.TodoFilter) ([]*domain.Todo, error)
	Update(ctx context.Context, t *domain.Todo) error
	Delete(ctx context.Context, id string) error
	Split(ctx context.Context, todoID string, specs []SegmentSpec) ([]*domain.TodoSegment, error)
	Segments(ctx context.Context, todoID string) ([]*domain.TodoSegment, error)
	GenerateFromOrder(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

type DependencyService interface {
	Create(ctx context.Context, d *domain.TodoDependency) error
	List(ctx context.Context) ([]*domain.TodoDependency, error)
	ListByTodo(ctx context.Context, todoID string) ([]*domain.TodoDependency, error)
	Delete(ctx context.Context, id string) error
}

// ConflictCounts aggregates one full detection pass by category.
type ConflictCounts struct {
	ResourceOverlaps     int
	DependencyViolations int
	DeliveryOverruns     int
}

func (c ConflictCounts) Total() int {
	return c.ResourceOverlaps + c.DependencyViolations + c.DeliveryOverruns
}

type ConflictService interface {
	// CheckAll clears unresolved conflicts of the recomputed types and
	// re-derives them over all schedulable todos, atomically.
	CheckAll(ctx context.Context) (*ConflictCounts, error)
	// CheckTodo re-checks one todo after a move/resize/reassignment.
	// Only the currently assigned resource pool and the todo's own
	// delivery date are re-checked; dependencies wait for the next full
	// pass. Returns the number of conflicts found.
	CheckTodo(ctx context.Context, todoID string) (int, error)
	List(ctx context.Context, unresolvedOnly bool) ([]repository.ConflictWithTitle, error)
	Resolve(ctx context.Context, id string, resolved bool) error
}

// TypeSyncResult reports one resource type's sync outcome. Err is set
// when that type's fetch or persistence failed; the other types are
// unaffected.
type TypeSyncResult struct {
	Added       int
	Updated     int
	Deactivated int
	Err         error
}

// SyncResult aggregates a sync pass. Success is true only when every
// type synced cleanly.
type SyncResult struct {
	Success bool
	ByType  map[domain.ResourceType]TypeSyncResult
}

type SyncService interface {
	SyncAll(ctx context.Context) *SyncResult
	SyncType(ctx context.Context, typ domain.ResourceType) TypeSyncResult
}

// GanttTask is the chart projection of one todo.
type GanttTask struct {
	ID           string     `json:"id"`
	Text         string     `json:"text"`
	Start        *time.Time `json:"start_date"`
	Duration     int        `json:"duration"`
	Parent       string     `json:"parent"`
	Type         string     `json:"type"`
	Progress     float64    `json:"progress"`
	HasConflicts bool       `json:"has_conflicts"`
}

// GanttLink is the chart projection of one dependency.
type GanttLink struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   int    `json:"type"`
	Lag    int    `json:"lag"`
}

type GanttData struct {
	Tasks []GanttTask `json:"tasks"`
	Links []GanttLink `json:"links"`
}

// BatchTask is one board-side task change.
type BatchTask struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Start           *time.Time `json:"start"`
	DurationMinutes *int       `json:"duration_minutes"`
	ParentID        *string    `json:"parent_id"`
	MachineID       *string    `json:"machine_id"`
	EmployeeID      *string    `json:"employee_id"`
	Version         int        `json:"version"`
}

// BatchLink is one board-side link change.
type BatchLink struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	Type       int    `json:"type"`
	LagMinutes int    `json:"lag_minutes"`
}

// BatchRequest carries a drag-and-drop session's accumulated changes.
type BatchRequest struct {
	CreatedTasks []BatchTask `json:"created_tasks"`
	UpdatedTasks []BatchTask `json:"updated_tasks"`
	DeletedTasks []string    `json:"deleted_tasks"`
	CreatedLinks []BatchLink `json:"created_links"`
	DeletedLinks []string    `json:"deleted_links"`
}

// BatchItemError records one failed batch item; the rest of the batch
// still applies.
type BatchItemError struct {
	Kind    string `json:"kind"` // "task" or "link"
	ID      string `json:"id"`
	Message string `json:"message"`
}

type BatchResult struct {
	Applied int              `json:"applied"`
	Errors  []BatchItemError `json:"errors"`
}

type GanttService interface {
	Data(ctx context.Context) (*GanttData, error)
	ApplyBatch(ctx context.Context, req BatchRequest) (*BatchResult, error)
}
