package repository

import (
	"context"
	"time"

	"github.com/mkessler/plantafel/internal/domain"
)

// TodoFilter narrows List results. Zero values mean "no constraint".
// The three category booleans OR together when more than one is set.
type TodoFilter struct {
	ErpOrderID   *int64
	Statuses     []domain.TodoStatus
	Types        []domain.TodoType
	PlannedFrom  *time.Time
	PlannedTo    *time.Time
	ResourceID   *string
	EmployeeID   *string
	ParentID     *string
	HasConflicts bool
	Search       string

	CategoryOrders     bool
	CategoryArticles   bool
	CategoryOperations bool
}

// ConflictWithTitle is a conflict joined with todo titles for display.
type ConflictWithTitle struct {
	Conflict         domain.Conflict
	TodoTitle        string
	RelatedTodoTitle string
}

type TodoRepo interface {
	Create(ctx context.Context, t *domain.Todo) error
	GetByID(ctx context.Context, id string) (*domain.Todo, error)
	List(ctx context.Context, f TodoFilter) ([]*domain.Todo, error)
	ListSchedulable(ctx context.Context) ([]*domain.Todo, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.Todo, error)
	// Update is a compare-and-swap on (id, version): zero rows affected
	// is reported as ErrVersionConflict. On success the stored version
	// is the supplied version + 1.
	Update(ctx context.Context, t *domain.Todo) error
	Delete(ctx context.Context, id string) error
}

type SegmentRepo interface {
	ReplaceForTodo(ctx context.Context, todoID string, segments []*domain.TodoSegment) error
	ListByTodo(ctx context.Context, todoID string) ([]*domain.TodoSegment, error)
	DeleteByTodo(ctx context.Context, todoID string) error
}

type DependencyRepo interface {
	Create(ctx context.Context, d *domain.TodoDependency) error
	GetByID(ctx context.Context, id string) (*domain.TodoDependency, error)
	List(ctx context.Context) ([]*domain.TodoDependency, error)
	ListByTodo(ctx context.Context, todoID string) ([]*domain.TodoDependency, error)
	Exists(ctx context.Context, predecessorID, successorID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type ResourceRepo interface {
	Create(ctx context.Context, r *domain.Resource) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	GetByErpID(ctx context.Context, typ domain.ResourceType, erpID int64) (*domain.Resource, error)
	ListByType(ctx context.Context, typ domain.ResourceType, activeOnly bool) ([]*domain.Resource, error)
	Update(ctx context.Context, r *domain.Resource) error
	Deactivate(ctx context.Context, id string, syncedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type ConflictRepo interface {
	Create(ctx context.Context, c *domain.Conflict) error
	List(ctx context.Context, unresolvedOnly bool) ([]ConflictWithTitle, error)
	ListByTodo(ctx context.Context, todoID string) ([]*domain.Conflict, error)
	// DeleteUnresolvedByTypes clears prior findings before a full pass
	// re-derives the given categories.
	DeleteUnresolvedByTypes(ctx context.Context, types []domain.ConflictType) error
	// DeleteForTodo clears conflicts where the todo is subject or related,
	// ahead of an incremental recheck.
	DeleteForTodo(ctx context.Context, todoID string) error
	SetResolved(ctx context.Context, id string, resolved bool) error
	CountUnresolvedByTodo(ctx context.Context) (map[string]int, error)
}

type ImportJobRepo interface {
	Create(ctx context.Context, j *domain.ImportJob) error
	GetByID(ctx context.Context, id string) (*domain.ImportJob, error)
	Update(ctx context.Context, j *domain.ImportJob) error
}
