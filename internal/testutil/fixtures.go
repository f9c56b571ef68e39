package testutil

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mkessler/plantafel/internal/domain"
)

var erpIDCounter atomic.Int64

// NextErpID hands out unique fake ERP ids within a test binary.
func NextErpID() int64 {
	return erpIDCounter.Add(1)
}

// Todo options
type TodoOption func(*domain.Todo)

func WithType(tt domain.TodoType) TodoOption {
	return func(t *domain.Todo) { t.Type = tt }
}

func WithStatus(s domain.TodoStatus) TodoOption {
	return func(t *domain.Todo) { t.Status = s }
}

func WithParent(parentID string) TodoOption {
	return func(t *domain.Todo) { t.ParentID = &parentID }
}

func WithPlanned(start, end time.Time) TodoOption {
	return func(t *domain.Todo) {
		t.PlannedStart = &start
		t.PlannedEnd = &end
	}
}

func WithMachine(machineID string) TodoOption {
	return func(t *domain.Todo) { t.MachineID = &machineID }
}

func WithEmployee(employeeID string) TodoOption {
	return func(t *domain.Todo) { t.EmployeeID = &employeeID }
}

func WithDeliveryDate(d time.Time) TodoOption {
	return func(t *domain.Todo) { t.DeliveryDate = &d }
}

func WithErpOrder(orderID int64) TodoOption {
	return func(t *domain.Todo) { t.ErpOrderID = &orderID }
}

func WithTimes(setup, run int, quantity float64) TodoOption {
	return func(t *domain.Todo) {
		t.SetupMinutes = setup
		t.RunMinutes = run
		t.Quantity = quantity
	}
}

func NewTestTodo(title string, opts ...TodoOption) *domain.Todo {
	now := time.Now().UTC()
	t := &domain.Todo{
		ID:        uuid.New().String(),
		Type:      domain.TypeOperation,
		Title:     title,
		Quantity:  1,
		Status:    domain.StatusNew,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Resource options
type ResourceOption func(*domain.Resource)

func WithInactive() ResourceOption {
	return func(r *domain.Resource) { r.Active = false }
}

func WithErpID(erpID int64) ResourceOption {
	return func(r *domain.Resource) { r.ErpID = erpID }
}

func NewTestResource(typ domain.ResourceType, name string, opts ...ResourceOption) *domain.Resource {
	r := &domain.Resource{
		ID:       uuid.New().String(),
		Type:     typ,
		ErpID:    NextErpID(),
		Name:     name,
		Capacity: domain.DefaultCapacity(typ),
		Active:   true,
		SyncedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func NewTestDependency(predecessorID, successorID string, typ domain.DependencyType, lag int) *domain.TodoDependency {
	return &domain.TodoDependency{
		ID:            uuid.New().String(),
		PredecessorID: predecessorID,
		SuccessorID:   successorID,
		Type:          typ,
		LagMinutes:    lag,
	}
}

func NewTestSegment(todoID string, index int, start, end time.Time) *domain.TodoSegment {
	return &domain.TodoSegment{
		ID:           uuid.New().String(),
		TodoID:       todoID,
		SegmentIndex: index,
		StartAt:      start,
		EndAt:        end,
	}
}

func NewTestConflict(todoID string, typ domain.ConflictType, sev domain.ConflictSeverity) *domain.Conflict {
	return &domain.Conflict{
		ID:        uuid.New().String(),
		Type:      typ,
		TodoID:    todoID,
		Severity:  sev,
		CreatedAt: time.Now().UTC(),
	}
}
