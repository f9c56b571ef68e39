package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/repository"
)

// ganttRootParent is the chart's synthetic root node id.
const ganttRootParent = "0"

type ganttService struct {
	todos     repository.TodoRepo
	deps      repository.DependencyRepo
	conflicts repository.ConflictRepo
	uow       db.UnitOfWork
	obs       UseCaseObserver
}

func NewGanttService(
	todos repository.TodoRepo,
	deps repository.DependencyRepo,
	conflicts repository.ConflictRepo,
	uow db.UnitOfWork,
	obs UseCaseObserver,
) GanttService {
	if obs == nil {
		obs = NoopUseCaseObserver{}
	}
	return &ganttService{todos: todos, deps: deps, conflicts: conflicts, uow: uow, obs: obs}
}

// Data projects the todo tree and its dependencies into the chart's
// task/link shape. Pure read model: nothing here mutates.
func (s *ganttService) Data(ctx context.Context) (*GanttData, error) {
	todos, err := s.todos.List(ctx, repository.TodoFilter{})
	if err != nil {
		return nil, err
	}
	deps, err := s.deps.List(ctx)
	if err != nil {
		return nil, err
	}
	conflictCounts, err := s.conflicts.CountUnresolvedByTodo(ctx)
	if err != nil {
		return nil, err
	}

	data := &GanttData{
		Tasks: make([]GanttTask, 0, len(todos)),
		Links: make([]GanttLink, 0, len(deps)),
	}
	for _, t := range todos {
		data.Tasks = append(data.Tasks, projectTask(t, conflictCounts[t.ID] > 0))
	}
	for _, d := range deps {
		data.Links = append(data.Links, GanttLink{
			ID:     d.ID,
			Source: d.PredecessorID,
			Target: d.SuccessorID,
			Type:   d.GanttLinkType(),
			Lag:    d.LagMinutes,
		})
	}
	return data, nil
}

func projectTask(t *domain.Todo, hasConflicts bool) GanttTask {
	parent := ganttRootParent
	if t.ParentID != nil {
		parent = *t.ParentID
	}
	chartType := "task"
	if t.IsContainer() {
		chartType = "project"
	}
	return GanttTask{
		ID:           t.ID,
		Text:         t.Title,
		Start:        t.PlannedStart,
		Duration:     t.EffectiveDuration(),
		Parent:       parent,
		Type:         chartType,
		Progress:     ganttProgress(t),
		HasConflicts: hasConflicts,
	}
}

// ganttProgress maps status to the chart's progress fraction. Blocked
// keeps whatever progress was recorded before the block.
func ganttProgress(t *domain.Todo) float64 {
	switch t.Status {
	case domain.StatusNew:
		return 0
	case domain.StatusPlanned:
		return 0.1
	case domain.StatusInProgress:
		return 0.5
	case domain.StatusCompleted:
		return 1
	default:
		return t.Progress
	}
}

// ApplyBatch applies a board session's accumulated changes in one
// transaction. Item-level failures (stale version, vanished row, bad
// input) are collected and the rest of the batch still applies;
// infrastructure failures roll the whole batch back.
func (s *ganttService) ApplyBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	result := &BatchResult{}
	err := observe(ctx, s.obs, "gantt.apply_batch", map[string]any{
		"created_tasks": len(req.CreatedTasks),
		"updated_tasks": len(req.UpdatedTasks),
		"deleted_tasks": len(req.DeletedTasks),
	}, func() error {
		return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txTodos := repository.NewSQLiteTodoRepo(tx)
			txDeps := repository.NewSQLiteDependencyRepo(tx)

			for _, bt := range req.CreatedTasks {
				if err := createBoardTask(ctx, txTodos, bt); err != nil {
					if itemErr := asItemError("task", bt.ID, err, result); itemErr != nil {
						return itemErr
					}
					continue
				}
				result.Applied++
			}
			for _, bt := range req.UpdatedTasks {
				if err := updateBoardTask(ctx, txTodos, bt); err != nil {
					if itemErr := asItemError("task", bt.ID, err, result); itemErr != nil {
						return itemErr
					}
					continue
				}
				result.Applied++
			}
			for _, id := range req.DeletedTasks {
				if err := txTodos.Delete(ctx, id); err != nil {
					if itemErr := asItemError("task", id, err, result); itemErr != nil {
						return itemErr
					}
					continue
				}
				result.Applied++
			}
			for _, bl := range req.CreatedLinks {
				if err := createBoardLink(ctx, txDeps, bl); err != nil {
					if itemErr := asItemError("link", bl.ID, err, result); itemErr != nil {
						return itemErr
					}
					continue
				}
				result.Applied++
			}
			for _, id := range req.DeletedLinks {
				if err := txDeps.Delete(ctx, id); err != nil {
					if itemErr := asItemError("link", id, err, result); itemErr != nil {
						return itemErr
					}
					continue
				}
				result.Applied++
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// asItemError records expected per-item failures on the result and
// returns nil; anything else is returned to abort the transaction.
func asItemError(kind, id string, err error, result *BatchResult) error {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrVersionConflict),
		errors.Is(err, repository.ErrDuplicateDependency),
		errors.Is(err, ErrValidation):
		result.Errors = append(result.Errors, BatchItemError{
			Kind:    kind,
			ID:      id,
			Message: err.Error(),
		})
		return nil
	default:
		return err
	}
}

func createBoardTask(ctx context.Context, todos repository.TodoRepo, bt BatchTask) error {
	if bt.Title == "" {
		return fmt.Errorf("task title must not be empty: %w", ErrValidation)
	}
	now := time.Now().UTC()
	id := bt.ID
	if id == "" {
		id = uuid.New().String()
	}
	t := &domain.Todo{
		ID:       id,
		ParentID: bt.ParentID,
		Type:     domain.TypeTask,
		Title:    bt.Title,
		Status:   domain.StatusNew,

		MachineID:  bt.MachineID,
		EmployeeID: bt.EmployeeID,

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyBoardSchedule(t, bt)
	return todos.Create(ctx, t)
}

func updateBoardTask(ctx context.Context, todos repository.TodoRepo, bt BatchTask) error {
	t, err := todos.GetByID(ctx, bt.ID)
	if err != nil {
		return err
	}
	if bt.Title != "" {
		t.Title = bt.Title
	}
	if bt.ParentID != nil {
		t.ParentID = bt.ParentID
	}
	if bt.MachineID != nil {
		t.MachineID = bt.MachineID
	}
	if bt.EmployeeID != nil {
		t.EmployeeID = bt.EmployeeID
	}
	applyBoardSchedule(t, bt)
	// The board's version, not the freshly loaded one: a concurrent
	// editor since the board loaded must surface as a conflict.
	t.Version = bt.Version
	t.UpdatedAt = time.Now().UTC()
	return todos.Update(ctx, t)
}

// applyBoardSchedule sets the planned window from a board task. A
// board-side resize pins the duration as a manual override, so the
// next ERP quantity change does not silently undo the drag.
func applyBoardSchedule(t *domain.Todo, bt BatchTask) {
	if bt.Start != nil {
		start := bt.Start.UTC()
		t.PlannedStart = &start
		if t.Status == domain.StatusNew {
			t.Status = domain.StatusPlanned
		}
	}
	if bt.DurationMinutes != nil {
		t.IsDurationManual = true
		t.TotalDurationMinutes = *bt.DurationMinutes
	}
	if t.PlannedStart != nil {
		end := t.PlannedStart.Add(time.Duration(t.EffectiveDuration()) * time.Minute)
		t.PlannedEnd = &end
	}
}

func createBoardLink(ctx context.Context, deps repository.DependencyRepo, bl BatchLink) error {
	id := bl.ID
	if id == "" {
		id = uuid.New().String()
	}
	var typ domain.DependencyType
	switch bl.Type {
	case 1:
		typ = domain.StartToStart
	case 2:
		typ = domain.FinishToFinish
	default:
		typ = domain.FinishToStart
	}
	return deps.Create(ctx, &domain.TodoDependency{
		ID:            id,
		PredecessorID: bl.Source,
		SuccessorID:   bl.Target,
		Type:          typ,
		LagMinutes:    bl.LagMinutes,
	})
}
