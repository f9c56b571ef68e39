package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/erp"
	"github.com/mkessler/plantafel/internal/repository"
)

// maxParentDepth bounds the ancestor walk. Real planning trees are four
// levels deep (order, article, BOM item, operation); anything past this
// is corrupt data.
const maxParentDepth = 32

type todoService struct {
	todos     repository.TodoRepo
	segments  repository.SegmentRepo
	resources repository.ResourceRepo
	orders    erp.OrderProvider
	uow       db.UnitOfWork
	obs       UseCaseObserver
}

func NewTodoService(
	todos repository.TodoRepo,
	segments repository.SegmentRepo,
	resources repository.ResourceRepo,
	orders erp.OrderProvider,
	uow db.UnitOfWork,
	obs UseCaseObserver,
) TodoService {
	if obs == nil {
		obs = NoopUseCaseObserver{}
	}
	return &todoService{
		todos:     todos,
		segments:  segments,
		resources: resources,
		orders:    orders,
		uow:       uow,
		obs:       obs,
	}
}

func (s *todoService) Create(ctx context.Context, t *domain.Todo) error {
	return observe(ctx, s.obs, "todo.create", map[string]any{"type": string(t.Type)}, func() error {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		now := time.Now().UTC()
		t.CreatedAt = now
		t.UpdatedAt = now
		if t.Status == "" {
			t.Status = domain.StatusNew
		}
		if t.Version == 0 {
			t.Version = 1
		}
		if err := validateTodo(t); err != nil {
			return err
		}
		if t.ParentID != nil {
			if err := s.checkAncestry(ctx, t.ID, *t.ParentID); err != nil {
				return err
			}
		}
		return s.todos.Create(ctx, t)
	})
}

func (s *todoService) GetByID(ctx context.Context, id string) (*domain.Todo, error) {
	return s.todos.GetByID(ctx, id)
}

func (s *todoService) List(ctx context.Context, f repository.TodoFilter) ([]*domain.Todo, error) {
	return s.todos.List(ctx, f)
}

func (s *todoService) Update(ctx context.Context, t *domain.Todo) error {
	return observe(ctx, s.obs, "todo.update", map[string]any{"todo_id": t.ID}, func() error {
		if err := validateTodo(t); err != nil {
			return err
		}
		if t.ParentID != nil {
			if err := s.checkAncestry(ctx, t.ID, *t.ParentID); err != nil {
				return err
			}
		}
		t.UpdatedAt = time.Now().UTC()
		return s.todos.Update(ctx, t)
	})
}

func (s *todoService) Delete(ctx context.Context, id string) error {
	return observe(ctx, s.obs, "todo.delete", map[string]any{"todo_id": id}, func() error {
		return s.todos.Delete(ctx, id)
	})
}

// Split replaces the todo's segments with the requested set. At least
// two segments make a split; anything less is rejected up front.
func (s *todoService) Split(ctx context.Context, todoID string, specs []SegmentSpec) ([]*domain.TodoSegment, error) {
	if len(specs) < 2 {
		return nil, fmt.Errorf("split needs at least 2 segments, got %d: %w", len(specs), ErrValidation)
	}
	for i, spec := range specs {
		if !spec.EndAt.After(spec.StartAt) {
			return nil, fmt.Errorf("segment %d end must be after start: %w", i, ErrValidation)
		}
	}

	var created []*domain.TodoSegment
	err := observe(ctx, s.obs, "todo.split", map[string]any{"todo_id": todoID, "segments": len(specs)}, func() error {
		return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txTodos := repository.NewSQLiteTodoRepo(tx)
			txSegments := repository.NewSQLiteSegmentRepo(tx)

			if _, err := txTodos.GetByID(ctx, todoID); err != nil {
				return err
			}

			segments := make([]*domain.TodoSegment, len(specs))
			for i, spec := range specs {
				segments[i] = &domain.TodoSegment{
					ID:           uuid.New().String(),
					TodoID:       todoID,
					SegmentIndex: i,
					StartAt:      spec.StartAt.UTC(),
					EndAt:        spec.EndAt.UTC(),
					MachineID:    spec.MachineID,
					EmployeeID:   spec.EmployeeID,
				}
			}
			if err := txSegments.ReplaceForTodo(ctx, todoID, segments); err != nil {
				return err
			}
			created = segments
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *todoService) Segments(ctx context.Context, todoID string) ([]*domain.TodoSegment, error) {
	return s.segments.ListByTodo(ctx, todoID)
}

// GenerateFromOrder fans one ERP order out into a todo tree: a
// container per order, a child per order article, and optionally
// grandchildren per BOM item and workplan operation. One transaction,
// so a half-created tree never survives.
func (s *todoService) GenerateFromOrder(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if s.orders == nil {
		return nil, fmt.Errorf("no erp order provider configured: %w", ErrValidation)
	}

	order, err := s.orders.FetchOrder(ctx, req.ErpOrderID)
	if err != nil {
		return nil, fmt.Errorf("fetching erp order: %w", err)
	}

	var result GenerateResult
	err = observe(ctx, s.obs, "todo.generate", map[string]any{"erp_order_id": req.ErpOrderID}, func() error {
		return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txTodos := repository.NewSQLiteTodoRepo(tx)
			txResources := repository.NewSQLiteResourceRepo(tx)
			now := time.Now().UTC()

			var deliveryDate *time.Time
			if order.DeliveryDate != nil {
				if d, err := time.Parse("2006-01-02", *order.DeliveryDate); err == nil {
					deliveryDate = &d
				}
			}

			container := &domain.Todo{
				ID:           uuid.New().String(),
				Type:         domain.TypeContainerOrder,
				ErpOrderID:   &order.OrderID,
				Title:        fmt.Sprintf("Auftrag %s – %s", order.OrderNumber, order.Customer),
				DeliveryDate: deliveryDate,
				Status:       domain.StatusNew,
				CreatedByID:  req.CreatedByID,
				Version:      1,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := txTodos.Create(ctx, container); err != nil {
				return err
			}
			result.ContainerID = container.ID

			for _, article := range order.Articles {
				articleID := article.OrderArticleID
				articleTodo := &domain.Todo{
					ID:                uuid.New().String(),
					ParentID:          &container.ID,
					Type:              domain.TypeContainerArticle,
					ErpOrderID:        &order.OrderID,
					ErpOrderArticleID: &articleID,
					Title:             fmt.Sprintf("%s %s", article.ArticleNumber, article.Description),
					Quantity:          article.Quantity,
					DeliveryDate:      deliveryDate,
					Status:            domain.StatusNew,
					CreatedByID:       req.CreatedByID,
					Version:           1,
					CreatedAt:         now,
					UpdatedAt:         now,
				}
				if err := txTodos.Create(ctx, articleTodo); err != nil {
					return fmt.Errorf("creating article todo %q: %w", articleTodo.Title, err)
				}
				result.ArticleCount++

				if req.IncludeBomItems {
					for _, item := range article.BomItems {
						bomID := item.BomDetailID
						bomTodo := &domain.Todo{
							ID:             uuid.New().String(),
							ParentID:       &articleTodo.ID,
							Type:           domain.TypeTask,
							ErpOrderID:     &order.OrderID,
							ErpBomDetailID: &bomID,
							Title:          item.Name,
							Quantity:       item.Quantity,
							Status:         domain.StatusNew,
							CreatedByID:    req.CreatedByID,
							Version:        1,
							CreatedAt:      now,
							UpdatedAt:      now,
						}
						if err := txTodos.Create(ctx, bomTodo); err != nil {
							return fmt.Errorf("creating bom todo %q: %w", bomTodo.Title, err)
						}
						result.BomItemCount++
					}
				}

				if req.IncludeOperations {
					for _, op := range article.Operations {
						opID := op.WorkplanDetailID
						opTodo := &domain.Todo{
							ID:                  uuid.New().String(),
							ParentID:            &articleTodo.ID,
							Type:                domain.TypeOperation,
							ErpOrderID:          &order.OrderID,
							ErpWorkplanDetailID: &opID,
							Title:               op.Name,
							Quantity:            article.Quantity,
							SetupMinutes:        op.SetupMinutes,
							RunMinutes:          op.RunMinutes,
							Status:              domain.StatusNew,
							CreatedByID:         req.CreatedByID,
							Version:             1,
							CreatedAt:           now,
							UpdatedAt:           now,
						}
						if op.MachineErpID != nil {
							if machine, err := txResources.GetByErpID(ctx, domain.ResourceMachine, *op.MachineErpID); err == nil {
								opTodo.MachineID = &machine.ID
							}
						}
						if op.DepartmentErpID != nil {
							if dept, err := txResources.GetByErpID(ctx, domain.ResourceDepartment, *op.DepartmentErpID); err == nil {
								opTodo.DepartmentID = &dept.ID
							}
						}
						if err := txTodos.Create(ctx, opTodo); err != nil {
							return fmt.Errorf("creating operation todo %q: %w", opTodo.Title, err)
						}
						result.OperationCount++
					}
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// checkAncestry walks the parent chain from parentID and rejects the
// assignment if it reaches todoID.
func (s *todoService) checkAncestry(ctx context.Context, todoID, parentID string) error {
	current := parentID
	for depth := 0; depth < maxParentDepth; depth++ {
		if current == todoID {
			return fmt.Errorf("parent %s: %w", parentID, ErrCyclicParent)
		}
		parent, err := s.todos.GetByID(ctx, current)
		if err != nil {
			return fmt.Errorf("resolving parent chain: %w", err)
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
	return fmt.Errorf("parent chain deeper than %d levels: %w", maxParentDepth, ErrValidation)
}

func validateTodo(t *domain.Todo) error {
	if t.Title == "" {
		return fmt.Errorf("title is required: %w", ErrValidation)
	}
	if !domain.ValidTodoTypes[string(t.Type)] {
		return fmt.Errorf("unknown todo type %q: %w", t.Type, ErrValidation)
	}
	if !domain.ValidTodoStatuses[string(t.Status)] {
		return fmt.Errorf("unknown status %q: %w", t.Status, ErrValidation)
	}
	if t.PlannedStart != nil && t.PlannedEnd != nil && t.PlannedEnd.Before(*t.PlannedStart) {
		return fmt.Errorf("planned end before planned start: %w", ErrValidation)
	}
	if t.Progress < 0 || t.Progress > 1 {
		return fmt.Errorf("progress %v out of range: %w", t.Progress, ErrValidation)
	}
	if t.Quantity < 0 {
		return fmt.Errorf("negative quantity: %w", ErrValidation)
	}
	return nil
}
