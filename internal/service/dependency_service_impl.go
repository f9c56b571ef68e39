package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/repository"
)

type dependencyService struct {
	deps  repository.DependencyRepo
	todos repository.TodoRepo
	obs   UseCaseObserver
}

func NewDependencyService(deps repository.DependencyRepo, todos repository.TodoRepo, obs UseCaseObserver) DependencyService {
	if obs == nil {
		obs = NoopUseCaseObserver{}
	}
	return &dependencyService{deps: deps, todos: todos, obs: obs}
}

func (s *dependencyService) Create(ctx context.Context, d *domain.TodoDependency) error {
	return observe(ctx, s.obs, "dependency.create",
		map[string]any{"predecessor": d.PredecessorID, "successor": d.SuccessorID}, func() error {
			if d.ID == "" {
				d.ID = uuid.New().String()
			}
			if d.Type == "" {
				d.Type = domain.FinishToStart
			}
			if !domain.ValidDependencyTypes[string(d.Type)] {
				return fmt.Errorf("unknown dependency type %q: %w", d.Type, ErrValidation)
			}
			if d.PredecessorID == d.SuccessorID {
				return fmt.Errorf("dependency on itself: %w", ErrValidation)
			}

			// Both endpoints must exist; the FK would catch this too,
			// but a not-found beats a bare constraint error.
			if _, err := s.todos.GetByID(ctx, d.PredecessorID); err != nil {
				return fmt.Errorf("predecessor: %w", err)
			}
			if _, err := s.todos.GetByID(ctx, d.SuccessorID); err != nil {
				return fmt.Errorf("successor: %w", err)
			}

			// No cycle detection here: edges that loop show up as
			// permanent dependency conflicts instead.
			return s.deps.Create(ctx, d)
		})
}

func (s *dependencyService) List(ctx context.Context) ([]*domain.TodoDependency, error) {
	return s.deps.List(ctx)
}

func (s *dependencyService) ListByTodo(ctx context.Context, todoID string) ([]*domain.TodoDependency, error) {
	return s.deps.ListByTodo(ctx, todoID)
}

func (s *dependencyService) Delete(ctx context.Context, id string) error {
	return observe(ctx, s.obs, "dependency.delete", map[string]any{"dependency_id": id}, func() error {
		return s.deps.Delete(ctx, id)
	})
}
