package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/repository"
)

// deliveryGrace is how far past the delivery date a planned end may
// slip before the overrun escalates from warning to error. Business
// policy, not a tunable.
const deliveryGrace = 48 * time.Hour

// recomputedTypes are the categories a full pass clears and re-derives.
var recomputedTypes = []domain.ConflictType{
	domain.ConflictResourceOverlap,
	domain.ConflictDependency,
	domain.ConflictDeliveryDate,
}

type conflictService struct {
	uow db.UnitOfWork
	obs UseCaseObserver

	// non-tx repos for the read-only query surface
	conflicts repository.ConflictRepo
}

func NewConflictService(conflicts repository.ConflictRepo, uow db.UnitOfWork, obs UseCaseObserver) ConflictService {
	if obs == nil {
		obs = NoopUseCaseObserver{}
	}
	return &conflictService{conflicts: conflicts, uow: uow, obs: obs}
}

// CheckAll runs the full detection pass inside one transaction: prior
// unresolved findings of the recomputed categories are cleared, then
// re-derived from every schedulable todo. A failure rolls the whole
// pass back, so callers retry the pass rather than reason about
// partial conflict sets.
func (s *conflictService) CheckAll(ctx context.Context) (*ConflictCounts, error) {
	var counts ConflictCounts
	err := observe(ctx, s.obs, "conflict.check_all", nil, func() error {
		return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txTodos := repository.NewSQLiteTodoRepo(tx)
			txDeps := repository.NewSQLiteDependencyRepo(tx)
			txConflicts := repository.NewSQLiteConflictRepo(tx)
			txResources := repository.NewSQLiteResourceRepo(tx)

			todos, err := txTodos.ListSchedulable(ctx)
			if err != nil {
				return err
			}
			deps, err := txDeps.List(ctx)
			if err != nil {
				return err
			}

			if err := txConflicts.DeleteUnresolvedByTypes(ctx, recomputedTypes); err != nil {
				return err
			}

			names := newResourceNames(ctx, txResources)

			for _, c := range detectResourceOverlaps(todos, names) {
				if err := txConflicts.Create(ctx, c); err != nil {
					return err
				}
				counts.ResourceOverlaps++
			}
			for _, c := range detectDependencyViolations(todos, deps) {
				if err := txConflicts.Create(ctx, c); err != nil {
					return err
				}
				counts.DependencyViolations++
			}
			for _, c := range detectDeliveryOverruns(todos) {
				if err := txConflicts.Create(ctx, c); err != nil {
					return err
				}
				counts.DeliveryOverruns++
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

// CheckTodo re-checks a single todo after an edit. Prior conflicts
// naming the todo (as subject or related) are cleared, then only the
// currently assigned resource pool is re-checked: the machine when one
// is set, else the employee. Dependencies are left to the next full
// pass.
func (s *conflictService) CheckTodo(ctx context.Context, todoID string) (int, error) {
	var found int
	err := observe(ctx, s.obs, "conflict.check_todo", map[string]any{"todo_id": todoID}, func() error {
		return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txTodos := repository.NewSQLiteTodoRepo(tx)
			txConflicts := repository.NewSQLiteConflictRepo(tx)
			txResources := repository.NewSQLiteResourceRepo(tx)

			todo, err := txTodos.GetByID(ctx, todoID)
			if err != nil {
				return err
			}

			if err := txConflicts.DeleteForTodo(ctx, todoID); err != nil {
				return err
			}
			if !todo.Schedulable() {
				return nil
			}

			others, err := txTodos.ListSchedulable(ctx)
			if err != nil {
				return err
			}
			names := newResourceNames(ctx, txResources)

			var pool []*domain.Todo
			var resourceID *string
			switch {
			case todo.MachineID != nil:
				resourceID = todo.MachineID
				for _, o := range others {
					if o.ID != todo.ID && o.MachineID != nil && *o.MachineID == *todo.MachineID {
						pool = append(pool, o)
					}
				}
			case todo.EmployeeID != nil:
				resourceID = todo.EmployeeID
				for _, o := range others {
					if o.ID != todo.ID && o.EmployeeID != nil && *o.EmployeeID == *todo.EmployeeID {
						pool = append(pool, o)
					}
				}
			}

			for _, o := range pool {
				if overlaps(todo, o) {
					c := overlapConflict(todo, o, names.lookup(resourceID))
					if err := txConflicts.Create(ctx, c); err != nil {
						return err
					}
					found++
				}
			}

			if c := deliveryOverrun(todo); c != nil {
				if err := txConflicts.Create(ctx, c); err != nil {
					return err
				}
				found++
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return found, nil
}

func (s *conflictService) List(ctx context.Context, unresolvedOnly bool) ([]repository.ConflictWithTitle, error) {
	return s.conflicts.List(ctx, unresolvedOnly)
}

func (s *conflictService) Resolve(ctx context.Context, id string, resolved bool) error {
	return observe(ctx, s.obs, "conflict.resolve", map[string]any{"conflict_id": id}, func() error {
		return s.conflicts.SetResolved(ctx, id, resolved)
	})
}

// overlaps is the half-open interval test: touching endpoints do not
// overlap.
func overlaps(a, b *domain.Todo) bool {
	return a.PlannedStart.Before(*b.PlannedEnd) && b.PlannedStart.Before(*a.PlannedEnd)
}

// detectResourceOverlaps partitions schedulable todos per machine and
// per employee independently, sorts each pool by start, and reports
// every overlapping pair. Pools are small in this domain, so the
// pairwise scan is fine.
func detectResourceOverlaps(todos []*domain.Todo, names resourceNames) []*domain.Conflict {
	machinePools := make(map[string][]*domain.Todo)
	employeePools := make(map[string][]*domain.Todo)
	for _, t := range todos {
		if t.MachineID != nil {
			machinePools[*t.MachineID] = append(machinePools[*t.MachineID], t)
		}
		if t.EmployeeID != nil {
			employeePools[*t.EmployeeID] = append(employeePools[*t.EmployeeID], t)
		}
	}

	var conflicts []*domain.Conflict
	conflicts = append(conflicts, scanPools(machinePools, names)...)
	conflicts = append(conflicts, scanPools(employeePools, names)...)
	return conflicts
}

func scanPools(pools map[string][]*domain.Todo, names resourceNames) []*domain.Conflict {
	// Deterministic pool order keeps pass output stable for tests.
	ids := make([]string, 0, len(pools))
	for id := range pools {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var conflicts []*domain.Conflict
	for _, resourceID := range ids {
		pool := pools[resourceID]
		sort.Slice(pool, func(i, j int) bool {
			return pool[i].PlannedStart.Before(*pool[j].PlannedStart)
		})
		for i := 0; i < len(pool); i++ {
			for j := i + 1; j < len(pool); j++ {
				if overlaps(pool[i], pool[j]) {
					conflicts = append(conflicts, overlapConflict(pool[i], pool[j], names.lookup(&resourceID)))
				}
			}
		}
	}
	return conflicts
}

func overlapConflict(a, b *domain.Todo, resourceName string) *domain.Conflict {
	related := b.ID
	return &domain.Conflict{
		ID:            uuid.New().String(),
		Type:          domain.ConflictResourceOverlap,
		TodoID:        a.ID,
		RelatedTodoID: &related,
		Description: fmt.Sprintf("%q and %q double-book %s (%s – %s overlaps %s – %s)",
			a.Title, b.Title, resourceName,
			a.PlannedStart.Format("02.01. 15:04"), a.PlannedEnd.Format("15:04"),
			b.PlannedStart.Format("02.01. 15:04"), b.PlannedEnd.Format("15:04")),
		Severity:  domain.SeverityError,
		CreatedAt: time.Now().UTC(),
	}
}

// detectDependencyViolations checks every edge whose endpoints are both
// in scope against its constraint boundary.
func detectDependencyViolations(todos []*domain.Todo, deps []*domain.TodoDependency) []*domain.Conflict {
	byID := make(map[string]*domain.Todo, len(todos))
	for _, t := range todos {
		byID[t.ID] = t
	}

	var conflicts []*domain.Conflict
	for _, dep := range deps {
		pred, okP := byID[dep.PredecessorID]
		succ, okS := byID[dep.SuccessorID]
		if !okP || !okS {
			continue
		}

		lag := time.Duration(dep.LagMinutes) * time.Minute
		var violated bool
		var expected time.Time
		var bound string
		switch dep.Type {
		case domain.StartToStart:
			expected = pred.PlannedStart.Add(lag)
			violated = succ.PlannedStart.Before(expected)
			bound = "start"
		case domain.FinishToFinish:
			expected = pred.PlannedEnd.Add(lag)
			violated = succ.PlannedEnd.Before(expected)
			bound = "end"
		default: // finish-to-start
			expected = pred.PlannedEnd.Add(lag)
			violated = succ.PlannedStart.Before(expected)
			bound = "start"
		}
		if !violated {
			continue
		}

		related := pred.ID
		conflicts = append(conflicts, &domain.Conflict{
			ID:            uuid.New().String(),
			Type:          domain.ConflictDependency,
			TodoID:        succ.ID,
			RelatedTodoID: &related,
			Description: fmt.Sprintf("%q must %s no earlier than %s (after %q, lag %d min)",
				succ.Title, bound, expected.Format("02.01.2006 15:04"), pred.Title, dep.LagMinutes),
			Severity:  domain.SeverityError,
			CreatedAt: time.Now().UTC(),
		})
	}
	return conflicts
}

func detectDeliveryOverruns(todos []*domain.Todo) []*domain.Conflict {
	var conflicts []*domain.Conflict
	for _, t := range todos {
		if c := deliveryOverrun(t); c != nil {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts
}

// deliveryOverrun flags a planned end past end-of-day on the delivery
// date. Slips inside the grace window are warnings, anything further is
// an error.
func deliveryOverrun(t *domain.Todo) *domain.Conflict {
	if t.DeliveryDate == nil || t.PlannedEnd == nil {
		return nil
	}
	endOfDay := t.DeliveryDate.Truncate(24 * time.Hour).Add(24 * time.Hour)
	if !t.PlannedEnd.After(endOfDay) {
		return nil
	}

	overrun := t.PlannedEnd.Sub(endOfDay)
	severity := domain.SeverityWarning
	if overrun > deliveryGrace {
		severity = domain.SeverityError
	}
	return &domain.Conflict{
		ID:     uuid.New().String(),
		Type:   domain.ConflictDeliveryDate,
		TodoID: t.ID,
		Description: fmt.Sprintf("%q ends %s, %.1f days past delivery date %s",
			t.Title, t.PlannedEnd.Format("02.01.2006 15:04"),
			overrun.Hours()/24, t.DeliveryDate.Format("02.01.2006")),
		Severity:  severity,
		CreatedAt: time.Now().UTC(),
	}
}

// resourceNames lazily resolves resource display names for conflict
// descriptions.
type resourceNames struct {
	ctx   context.Context
	repo  repository.ResourceRepo
	cache map[string]string
}

func newResourceNames(ctx context.Context, repo repository.ResourceRepo) resourceNames {
	return resourceNames{ctx: ctx, repo: repo, cache: make(map[string]string)}
}

func (n resourceNames) lookup(id *string) string {
	if id == nil {
		return "unassigned resource"
	}
	if name, ok := n.cache[*id]; ok {
		return name
	}
	name := *id
	if res, err := n.repo.GetByID(n.ctx, *id); err == nil {
		name = res.Name
	}
	n.cache[*id] = name
	return name
}
