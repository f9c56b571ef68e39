// Package importer turns uploaded assembly parts lists into article
// todos, one background job at a time.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/erp"
	"github.com/mkessler/plantafel/internal/repository"
	"github.com/mkessler/plantafel/internal/service"
)

// Request is one assembly import: a named parts list, optionally hung
// under an existing parent todo.
type Request struct {
	FileName string
	ParentID *string
	Items    []erp.AssemblyItem
}

// Importer runs assembly imports sequentially. Start returns as soon as
// the job row exists; the work happens in a goroutine that first takes
// the single worker slot, so two imports never interleave their writes.
type Importer struct {
	jobs repository.ImportJobRepo
	uow  db.UnitOfWork
	obs  service.UseCaseObserver

	// slot is the worker semaphore, capacity 1. Injected so tests can
	// hold it to observe queueing.
	slot chan struct{}
}

func New(jobs repository.ImportJobRepo, uow db.UnitOfWork, obs service.UseCaseObserver, slot chan struct{}) *Importer {
	if obs == nil {
		obs = service.NoopUseCaseObserver{}
	}
	if slot == nil {
		slot = make(chan struct{}, 1)
	}
	return &Importer{jobs: jobs, uow: uow, obs: obs, slot: slot}
}

// Start records the job and hands it to the worker. The returned id is
// immediately pollable via Status.
func (i *Importer) Start(ctx context.Context, req Request) (string, error) {
	if len(req.Items) == 0 {
		return "", fmt.Errorf("empty parts list: %w", service.ErrValidation)
	}
	job := &domain.ImportJob{
		ID:            uuid.New().String(),
		FileName:      req.FileName,
		State:         domain.ImportPending,
		ArticlesTotal: len(req.Items),
		CreatedAt:     time.Now().UTC(),
	}
	if err := i.jobs.Create(ctx, job); err != nil {
		return "", err
	}

	// The worker outlives the request; it must not die with the
	// request context.
	go i.run(context.WithoutCancel(ctx), job.ID, req)
	return job.ID, nil
}

func (i *Importer) Status(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	return i.jobs.GetByID(ctx, jobID)
}

func (i *Importer) run(ctx context.Context, jobID string, req Request) {
	i.slot <- struct{}{}
	defer func() { <-i.slot }()

	err := observe(ctx, i.obs, "import.run", map[string]any{"job_id": jobID, "items": len(req.Items)}, func() error {
		job, err := i.jobs.GetByID(ctx, jobID)
		if err != nil {
			return err
		}
		started := time.Now().UTC()
		job.State = domain.ImportRunning
		job.StartedAt = &started
		if err := i.jobs.Update(ctx, job); err != nil {
			return err
		}

		importErr := i.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txTodos := repository.NewSQLiteTodoRepo(tx)
			now := time.Now().UTC()
			for idx, item := range req.Items {
				if item.ArticleNumber == "" {
					return fmt.Errorf("row %d: article number missing: %w", idx+1, service.ErrValidation)
				}
				todo := &domain.Todo{
					ID:        uuid.New().String(),
					ParentID:  req.ParentID,
					Type:      domain.TypeTask,
					Title:     fmt.Sprintf("%s %s", item.ArticleNumber, item.Description),
					Quantity:  item.Quantity,
					Status:    domain.StatusNew,
					Version:   1,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := txTodos.Create(ctx, todo); err != nil {
					return fmt.Errorf("row %d: %w", idx+1, err)
				}
				job.ArticlesDone = idx + 1
			}
			return nil
		})

		finished := time.Now().UTC()
		job.FinishedAt = &finished
		if importErr != nil {
			job.State = domain.ImportFailed
			job.ArticlesDone = 0
			job.Error = importErr.Error()
		} else {
			job.State = domain.ImportCompleted
		}
		if err := i.jobs.Update(ctx, job); err != nil {
			return err
		}
		return importErr
	})
	_ = err // recorded on the job row; nothing left to do here
}

// observe mirrors the service-layer wrapper without importing its
// unexported form.
func observe(ctx context.Context, obs service.UseCaseObserver, name string, fields map[string]any, fn func() error) error {
	started := time.Now()
	err := fn()
	obs.ObserveUseCase(ctx, service.UseCaseEvent{
		Name:      name,
		Duration:  time.Since(started),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: started,
	})
	return err
}
