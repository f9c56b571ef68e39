package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/erp"
	"github.com/mkessler/plantafel/internal/repository"
)

// syncedTypes is the order a full sync walks the resource types.
// Departments first so machine/employee department references resolve
// against fresh data.
var syncedTypes = []domain.ResourceType{
	domain.ResourceDepartment,
	domain.ResourceMachine,
	domain.ResourceEmployee,
}

type syncService struct {
	provider erp.ResourceProvider
	uow      db.UnitOfWork
	obs      UseCaseObserver
}

func NewSyncService(provider erp.ResourceProvider, uow db.UnitOfWork, obs UseCaseObserver) SyncService {
	if obs == nil {
		obs = NoopUseCaseObserver{}
	}
	return &syncService{provider: provider, uow: uow, obs: obs}
}

// SyncAll syncs every resource type, each in its own transaction. One
// type failing (ERP view renamed, connection dropped mid-fetch) leaves
// the others' results intact, which is why this returns a result
// instead of an error.
func (s *syncService) SyncAll(ctx context.Context) *SyncResult {
	result := &SyncResult{
		Success: true,
		ByType:  make(map[domain.ResourceType]TypeSyncResult, len(syncedTypes)),
	}
	for _, typ := range syncedTypes {
		r := s.SyncType(ctx, typ)
		result.ByType[typ] = r
		if r.Err != nil {
			result.Success = false
		}
	}
	return result
}

// SyncType mirrors one resource type from the ERP into the local cache:
// new rows are inserted, renamed or reactivated rows updated, and rows
// the ERP no longer reports are deactivated. Rows are never deleted so
// historical assignments keep resolving.
func (s *syncService) SyncType(ctx context.Context, typ domain.ResourceType) TypeSyncResult {
	var result TypeSyncResult
	result.Err = observe(ctx, s.obs, "sync.resource_type", map[string]any{"type": string(typ)}, func() error {
		records, err := s.provider.FetchResources(ctx, typ)
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txResources := repository.NewSQLiteResourceRepo(tx)

			existing, err := txResources.ListByType(ctx, typ, false)
			if err != nil {
				return err
			}
			byErpID := make(map[int64]*domain.Resource, len(existing))
			for _, r := range existing {
				byErpID[r.ErpID] = r
			}

			seen := make(map[int64]bool, len(records))
			for _, rec := range records {
				seen[rec.ErpID] = true

				cur, ok := byErpID[rec.ErpID]
				if !ok {
					res := &domain.Resource{
						ID:              uuid.New().String(),
						Type:            typ,
						ErpID:           rec.ErpID,
						Name:            rec.Name,
						Capacity:        domain.DefaultCapacity(typ),
						DepartmentErpID: rec.DepartmentErpID,
						Level:           rec.Level,
						Active:          true,
						SyncedAt:        now,
					}
					if err := txResources.Create(ctx, res); err != nil {
						return err
					}
					result.Added++
					continue
				}

				if resourceUnchanged(cur, rec) {
					continue
				}
				cur.Name = rec.Name
				cur.DepartmentErpID = rec.DepartmentErpID
				cur.Level = rec.Level
				cur.Active = true
				cur.SyncedAt = now
				if err := txResources.Update(ctx, cur); err != nil {
					return err
				}
				result.Updated++
			}

			for erpID, cur := range byErpID {
				if seen[erpID] || !cur.Active {
					continue
				}
				if err := txResources.Deactivate(ctx, cur.ID, now); err != nil {
					return err
				}
				result.Deactivated++
			}
			return nil
		})
	})
	return result
}

func resourceUnchanged(cur *domain.Resource, rec erp.ResourceRecord) bool {
	if !cur.Active || cur.Name != rec.Name || cur.Level != rec.Level {
		return false
	}
	switch {
	case cur.DepartmentErpID == nil && rec.DepartmentErpID == nil:
		return true
	case cur.DepartmentErpID != nil && rec.DepartmentErpID != nil:
		return *cur.DepartmentErpID == *rec.DepartmentErpID
	default:
		return false
	}
}
