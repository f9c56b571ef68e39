package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/erp"
	"github.com/mkessler/plantafel/internal/repository"
	"github.com/mkessler/plantafel/internal/testutil"
)

// fakeResourceProvider serves canned ERP rows per type, with optional
// per-type failures.
type fakeResourceProvider struct {
	records map[domain.ResourceType][]erp.ResourceRecord
	fail    map[domain.ResourceType]error
}

func (p *fakeResourceProvider) FetchResources(_ context.Context, typ domain.ResourceType) ([]erp.ResourceRecord, error) {
	if err := p.fail[typ]; err != nil {
		return nil, err
	}
	return p.records[typ], nil
}

func TestSyncService_SyncType(t *testing.T) {
	ctx := context.Background()

	t.Run("first sync inserts everything", func(t *testing.T) {
		database := testutil.NewTestDB(t)
		resources := repository.NewSQLiteResourceRepo(database)
		provider := &fakeResourceProvider{records: map[domain.ResourceType][]erp.ResourceRecord{
			domain.ResourceMachine: {
				{ErpID: 10, Name: "Laser 1"},
				{ErpID: 11, Name: "Laser 2"},
			},
		}}
		svc := NewSyncService(provider, testutil.NewTestUoW(database), nil)

		r := svc.SyncType(ctx, domain.ResourceMachine)
		require.NoError(t, r.Err)
		require.Equal(t, 2, r.Added)
		require.Zero(t, r.Updated)
		require.Zero(t, r.Deactivated)

		cached, err := resources.ListByType(ctx, domain.ResourceMachine, true)
		require.NoError(t, err)
		require.Len(t, cached, 2)
		require.Equal(t, domain.CapacitySingle, cached[0].Capacity)
	})

	t.Run("rename updates, disappearance deactivates, nothing is deleted", func(t *testing.T) {
		database := testutil.NewTestDB(t)
		resources := repository.NewSQLiteResourceRepo(database)
		provider := &fakeResourceProvider{records: map[domain.ResourceType][]erp.ResourceRecord{
			domain.ResourceMachine: {
				{ErpID: 10, Name: "Laser 1"},
				{ErpID: 11, Name: "Laser 2"},
			},
		}}
		svc := NewSyncService(provider, testutil.NewTestUoW(database), nil)
		require.NoError(t, svc.SyncType(ctx, domain.ResourceMachine).Err)

		provider.records[domain.ResourceMachine] = []erp.ResourceRecord{
			{ErpID: 10, Name: "Laser 1 (umgebaut)"},
		}
		r := svc.SyncType(ctx, domain.ResourceMachine)
		require.NoError(t, r.Err)
		require.Zero(t, r.Added)
		require.Equal(t, 1, r.Updated)
		require.Equal(t, 1, r.Deactivated)

		all, err := resources.ListByType(ctx, domain.ResourceMachine, false)
		require.NoError(t, err)
		require.Len(t, all, 2, "deactivated rows stay in the cache")

		active, err := resources.ListByType(ctx, domain.ResourceMachine, true)
		require.NoError(t, err)
		require.Len(t, active, 1)
		require.Equal(t, "Laser 1 (umgebaut)", active[0].Name)
	})

	t.Run("unchanged rows are left alone", func(t *testing.T) {
		database := testutil.NewTestDB(t)
		provider := &fakeResourceProvider{records: map[domain.ResourceType][]erp.ResourceRecord{
			domain.ResourceEmployee: {{ErpID: 7, Name: "Meier"}},
		}}
		svc := NewSyncService(provider, testutil.NewTestUoW(database), nil)
		require.NoError(t, svc.SyncType(ctx, domain.ResourceEmployee).Err)

		r := svc.SyncType(ctx, domain.ResourceEmployee)
		require.NoError(t, r.Err)
		require.Zero(t, r.Added+r.Updated+r.Deactivated)
	})

	t.Run("reappearing resource is reactivated as an update", func(t *testing.T) {
		database := testutil.NewTestDB(t)
		resources := repository.NewSQLiteResourceRepo(database)
		provider := &fakeResourceProvider{records: map[domain.ResourceType][]erp.ResourceRecord{
			domain.ResourceMachine: {{ErpID: 10, Name: "Laser 1"}},
		}}
		svc := NewSyncService(provider, testutil.NewTestUoW(database), nil)
		require.NoError(t, svc.SyncType(ctx, domain.ResourceMachine).Err)

		provider.records[domain.ResourceMachine] = nil
		require.Equal(t, 1, svc.SyncType(ctx, domain.ResourceMachine).Deactivated)

		provider.records[domain.ResourceMachine] = []erp.ResourceRecord{{ErpID: 10, Name: "Laser 1"}}
		r := svc.SyncType(ctx, domain.ResourceMachine)
		require.NoError(t, r.Err)
		require.Equal(t, 1, r.Updated)

		active, err := resources.ListByType(ctx, domain.ResourceMachine, true)
		require.NoError(t, err)
		require.Len(t, active, 1)
	})
}

func TestSyncService_SyncAll_IsolatesTypeFailures(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	resources := repository.NewSQLiteResourceRepo(database)

	erpDown := errors.New("erp view gone")
	provider := &fakeResourceProvider{
		records: map[domain.ResourceType][]erp.ResourceRecord{
			domain.ResourceDepartment: {{ErpID: 1, Name: "Fertigung"}},
			domain.ResourceEmployee:   {{ErpID: 7, Name: "Meier"}},
		},
		fail: map[domain.ResourceType]error{
			domain.ResourceMachine: erpDown,
		},
	}
	svc := NewSyncService(provider, testutil.NewTestUoW(database), nil)

	result := svc.SyncAll(ctx)
	require.False(t, result.Success)
	require.Len(t, result.ByType, 3)
	require.NoError(t, result.ByType[domain.ResourceDepartment].Err)
	require.ErrorIs(t, result.ByType[domain.ResourceMachine].Err, erpDown)
	require.NoError(t, result.ByType[domain.ResourceEmployee].Err)

	// The failed type must not have dragged the others down.
	depts, err := resources.ListByType(ctx, domain.ResourceDepartment, true)
	require.NoError(t, err)
	require.Len(t, depts, 1)
	require.Equal(t, domain.CapacityPooled, depts[0].Capacity)

	people, err := resources.ListByType(ctx, domain.ResourceEmployee, true)
	require.NoError(t, err)
	require.Len(t, people, 1)
}
