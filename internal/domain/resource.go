package domain

import "time"

// Nominal capacities in minutes per day. Departments are pooled, so
// they carry a larger nominal capacity than a single machine or person.
const (
	CapacitySingle = 480
	CapacityPooled = 2400
)

// Resource is a locally cached mirror of one ERP machine, employee or
// department row. Rows are deactivated on sync, never deleted, so
// historical todo assignments stay resolvable.
type Resource struct {
	ID              string
	Type            ResourceType
	ErpID           int64
	Name            string
	Capacity        int
	DepartmentErpID *int64
	Level           string
	Active          bool
	SyncedAt        time.Time
}

// DefaultCapacity returns the nominal capacity for a resource type.
func DefaultCapacity(t ResourceType) int {
	if t == ResourceDepartment {
		return CapacityPooled
	}
	return CapacitySingle
}
