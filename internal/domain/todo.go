package domain

import "time"

// Scheduling granularity. All computed durations land on a 15-minute
// boundary; anything shorter is stretched to one slot.
const SlotMinutes = 15

type Todo struct {
	ID       string
	ParentID *string
	Type     TodoType

	// ERP cross-references (HUGWAWI side, read-only there)
	ErpOrderID          *int64
	ErpOrderArticleID   *int64
	ErpBomDetailID      *int64
	ErpWorkplanDetailID *int64

	Title       string
	Description string

	Quantity         float64
	SetupMinutes     int
	RunMinutes       int
	IsDurationManual bool
	// Authoritative only when IsDurationManual is set.
	TotalDurationMinutes int

	PlannedStart *time.Time
	PlannedEnd   *time.Time
	ActualStart  *time.Time
	ActualEnd    *time.Time

	Status        TodoStatus
	BlockedReason string
	Priority      int
	DeliveryDate  *time.Time

	DepartmentID *string
	MachineID    *string
	EmployeeID   *string
	CreatedByID  *string

	Version  int
	Progress float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveDuration computes the todo's duration in minutes.
// Manual overrides return the stored value verbatim. Otherwise
// setup + run*quantity is rounded UP to the next slot boundary, with a
// one-slot floor for zero or negative raw values. Conflict detection
// relies on this exact rounding, it is not display formatting.
func (t *Todo) EffectiveDuration() int {
	if t.IsDurationManual {
		return t.TotalDurationMinutes
	}
	raw := float64(t.SetupMinutes) + float64(t.RunMinutes)*t.Quantity
	if raw <= 0 {
		return SlotMinutes
	}
	whole := int(raw)
	if float64(whole) < raw {
		whole++
	}
	if rem := whole % SlotMinutes; rem != 0 {
		whole += SlotMinutes - rem
	}
	return whole
}

// IsContainer reports whether the todo groups other todos rather than
// representing schedulable work itself.
func (t *Todo) IsContainer() bool {
	return t.Type == TypeContainerOrder || t.Type == TypeContainerArticle
}

// Schedulable reports whether the todo participates in conflict
// detection: both planned times set and not in a terminal status.
func (t *Todo) Schedulable() bool {
	if t.PlannedStart == nil || t.PlannedEnd == nil {
		return false
	}
	return t.Status != StatusCompleted && t.Status != StatusBlocked
}
