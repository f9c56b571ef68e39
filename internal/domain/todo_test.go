package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveDuration_Rounding(t *testing.T) {
	tests := []struct {
		name     string
		setup    int
		run      int
		quantity float64
		want     int
	}{
		{"all zero clamps to one slot", 0, 0, 0, 15},
		{"raw 20 rounds up to 30", 10, 5, 2, 30},
		{"raw 15 stays 15", 0, 15, 1, 15},
		{"raw 1 rounds up to 15", 1, 0, 0, 15},
		{"raw 16 rounds up to 30", 16, 0, 1, 30},
		{"raw 45 stays 45", 15, 15, 2, 45},
		{"fractional quantity rounds up", 0, 10, 1.5, 15},
		{"fractional over slot rounds up", 0, 10, 1.7, 30},
		{"negative raw clamps to one slot", -30, 0, 1, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todo := &Todo{SetupMinutes: tt.setup, RunMinutes: tt.run, Quantity: tt.quantity}
			assert.Equal(t, tt.want, todo.EffectiveDuration())
		})
	}
}

func TestEffectiveDuration_ManualOverride(t *testing.T) {
	todo := &Todo{
		SetupMinutes:         10,
		RunMinutes:           5,
		Quantity:             2,
		IsDurationManual:     true,
		TotalDurationMinutes: 37,
	}
	assert.Equal(t, 37, todo.EffectiveDuration(), "manual duration bypasses rounding")

	todo.TotalDurationMinutes = 0
	assert.Equal(t, 0, todo.EffectiveDuration(), "manual duration is verbatim even when zero")
}

func TestSchedulable(t *testing.T) {
	start := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	todo := &Todo{Status: StatusPlanned}
	assert.False(t, todo.Schedulable(), "no planned times")

	todo.PlannedStart = &start
	todo.PlannedEnd = &end
	assert.True(t, todo.Schedulable())

	todo.Status = StatusCompleted
	assert.False(t, todo.Schedulable())

	todo.Status = StatusBlocked
	assert.False(t, todo.Schedulable())
}

func TestGanttLinkType(t *testing.T) {
	assert.Equal(t, 0, (&TodoDependency{Type: FinishToStart}).GanttLinkType())
	assert.Equal(t, 1, (&TodoDependency{Type: StartToStart}).GanttLinkType())
	assert.Equal(t, 2, (&TodoDependency{Type: FinishToFinish}).GanttLinkType())
}

func TestIsContainer(t *testing.T) {
	assert.True(t, (&Todo{Type: TypeContainerOrder}).IsContainer())
	assert.True(t, (&Todo{Type: TypeContainerArticle}).IsContainer())
	assert.False(t, (&Todo{Type: TypeOperation}).IsContainer())
	assert.False(t, (&Todo{Type: TypeEigene}).IsContainer())
}

func TestDefaultCapacity(t *testing.T) {
	assert.Equal(t, CapacityPooled, DefaultCapacity(ResourceDepartment))
	assert.Equal(t, CapacitySingle, DefaultCapacity(ResourceMachine))
	assert.Equal(t, CapacitySingle, DefaultCapacity(ResourceEmployee))
}
