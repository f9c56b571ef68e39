package domain

import "time"

// TodoSegment is one contiguous slice of a split todo's execution
// window. SegmentIndex is unique within the todo; segments only exist
// after an explicit split and die with their todo.
type TodoSegment struct {
	ID           string
	TodoID       string
	SegmentIndex int
	StartAt      time.Time
	EndAt        time.Time
	MachineID    *string
	EmployeeID   *string
}
