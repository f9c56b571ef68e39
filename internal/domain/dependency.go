package domain

// TodoDependency is a directed ordering edge between two todos.
// One edge per ordered (predecessor, successor) pair, regardless of type.
type TodoDependency struct {
	ID            string
	PredecessorID string
	SuccessorID   string
	Type          DependencyType
	LagMinutes    int
}

// GanttLinkType maps the dependency type to the chart link code
// (0=finish-to-start, 1=start-to-start, 2=finish-to-finish).
func (d *TodoDependency) GanttLinkType() int {
	switch d.Type {
	case StartToStart:
		return 1
	case FinishToFinish:
		return 2
	default:
		return 0
	}
}
