package domain

type TodoType string

const (
	TypeContainerOrder   TodoType = "container_order"
	TypeContainerArticle TodoType = "container_article"
	TypeOperation        TodoType = "operation"
	TypeEigene           TodoType = "eigene"
	TypeTask             TodoType = "task"
	TypeProject          TodoType = "project"
)

// ValidTodoTypes is the canonical set of accepted todo type strings.
var ValidTodoTypes = map[string]bool{
	"container_order": true, "container_article": true, "operation": true,
	"eigene": true, "task": true, "project": true,
}

type TodoStatus string

const (
	StatusNew        TodoStatus = "new"
	StatusPlanned    TodoStatus = "planned"
	StatusInProgress TodoStatus = "in_progress"
	StatusCompleted  TodoStatus = "completed"
	StatusBlocked    TodoStatus = "blocked"
)

// ValidTodoStatuses is the canonical set of accepted status strings.
var ValidTodoStatuses = map[string]bool{
	"new": true, "planned": true, "in_progress": true,
	"completed": true, "blocked": true,
}

type DependencyType string

const (
	FinishToStart  DependencyType = "finish_to_start"
	StartToStart   DependencyType = "start_to_start"
	FinishToFinish DependencyType = "finish_to_finish"
)

var ValidDependencyTypes = map[string]bool{
	"finish_to_start": true, "start_to_start": true, "finish_to_finish": true,
}

type ResourceType string

const (
	ResourceDepartment ResourceType = "department"
	ResourceMachine    ResourceType = "machine"
	ResourceEmployee   ResourceType = "employee"
)

var ValidResourceTypes = map[string]bool{
	"department": true, "machine": true, "employee": true,
}

type ConflictType string

const (
	ConflictResourceOverlap ConflictType = "resource_overlap"
	ConflictCalendar        ConflictType = "calendar"
	ConflictDependency      ConflictType = "dependency"
	ConflictDeliveryDate    ConflictType = "delivery_date"
	ConflictQualification   ConflictType = "qualification"
)

type ConflictSeverity string

const (
	SeverityWarning ConflictSeverity = "warning"
	SeverityError   ConflictSeverity = "error"
)

type ImportJobState string

const (
	ImportPending   ImportJobState = "pending"
	ImportRunning   ImportJobState = "running"
	ImportCompleted ImportJobState = "completed"
	ImportFailed    ImportJobState = "failed"
)
