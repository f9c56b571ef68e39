package server

import (
	"time"

	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/repository"
)

// todoDTO is the wire shape of a todo. Effective duration is computed
// server-side so the board never re-implements the rounding.
type todoDTO struct {
	ID                  string     `json:"id"`
	ParentID            *string    `json:"parent_id"`
	Type                string     `json:"type"`
	ErpOrderID          *int64     `json:"erp_order_id"`
	ErpOrderArticleID   *int64     `json:"erp_order_article_id"`
	ErpBomDetailID      *int64     `json:"erp_bom_detail_id"`
	ErpWorkplanDetailID *int64     `json:"erp_workplan_detail_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Quantity            float64    `json:"quantity"`
	SetupMinutes        int        `json:"setup_minutes"`
	RunMinutes          int        `json:"run_minutes"`
	IsDurationManual    bool       `json:"is_duration_manual"`
	DurationMinutes     int        `json:"duration_minutes"`
	PlannedStart        *time.Time `json:"planned_start"`
	PlannedEnd          *time.Time `json:"planned_end"`
	ActualStart         *time.Time `json:"actual_start"`
	ActualEnd           *time.Time `json:"actual_end"`
	Status              string     `json:"status"`
	BlockedReason       string     `json:"blocked_reason,omitempty"`
	Priority            int        `json:"priority"`
	DeliveryDate        *string    `json:"delivery_date"`
	DepartmentID        *string    `json:"department_id"`
	MachineID           *string    `json:"machine_id"`
	EmployeeID          *string    `json:"employee_id"`
	Version             int        `json:"version"`
	Progress            float64    `json:"progress"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func toTodoDTO(t *domain.Todo) todoDTO {
	var delivery *string
	if t.DeliveryDate != nil {
		d := t.DeliveryDate.Format("2006-01-02")
		delivery = &d
	}
	return todoDTO{
		ID:                  t.ID,
		ParentID:            t.ParentID,
		Type:                string(t.Type),
		ErpOrderID:          t.ErpOrderID,
		ErpOrderArticleID:   t.ErpOrderArticleID,
		ErpBomDetailID:      t.ErpBomDetailID,
		ErpWorkplanDetailID: t.ErpWorkplanDetailID,
		Title:               t.Title,
		Description:         t.Description,
		Quantity:            t.Quantity,
		SetupMinutes:        t.SetupMinutes,
		RunMinutes:          t.RunMinutes,
		IsDurationManual:    t.IsDurationManual,
		DurationMinutes:     t.EffectiveDuration(),
		PlannedStart:        t.PlannedStart,
		PlannedEnd:          t.PlannedEnd,
		ActualStart:         t.ActualStart,
		ActualEnd:           t.ActualEnd,
		Status:              string(t.Status),
		BlockedReason:       t.BlockedReason,
		Priority:            t.Priority,
		DeliveryDate:        delivery,
		DepartmentID:        t.DepartmentID,
		MachineID:           t.MachineID,
		EmployeeID:          t.EmployeeID,
		Version:             t.Version,
		Progress:            t.Progress,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

func toTodoDTOs(todos []*domain.Todo) []todoDTO {
	out := make([]todoDTO, len(todos))
	for i, t := range todos {
		out[i] = toTodoDTO(t)
	}
	return out
}

// todoWriteReq covers both create and update bodies.
type todoWriteReq struct {
	ParentID         *string    `json:"parent_id"`
	Type             string     `json:"type"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Quantity         float64    `json:"quantity"`
	SetupMinutes     int        `json:"setup_minutes"`
	RunMinutes       int        `json:"run_minutes"`
	IsDurationManual bool       `json:"is_duration_manual"`
	DurationMinutes  int        `json:"duration_minutes"`
	PlannedStart     *time.Time `json:"planned_start"`
	PlannedEnd       *time.Time `json:"planned_end"`
	Status           string     `json:"status"`
	BlockedReason    string     `json:"blocked_reason"`
	Priority         int        `json:"priority"`
	DeliveryDate     *string    `json:"delivery_date"`
	DepartmentID     *string    `json:"department_id"`
	MachineID        *string    `json:"machine_id"`
	EmployeeID       *string    `json:"employee_id"`
	Progress         float64    `json:"progress"`
	Version          int        `json:"version"`
}

func (r *todoWriteReq) apply(t *domain.Todo) error {
	t.ParentID = r.ParentID
	if r.Type != "" {
		t.Type = domain.TodoType(r.Type)
	}
	t.Title = r.Title
	t.Description = r.Description
	t.Quantity = r.Quantity
	t.SetupMinutes = r.SetupMinutes
	t.RunMinutes = r.RunMinutes
	t.IsDurationManual = r.IsDurationManual
	t.TotalDurationMinutes = r.DurationMinutes
	t.PlannedStart = r.PlannedStart
	t.PlannedEnd = r.PlannedEnd
	if r.Status != "" {
		t.Status = domain.TodoStatus(r.Status)
	}
	t.BlockedReason = r.BlockedReason
	t.Priority = r.Priority
	t.DepartmentID = r.DepartmentID
	t.MachineID = r.MachineID
	t.EmployeeID = r.EmployeeID
	t.Progress = r.Progress
	if r.DeliveryDate == nil {
		t.DeliveryDate = nil
		return nil
	}
	d, err := time.Parse("2006-01-02", *r.DeliveryDate)
	if err != nil {
		return err
	}
	t.DeliveryDate = &d
	return nil
}

type dependencyDTO struct {
	ID            string `json:"id"`
	PredecessorID string `json:"predecessor_id"`
	SuccessorID   string `json:"successor_id"`
	Type          string `json:"type"`
	LagMinutes    int    `json:"lag_minutes"`
}

func toDependencyDTO(d *domain.TodoDependency) dependencyDTO {
	return dependencyDTO{
		ID:            d.ID,
		PredecessorID: d.PredecessorID,
		SuccessorID:   d.SuccessorID,
		Type:          string(d.Type),
		LagMinutes:    d.LagMinutes,
	}
}

type conflictDTO struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	TodoID           string    `json:"todo_id"`
	TodoTitle        string    `json:"todo_title"`
	RelatedTodoID    *string   `json:"related_todo_id"`
	RelatedTodoTitle string    `json:"related_todo_title,omitempty"`
	Description      string    `json:"description"`
	Severity         string    `json:"severity"`
	Resolved         bool      `json:"resolved"`
	CreatedAt        time.Time `json:"created_at"`
}

func toConflictDTO(c repository.ConflictWithTitle) conflictDTO {
	return conflictDTO{
		ID:               c.Conflict.ID,
		Type:             string(c.Conflict.Type),
		TodoID:           c.Conflict.TodoID,
		TodoTitle:        c.TodoTitle,
		RelatedTodoID:    c.Conflict.RelatedTodoID,
		RelatedTodoTitle: c.RelatedTodoTitle,
		Description:      c.Conflict.Description,
		Severity:         string(c.Conflict.Severity),
		Resolved:         c.Conflict.Resolved,
		CreatedAt:        c.Conflict.CreatedAt,
	}
}

type importJobDTO struct {
	ID            string     `json:"id"`
	FileName      string     `json:"file_name"`
	State         string     `json:"state"`
	ArticlesTotal int        `json:"articles_total"`
	ArticlesDone  int        `json:"articles_done"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
}

func toImportJobDTO(j *domain.ImportJob) importJobDTO {
	return importJobDTO{
		ID:            j.ID,
		FileName:      j.FileName,
		State:         string(j.State),
		ArticlesTotal: j.ArticlesTotal,
		ArticlesDone:  j.ArticlesDone,
		Error:         j.Error,
		CreatedAt:     j.CreatedAt,
		StartedAt:     j.StartedAt,
		FinishedAt:    j.FinishedAt,
	}
}
