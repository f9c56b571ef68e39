package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/erp"
	"github.com/mkessler/plantafel/internal/importer"
	"github.com/mkessler/plantafel/internal/repository"
	"github.com/mkessler/plantafel/internal/service"
)

func (s *Server) listTodos(c *gin.Context) {
	filter, err := parseTodoFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	todos, err := s.todos.List(c.Request.Context(), filter)
	if err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, toTodoDTOs(todos))
}

func parseTodoFilter(c *gin.Context) (repository.TodoFilter, error) {
	var f repository.TodoFilter
	if v := c.Query("erp_order_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, err
		}
		f.ErpOrderID = &id
	}
	for _, s := range c.QueryArray("status") {
		f.Statuses = append(f.Statuses, domain.TodoStatus(s))
	}
	for _, t := range c.QueryArray("type") {
		f.Types = append(f.Types, domain.TodoType(t))
	}
	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.PlannedFrom = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.PlannedTo = &to
	}
	if v := c.Query("resource_id"); v != "" {
		f.ResourceID = &v
	}
	if v := c.Query("employee_id"); v != "" {
		f.EmployeeID = &v
	}
	if v := c.Query("parent_id"); v != "" {
		f.ParentID = &v
	}
	f.HasConflicts = c.Query("has_conflicts") == "true"
	f.Search = c.Query("search")
	f.CategoryOrders = c.Query("orders") == "true"
	f.CategoryArticles = c.Query("articles") == "true"
	f.CategoryOperations = c.Query("operations") == "true"
	return f, nil
}

func (s *Server) createTodo(c *gin.Context) {
	var req todoWriteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	todo := &domain.Todo{}
	if err := req.apply(todo); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.todos.Create(c.Request.Context(), todo); err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, toTodoDTO(todo))
}

func (s *Server) getTodo(c *gin.Context) {
	todo, err := s.todos.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, toTodoDTO(todo))
}

// updateTodo loads the stored row, overlays the request, and carries
// the request's version into the CAS update. A stale board gets a 409.
func (s *Server) updateTodo(c *gin.Context) {
	var req todoWriteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	todo, err := s.todos.GetByID(ctx, c.Param("id"))
	if err != nil {
		errorResp(c, err)
		return
	}
	if err := req.apply(todo); err != nil {
		badRequest(c, err)
		return
	}
	todo.Version = req.Version
	if err := s.todos.Update(ctx, todo); err != nil {
		errorResp(c, err)
		return
	}
	updated, err := s.todos.GetByID(ctx, todo.ID)
	if err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, toTodoDTO(updated))
}

func (s *Server) deleteTodo(c *gin.Context) {
	if err := s.todos.Delete(c.Request.Context(), c.Param("id")); err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, nil)
}

type splitReq struct {
	Segments []struct {
		StartAt    time.Time `json:"start_at"`
		EndAt      time.Time `json:"end_at"`
		MachineID  *string   `json:"machine_id"`
		EmployeeID *string   `json:"employee_id"`
	} `json:"segments"`
}

func (s *Server) splitTodo(c *gin.Context) {
	var req splitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	specs := make([]service.SegmentSpec, len(req.Segments))
	for i, seg := range req.Segments {
		specs[i] = service.SegmentSpec{
			StartAt:    seg.StartAt,
			EndAt:      seg.EndAt,
			MachineID:  seg.MachineID,
			EmployeeID: seg.EmployeeID,
		}
	}
	segments, err := s.todos.Split(c.Request.Context(), c.Param("id"), specs)
	if err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, segments)
}

func (s *Server) listSegments(c *gin.Context) {
	segments, err := s.todos.Segments(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, segments)
}

type generateReq struct {
	ErpOrderID        int64 `json:"erp_order_id"`
	IncludeBomItems   bool  `json:"include_bom_items"`
	IncludeOperations bool  `json:"include_operations"`
}

func (s *Server) generateFromOrder(c *gin.Context) {
	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := s.todos.GenerateFromOrder(c.Request.Context(), service.GenerateRequest{
		ErpOrderID:        req.ErpOrderID,
		IncludeBomItems:   req.IncludeBomItems,
		IncludeOperations: req.IncludeOperations,
	})
	if err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, result)
}

func (s *Server) listDependencies(c *gin.Context) {
	deps, err := s.deps.List(c.Request.Context())
	if err != nil {
		errorResp(c, err)
		return
	}
	out := make([]dependencyDTO, len(deps))
	for i, d := range deps {
		out[i] = toDependencyDTO(d)
	}
	successResp(c, out)
}

func (s *Server) createDependency(c *gin.Context) {
	var req dependencyDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	dep := &domain.TodoDependency{
		PredecessorID: req.PredecessorID,
		SuccessorID:   req.SuccessorID,
		Type:          domain.DependencyType(req.Type),
		LagMinutes:    req.LagMinutes,
	}
	if err := s.deps.Create(c.Request.Context(), dep); err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, toDependencyDTO(dep))
}

func (s *Server) deleteDependency(c *gin.Context) {
	if err := s.deps.Delete(c.Request.Context(), c.Param("id")); err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, nil)
}

func (s *Server) listConflicts(c *gin.Context) {
	unresolvedOnly := c.DefaultQuery("unresolved", "true") == "true"
	conflicts, err := s.conflicts.List(c.Request.Context(), unresolvedOnly)
	if err != nil {
		errorResp(c, err)
		return
	}
	out := make([]conflictDTO, len(conflicts))
	for i, conflict := range conflicts {
		out[i] = toConflictDTO(conflict)
	}
	successResp(c, out)
}

func (s *Server) checkConflicts(c *gin.Context) {
	ctx := c.Request.Context()
	if todoID := c.Query("todo_id"); todoID != "" {
		found, err := s.conflicts.CheckTodo(ctx, todoID)
		if err != nil {
			errorResp(c, err)
			return
		}
		successResp(c, gin.H{"found": found})
		return
	}
	counts, err := s.conflicts.CheckAll(ctx)
	if err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, gin.H{
		"resource_overlaps":     counts.ResourceOverlaps,
		"dependency_violations": counts.DependencyViolations,
		"delivery_overruns":     counts.DeliveryOverruns,
		"total":                 counts.Total(),
	})
}

type resolveReq struct {
	Resolved bool `json:"resolved"`
}

func (s *Server) resolveConflict(c *gin.Context) {
	req := resolveReq{Resolved: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if err := s.conflicts.Resolve(c.Request.Context(), c.Param("id"), req.Resolved); err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, nil)
}

func (s *Server) ganttData(c *gin.Context) {
	data, err := s.gantt.Data(c.Request.Context())
	if err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, data)
}

func (s *Server) ganttBatch(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := s.gantt.ApplyBatch(c.Request.Context(), req)
	if err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, result)
}

func (s *Server) syncResources(c *gin.Context) {
	result := s.sync.SyncAll(c.Request.Context())
	byType := make(map[string]gin.H, len(result.ByType))
	for typ, r := range result.ByType {
		entry := gin.H{
			"added":       r.Added,
			"updated":     r.Updated,
			"deactivated": r.Deactivated,
		}
		if r.Err != nil {
			entry["error"] = r.Err.Error()
		}
		byType[string(typ)] = entry
	}
	successResp(c, gin.H{"success": result.Success, "by_type": byType})
}

type importReq struct {
	FileName string  `json:"file_name"`
	ParentID *string `json:"parent_id"`
	Items    []struct {
		ArticleNumber string  `json:"article_number"`
		Description   string  `json:"description"`
		Quantity      float64 `json:"quantity"`
	} `json:"items"`
}

func (s *Server) startImport(c *gin.Context) {
	var req importReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	items := make([]erp.AssemblyItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = erp.AssemblyItem{
			ArticleNumber: item.ArticleNumber,
			Description:   item.Description,
			Quantity:      item.Quantity,
		}
	}
	jobID, err := s.importer.Start(c.Request.Context(), importer.Request{
		FileName: req.FileName,
		ParentID: req.ParentID,
		Items:    items,
	})
	if err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, gin.H{"job_id": jobID})
}

func (s *Server) importStatus(c *gin.Context) {
	job, err := s.importer.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResp(c, err)
		return
	}
	successResp(c, toImportJobDTO(job))
}
