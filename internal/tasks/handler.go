package tasks

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vmeste-app/backend/internal/auth"
	"github.com/vmeste-app/backend/internal/events"
	"github.com/vmeste-app/backend/internal/models"
	"github.com/vmeste-app/backend/pkg/response"
)

// TaskRequest is the body for POST /events/:id/tasks and PUT /tasks/:id.
type TaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	AssigneeID  *string `json:"assignee_id" binding:"omitempty,uuid"`
	DueDate     string  `json:"due_date"`
}

// StatusRequest is the body for PATCH /tasks/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles task HTTP endpoints.
type Handler struct {
	repo   *Repository
	events *events.Repository
	users  *auth.Repository
}

// NewHandler creates a task handler.
func NewHandler(repo *Repository, events *events.Repository, users *auth.Repository) *Handler {
	return &Handler{repo: repo, events: events, users: users}
}

func parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) parseRequest(c *gin.Context) (title, description string, status models.TaskStatus, assigneeID *uuid.UUID, dueDate *time.Time, ok bool) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status = models.TaskStatusPending
	if req.Status != "" {
		parsed, err := models.ParseTaskStatus(req.Status)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		status = parsed
	}
	if req.AssigneeID != nil {
		id, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			response.BadRequest(c, "invalid assignee_id")
			return
		}
		if _, err := h.users.GetByID(c.Request.Context(), id); err != nil {
			response.FromError(c, err, "failed to resolve assignee")
			return
		}
		assigneeID = &id
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		response.BadRequest(c, "invalid due_date")
		return
	}
	return req.Title, req.Description, status, assigneeID, due, true
}

// Create handles POST /events/:id/tasks.
func (h *Handler) Create(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, err := h.events.GetByID(c.Request.Context(), eventID); err != nil {
		response.FromError(c, err, "failed to load event")
		return
	}
	title, description, status, assigneeID, dueDate, ok := h.parseRequest(c)
	if !ok {
		return
	}

	t := &models.Task{
		EventID:     eventID,
		Title:       title,
		Description: description,
		Status:      status,
		AssigneeID:  assigneeID,
		DueDate:     dueDate,
	}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		response.FromError(c, err, "failed to create task")
		return
	}
	created, err := h.repo.GetByID(c.Request.Context(), t.ID)
	if err != nil {
		response.FromError(c, err, "failed to load task")
		return
	}
	response.Created(c, created)
}

// ListByEvent handles GET /events/:id/tasks.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, err := h.events.GetByID(c.Request.Context(), eventID); err != nil {
		response.FromError(c, err, "failed to load event")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list tasks")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /tasks/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to load task")
		return
	}
	response.OK(c, t)
}

// Update handles PUT /tasks/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}
	title, description, status, assigneeID, dueDate, ok := h.parseRequest(c)
	if !ok {
		return
	}
	if err := h.repo.Update(c.Request.Context(), id, title, description, status, assigneeID, dueDate); err != nil {
		response.FromError(c, err, "failed to update task")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to load task")
		return
	}
	response.OK(c, t)
}

// UpdateStatus handles PATCH /tasks/:id/status. Any valid status is
// accepted regardless of the current one.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status, err := models.ParseTaskStatus(req.Status)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.repo.UpdateStatus(c.Request.Context(), id, status); err != nil {
		response.FromError(c, err, "failed to update task status")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to load task")
		return
	}
	response.OK(c, t)
}

// Assign handles POST /tasks/:id/assign/:userId.
func (h *Handler) Assign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if _, err := h.users.GetByID(c.Request.Context(), userID); err != nil {
		response.FromError(c, err, "failed to resolve user")
		return
	}
	if err := h.repo.Assign(c.Request.Context(), id, userID); err != nil {
		response.FromError(c, err, "failed to assign task")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to load task")
		return
	}
	response.OK(c, t)
}

// Delete handles DELETE /tasks/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err, "failed to delete task")
		return
	}
	response.NoContent(c)
}
