package purchases

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vmeste-app/backend/internal/auth"
	"github.com/vmeste-app/backend/internal/events"
	"github.com/vmeste-app/backend/internal/models"
	"github.com/vmeste-app/backend/pkg/response"
)

// CreateRequest is the body for POST /events/:id/purchases.
type CreateRequest struct {
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	AmountCents    int64    `json:"amount_cents" binding:"min=0"`
	BuyerID        string   `json:"buyer_id" binding:"required,uuid"`
	ParticipantIDs []string `json:"participant_ids" binding:"dive,uuid"`
}

// UpdateRequest is the body for PUT /purchases/:id.
type UpdateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents" binding:"min=0"`
}

// Handler handles purchase HTTP endpoints.
type Handler struct {
	repo   *Repository
	events *events.Repository
	users  *auth.Repository
}

// NewHandler creates a purchase handler.
func NewHandler(repo *Repository, events *events.Repository, users *auth.Repository) *Handler {
	return &Handler{repo: repo, events: events, users: users}
}

// resolveUsers fails with the identity store's NotFound if any id is
// unknown, so a purchase never references a missing user.
func (h *Handler) resolveUsers(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if _, err := h.users.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Create handles POST /events/:id/purchases.
func (h *Handler) Create(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.events.GetByID(c.Request.Context(), eventID); err != nil {
		response.FromError(c, err, "failed to load event")
		return
	}
	buyerID, err := uuid.Parse(req.BuyerID)
	if err != nil {
		response.BadRequest(c, "invalid buyer_id")
		return
	}
	participantIDs := make([]uuid.UUID, 0, len(req.ParticipantIDs))
	for _, s := range req.ParticipantIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid participant id "+s)
			return
		}
		participantIDs = append(participantIDs, id)
	}
	if err := h.resolveUsers(c.Request.Context(), append([]uuid.UUID{buyerID}, participantIDs...)); err != nil {
		response.FromError(c, err, "failed to resolve users")
		return
	}

	p := &models.Purchase{
		EventID:     eventID,
		Name:        req.Name,
		Description: req.Description,
		AmountCents: req.AmountCents,
		BuyerID:     buyerID,
	}
	if err := h.repo.Create(c.Request.Context(), p, participantIDs); err != nil {
		response.FromError(c, err, "failed to create purchase")
		return
	}
	created, err := h.repo.GetByID(c.Request.Context(), p.ID)
	if err != nil {
		response.FromError(c, err, "failed to load purchase")
		return
	}
	response.Created(c, created)
}

// ListByEvent handles GET /events/:id/purchases.
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
		response.Internal(c, "failed to list purchases")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /purchases/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid purchase id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to load purchase")
		return
	}
	response.OK(c, p)
}

// Update handles PUT /purchases/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid purchase id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.Update(c.Request.Context(), id, req.Name, req.Description, req.AmountCents); err != nil {
		response.FromError(c, err, "failed to update purchase")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to load purchase")
		return
	}
	response.OK(c, p)
}

// Delete handles DELETE /purchases/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid purchase id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err, "failed to delete purchase")
		return
	}
	response.NoContent(c)
}

func (h *Handler) participantOp(c *gin.Context, op func(ctx context.Context, purchaseID, userID uuid.UUID) error) {
	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid purchase id")
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), purchaseID); err != nil {
		response.FromError(c, err, "failed to load purchase")
		return
	}
	if _, err := h.users.GetByID(c.Request.Context(), userID); err != nil {
		response.FromError(c, err, "failed to resolve user")
		return
	}
	if err := op(c.Request.Context(), purchaseID, userID); err != nil {
		response.FromError(c, err, "failed to update purchase participants")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), purchaseID)
	if err != nil {
		response.FromError(c, err, "failed to load purchase")
		return
	}
	response.OK(c, p)
}

// AddParticipant handles POST /purchases/:id/participants/:userId.
func (h *Handler) AddParticipant(c *gin.Context) {
	h.participantOp(c, h.repo.AddParticipant)
}

// RemoveParticipant handles DELETE /purchases/:id/participants/:userId.
func (h *Handler) RemoveParticipant(c *gin.Context) {
	h.participantOp(c, h.repo.RemoveParticipant)
}
