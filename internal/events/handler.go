package events

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vmeste-app/backend/internal/middleware"
	"github.com/vmeste-app/backend/pkg/response"
	"github.com/vmeste-app/backend/pkg/storage"
)

// parseDate accepts a calendar date (2006-01-02) or a full RFC3339 instant.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// EventRequest is the body for POST /events and PUT /events/:id.
type EventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Place       string `json:"place"`
	ImageURL    string `json:"image_url"`
}

// UploadURLRequest is the body for POST /events/:id/image/upload-url.
type UploadURLRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	service *Service
	cache   *Cache
	s3      *storage.S3
	logger  *zap.Logger
}

// NewHandler creates an event handler. s3 may be nil when image storage is
// not configured.
func NewHandler(service *Service, cache *Cache, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{service: service, cache: cache, s3: s3, logger: logger}
}

// Create handles POST /events?organizerId=. Without the query parameter the
// authenticated user becomes the organizer.
func (h *Handler) Create(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	organizerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if q := c.Query("organizerId"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			response.BadRequest(c, "invalid organizerId")
			return
		}
		organizerID = id
	}

	params := CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Place:       req.Place,
		ImageURL:    req.ImageURL,
		OrganizerID: organizerID,
	}
	if req.Date != "" {
		t, err := parseDate(req.Date)
		if err != nil {
			response.BadRequest(c, "invalid date")
			return
		}
		params.Date = &t
	}

	event, err := h.service.Create(c.Request.Context(), params)
	if err != nil {
		response.FromError(c, err, "failed to create event")
		return
	}
	response.Created(c, event)
}

// GetByID handles GET /events/:id, served through the read cache.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if cached := h.cache.Get(c.Request.Context(), id.String()); cached != nil {
		response.OK(c, cached)
		return
	}
	event, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to load event")
		return
	}
	h.cache.Set(c.Request.Context(), event)
	response.OK(c, event)
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	list, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

func (h *Handler) listByUserParam(c *gin.Context, param string, list func(*gin.Context, uuid.UUID)) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	list(c, id)
}

// ListForUser handles GET /events/user/:userId (organizer-of or
// participant-in, no duplicates).
func (h *Handler) ListForUser(c *gin.Context) {
	h.listByUserParam(c, "userId", func(c *gin.Context, id uuid.UUID) {
		list, err := h.service.ListForUser(c.Request.Context(), id)
		if err != nil {
			response.FromError(c, err, "failed to list events")
			return
		}
		response.OK(c, list)
	})
}

// ListByOrganizer handles GET /events/organizer/:organizerId.
func (h *Handler) ListByOrganizer(c *gin.Context) {
	h.listByUserParam(c, "organizerId", func(c *gin.Context, id uuid.UUID) {
		list, err := h.service.ListByOrganizer(c.Request.Context(), id)
		if err != nil {
			response.FromError(c, err, "failed to list events")
			return
		}
		response.OK(c, list)
	})
}

// ListByParticipant handles GET /events/participant/:participantId.
func (h *Handler) ListByParticipant(c *gin.Context) {
	h.listByUserParam(c, "participantId", func(c *gin.Context, id uuid.UUID) {
		list, err := h.service.ListByParticipant(c.Request.Context(), id)
		if err != nil {
			response.FromError(c, err, "failed to list events")
			return
		}
		response.OK(c, list)
	})
}

// Update handles PUT /events/:id. Only title, description, date, place and
// image_url are replaced.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	params := UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Place:       req.Place,
		ImageURL:    req.ImageURL,
	}
	if req.Date != "" {
		t, err := parseDate(req.Date)
		if err != nil {
			response.BadRequest(c, "invalid date")
			return
		}
		params.Date = &t
	}
	event, err := h.service.Update(c.Request.Context(), id, params)
	if err != nil {
		response.FromError(c, err, "failed to update event")
		return
	}
	h.cache.Invalidate(c.Request.Context(), id.String())
	response.OK(c, event)
}

// Delete handles DELETE /events/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err, "failed to delete event")
		return
	}
	h.cache.Invalidate(c.Request.Context(), id.String())
	response.NoContent(c)
}

func (h *Handler) participantOp(c *gin.Context, op func(*gin.Context, uuid.UUID, uuid.UUID)) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	op(c, eventID, userID)
}

// AddParticipant handles POST /events/:id/participants/:userId.
func (h *Handler) AddParticipant(c *gin.Context) {
	h.participantOp(c, func(c *gin.Context, eventID, userID uuid.UUID) {
		event, err := h.service.AddParticipant(c.Request.Context(), eventID, userID)
		if err != nil {
			response.FromError(c, err, "failed to add participant")
			return
		}
		h.cache.Invalidate(c.Request.Context(), eventID.String())
		response.OK(c, event)
	})
}

// RemoveParticipant handles DELETE /events/:id/participants/:userId.
func (h *Handler) RemoveParticipant(c *gin.Context) {
	h.participantOp(c, func(c *gin.Context, eventID, userID uuid.UUID) {
		event, err := h.service.RemoveParticipant(c.Request.Context(), eventID, userID)
		if err != nil {
			response.FromError(c, err, "failed to remove participant")
			return
		}
		h.cache.Invalidate(c.Request.Context(), eventID.String())
		response.OK(c, event)
	})
}

// UploadImage handles POST /events/:id/image (multipart "file"). The image
// lands in S3 and the event's image_url is updated.
func (h *Handler) UploadImage(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, err := h.service.Get(c.Request.Context(), id); err != nil {
		response.FromError(c, err, "failed to load event")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file")
		return
	}
	if file.Size > storage.MaxImageFileSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := file.Header.Get("Content-Type")
	ext, ok := storage.AllowedImageTypes[contentType]
	if !ok {
		response.BadRequest(c, "unsupported image type "+contentType)
		return
	}

	rc, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	key := fmt.Sprintf("events/%s/%s%s", id, uuid.New(), ext)
	url, err := h.s3.UploadImage(c.Request.Context(), key, contentType, rc, file.Size)
	if err != nil {
		h.logger.Error("event image upload", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to upload image")
		return
	}

	event, err := h.service.SetImageURL(c.Request.Context(), id, url)
	if err != nil {
		response.FromError(c, err, "failed to update event image")
		return
	}
	h.cache.Invalidate(c.Request.Context(), id.String())
	response.OK(c, event)
}

// GenerateImageUploadURL handles POST /events/:id/image/upload-url: returns
// a pre-signed PUT URL so the client uploads directly to S3, then saves the
// resulting public URL via PUT /events/:id.
func (h *Handler) GenerateImageUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, err := h.service.Get(c.Request.Context(), id); err != nil {
		response.FromError(c, err, "failed to load event")
		return
	}

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ext, ok := storage.AllowedImageTypes[req.ContentType]
	if !ok {
		response.BadRequest(c, "unsupported image type "+req.ContentType)
		return
	}

	key := fmt.Sprintf("events/%s/%s%s", id, uuid.New(), ext)
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, req.ContentType, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign image upload", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to generate upload url")
		return
	}
	response.OK(c, gin.H{
		"upload_url": url,
		"key":        key,
		"public_url": h.s3.PublicObjectURL(key),
		"expires_in": int(h.s3.PresignExpire().Seconds()),
	})
}
