package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gatherle/notification-service/pkg/middleware"
	"github.com/gatherle/notification-service/pkg/response"
)

// Creator runs a creation request through the ingestion pipeline
type Creator interface {
	CreateNotification(ctx context.Context, req *CreateNotificationRequest, idempotencyKey string) (*Notification, error)
}

// Handler handles HTTP requests for notification operations
type Handler struct {
	service *Service
	creator Creator
}

// NewHandler creates a new notification handler
func NewHandler(service *Service, creator Creator) *Handler {
	return &Handler{service: service, creator: creator}
}

// Routes returns the router for /notifications
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.IdempotencyKey).Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/read", h.MarkAsRead)

	return r
}

// RecipientRoutes returns the router for /recipients/{recipientId}/notifications
func (h *Handler) RecipientRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/unread", h.ListUnread)
	r.Get("/unread/count", h.GetUnreadCount)
	r.Patch("/read-all", h.MarkAllAsRead)

	return r
}

// Create godoc
// @Summary Create a notification
// @Description Runs the payload through the ingestion pipeline. Repeating a request with the same Idempotency-Key returns the original notification.
// @Tags notifications
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client supplied idempotency key"
// @Param request body CreateNotificationRequest true "Notification"
// @Success 201 {object} response.APIResponse{data=CreateNotificationResponse}
// @Failure 400 {object} response.APIResponse
// @Router /notifications [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	key, _ := middleware.GetIdempotencyKey(r.Context())
	notification, err := h.creator.CreateNotification(r.Context(), &req, key)
	if err != nil {
		if errors.Is(err, ErrInvalidNotification) {
			response.BadRequest(w, err.Error())
			return
		}
		log.Printf("failed to create notification err=%v", err)
		response.InternalError(w, "Failed to create notification")
		return
	}

	response.JSON(w, http.StatusCreated, CreateNotificationResponse{ID: notification.ID})
}

// Get godoc
// @Summary Get a notification
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} response.APIResponse{data=NotificationResponse}
// @Failure 404 {object} response.APIResponse
// @Router /notifications/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	notification, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get notification")
		return
	}

	response.JSON(w, http.StatusOK, toResponse(notification))
}

// MarkAsRead godoc
// @Summary Mark a notification as read
// @Description Idempotent. The read time is set on the first transition only.
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} response.APIResponse{data=NotificationResponse}
// @Failure 404 {object} response.APIResponse
// @Router /notifications/{id}/read [patch]
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	notification, err := h.service.MarkAsRead(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to mark notification as read")
		return
	}

	response.JSON(w, http.StatusOK, toResponse(notification))
}

// List godoc
// @Summary List a recipient's notifications
// @Tags notifications
// @Produce json
// @Param recipientId path string true "Recipient ID"
// @Param page query int false "0-based page" default(0)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} response.APIResponse{data=[]NotificationResponse}
// @Failure 400 {object} response.APIResponse
// @Router /recipients/{recipientId}/notifications [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListNotifications)
}

// ListUnread godoc
// @Summary List a recipient's unread notifications
// @Tags notifications
// @Produce json
// @Param recipientId path string true "Recipient ID"
// @Param page query int false "0-based page" default(0)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} response.APIResponse{data=[]NotificationResponse}
// @Failure 400 {object} response.APIResponse
// @Router /recipients/{recipientId}/notifications/unread [get]
func (h *Handler) ListUnread(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListUnread)
}

type pageFunc func(ctx context.Context, recipientID string, page, size int) (*Page, error)

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fetch pageFunc) {
	page, size, ok := parsePaging(r)
	if !ok {
		response.BadRequest(w, ErrInvalidPage.Error())
		return
	}

	result, err := fetch(r.Context(), chi.URLParam(r, "recipientId"), page, size)
	if err != nil {
		if errors.Is(err, ErrInvalidPage) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list notifications")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, toResponses(result.Items), &response.Meta{
		Page:       result.Page,
		Size:       result.Size,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}

// parsePaging reads page and size, applying defaults when absent
func parsePaging(r *http.Request) (page, size int, ok bool) {
	page, size = 0, DefaultPageSize

	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		size = n
	}
	return page, size, true
}

// GetUnreadCount godoc
// @Summary Count a recipient's unread notifications
// @Tags notifications
// @Produce json
// @Param recipientId path string true "Recipient ID"
// @Success 200 {object} response.APIResponse{data=UnreadCountResponse}
// @Router /recipients/{recipientId}/notifications/unread/count [get]
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.UnreadCount(r.Context(), chi.URLParam(r, "recipientId"))
	if err != nil {
		response.InternalError(w, "Failed to get unread count")
		return
	}

	response.JSON(w, http.StatusOK, UnreadCountResponse{Count: count})
}

// MarkAllAsRead godoc
// @Summary Mark all of a recipient's notifications as read
// @Tags notifications
// @Produce json
// @Param recipientId path string true "Recipient ID"
// @Success 200 {object} response.APIResponse{data=MarkAllAsReadResponse}
// @Router /recipients/{recipientId}/notifications/read-all [patch]
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.MarkAllAsRead(r.Context(), chi.URLParam(r, "recipientId"))
	if err != nil {
		response.InternalError(w, "Failed to mark all notifications as read")
		return
	}

	response.JSON(w, http.StatusOK, MarkAllAsReadResponse{Updated: updated})
}
