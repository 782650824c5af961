package delivery

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gatherle/notification-service/internal/notification"
	"github.com/gatherle/notification-service/pkg/response"
)

// Handler handles HTTP requests for delivery log operations
type Handler struct {
	service *Service
}

// NewHandler creates a new delivery handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for /deliveries
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListByStatus)
	r.Get("/stats", h.Stats)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/resubmit", h.Resubmit)

	return r
}

// LogResponse represents a delivery log
type LogResponse struct {
	ID             int64   `json:"id"`
	NotificationID int64   `json:"notificationId"`
	Channel        string  `json:"channel"`
	Status         Status  `json:"status"`
	AttemptCount   int     `json:"attemptCount"`
	ErrorMessage   *string `json:"errorMessage,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	LastAttemptAt  *string `json:"lastAttemptAt,omitempty"`
	DeliveredAt    *string `json:"deliveredAt,omitempty"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

// NewLogResponse converts a delivery log to its API form
func NewLogResponse(l *Log) *LogResponse {
	return &LogResponse{
		ID:             l.ID,
		NotificationID: l.NotificationID,
		Channel:        string(l.Channel),
		Status:         l.Status,
		AttemptCount:   l.AttemptCount,
		ErrorMessage:   l.ErrorMessage,
		CreatedAt:      l.CreatedAt.UTC().Format(time.RFC3339Nano),
		LastAttemptAt:  formatTime(l.LastAttemptAt),
		DeliveredAt:    formatTime(l.DeliveredAt),
	}
}

// NewLogResponses converts delivery logs to their API form
func NewLogResponses(logs []*Log) []*LogResponse {
	out := make([]*LogResponse, len(logs))
	for i, l := range logs {
		out[i] = NewLogResponse(l)
	}
	return out
}

// ListByNotification godoc
// @Summary List the delivery logs of a notification
// @Tags deliveries
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} response.APIResponse{data=[]LogResponse}
// @Failure 404 {object} response.APIResponse
// @Router /notifications/{id}/deliveries [get]
func (h *Handler) ListByNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	logs, err := h.service.ListByNotification(r.Context(), id)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list delivery logs")
		return
	}

	response.JSON(w, http.StatusOK, NewLogResponses(logs))
}

// ListByStatus godoc
// @Summary List delivery logs by status
// @Tags deliveries
// @Produce json
// @Param status query string false "PENDING, SENT, DELIVERED or FAILED" default(FAILED)
// @Param limit query int false "Maximum number of logs" default(50)
// @Success 200 {object} response.APIResponse{data=[]LogResponse}
// @Failure 400 {object} response.APIResponse
// @Router /deliveries [get]
func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := StatusFailed
	if v := r.URL.Query().Get("status"); v != "" {
		status = Status(strings.ToUpper(v))
	}

	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, ErrInvalidLimit.Error())
			return
		}
		limit = n
	}

	logs, err := h.service.ListByStatus(r.Context(), status, limit)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) || errors.Is(err, ErrInvalidLimit) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list delivery logs")
		return
	}

	response.JSON(w, http.StatusOK, NewLogResponses(logs))
}

// Stats godoc
// @Summary Count delivery logs per status
// @Tags deliveries
// @Produce json
// @Success 200 {object} response.APIResponse{data=map[string]int}
// @Router /deliveries/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Stats(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to count delivery logs")
		return
	}

	response.JSON(w, http.StatusOK, counts)
}

// Get godoc
// @Summary Get a delivery log
// @Tags deliveries
// @Produce json
// @Param id path int true "Delivery log ID"
// @Success 200 {object} response.APIResponse{data=LogResponse}
// @Failure 404 {object} response.APIResponse
// @Router /deliveries/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid delivery log ID")
		return
	}

	l, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrDeliveryLogNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get delivery log")
		return
	}

	response.JSON(w, http.StatusOK, NewLogResponse(l))
}

// Resubmit godoc
// @Summary Resubmit a delivery
// @Description Publishes a new email request for the notification of the given delivery log.
// @Tags deliveries
// @Produce json
// @Param id path int true "Delivery log ID"
// @Success 202 {object} response.APIResponse{data=Request}
// @Failure 404 {object} response.APIResponse
// @Router /deliveries/{id}/resubmit [post]
func (h *Handler) Resubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid delivery log ID")
		return
	}

	req, err := h.service.Resubmit(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrDeliveryLogNotFound) || errors.Is(err, notification.ErrNotificationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to resubmit delivery")
		return
	}

	response.JSON(w, http.StatusAccepted, req)
}
