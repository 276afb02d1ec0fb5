package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/meetsync/internal/application"
	"github.com/example/meetsync/internal/persistence"
)

type eventTypeService interface {
	CreateEventType(ctx context.Context, userID string, input application.CreateEventTypeInput) (persistence.EventType, error)
	GetEventType(ctx context.Context, userID, eventTypeID string) (persistence.EventType, error)
	ListEventTypes(ctx context.Context, userID string) ([]persistence.EventType, error)
	UpdateEventType(ctx context.Context, userID, eventTypeID string, input application.UpdateEventTypeInput) (persistence.EventType, error)
	DeleteEventType(ctx context.Context, userID, eventTypeID string) error
}

type EventTypeHandler struct {
	service   eventTypeService
	responder responder
	logger    *slog.Logger
}

func NewEventTypeHandler(service eventTypeService, logger *slog.Logger) *EventTypeHandler {
	base := defaultLogger(logger)
	return &EventTypeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EventTypeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EventTypeHandler", operation, attrs...)
}

type eventTypeRequest struct {
	Title             string  `json:"title"`
	Slug              string  `json:"slug"`
	Description       string  `json:"description"`
	DurationMinutes   int     `json:"duration_minutes"`
	BufferMinutes     int     `json:"buffer_minutes"`
	MaxBookingsPerDay *int    `json:"max_bookings_per_day"`
	LocationKind      string  `json:"location_kind"`
	LocationValue     string  `json:"location_value"`
	IsActive          *bool   `json:"is_active"`
	ScheduleID        *string `json:"schedule_id"`
}

type eventTypeDTO struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Title             string    `json:"title"`
	Slug              string    `json:"slug"`
	Description       string    `json:"description,omitempty"`
	DurationMinutes   int       `json:"duration_minutes"`
	BufferMinutes     int       `json:"buffer_minutes"`
	MaxBookingsPerDay *int      `json:"max_bookings_per_day,omitempty"`
	LocationKind      string    `json:"location_kind"`
	LocationValue     string    `json:"location_value,omitempty"`
	IsActive          bool      `json:"is_active"`
	ScheduleID        *string   `json:"schedule_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toEventTypeDTO(eventType persistence.EventType) eventTypeDTO {
	return eventTypeDTO{
		ID:                eventType.ID,
		UserID:            eventType.UserID,
		Title:             eventType.Title,
		Slug:              eventType.Slug,
		Description:       eventType.Description,
		DurationMinutes:   eventType.DurationMinutes,
		BufferMinutes:     eventType.BufferMinutes,
		MaxBookingsPerDay: eventType.MaxBookingsPerDay,
		LocationKind:      eventType.LocationKind,
		LocationValue:     eventType.LocationValue,
		IsActive:          eventType.IsActive,
		ScheduleID:        eventType.ScheduleID,
		CreatedAt:         eventType.CreatedAt,
		UpdatedAt:         eventType.UpdatedAt,
	}
}

func (h *EventTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())

	var req eventTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "user_id", user.ID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event type request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "user_id", user.ID, "slug", req.Slug)

	eventType, err := h.service.CreateEventType(r.Context(), user.ID, application.CreateEventTypeInput{
		Title:             req.Title,
		Slug:              req.Slug,
		Description:       req.Description,
		DurationMinutes:   req.DurationMinutes,
		BufferMinutes:     req.BufferMinutes,
		MaxBookingsPerDay: req.MaxBookingsPerDay,
		LocationKind:      req.LocationKind,
		LocationValue:     req.LocationValue,
		ScheduleID:        req.ScheduleID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "event type creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("event_type_id", eventType.ID).InfoContext(r.Context(), "event type created")
	h.responder.writeData(r.Context(), w, http.StatusCreated, toEventTypeDTO(eventType))
}

func (h *EventTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())
	logger := h.log(r.Context(), "List", "user_id", user.ID)

	eventTypes, err := h.service.ListEventTypes(r.Context(), user.ID)
	if err != nil {
		logger.ErrorContext(r.Context(), "event type list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]eventTypeDTO, len(eventTypes))
	for i, eventType := range eventTypes {
		out[i] = toEventTypeDTO(eventType)
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, out)
}

func (h *EventTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventTypeID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventTypeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())

	eventType, err := h.service.GetEventType(r.Context(), user.ID, eventTypeID)
	if err != nil {
		h.log(r.Context(), "Get", "user_id", user.ID, "event_type_id", eventTypeID).ErrorContext(r.Context(), "event type lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, toEventTypeDTO(eventType))
}

func (h *EventTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventTypeID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventTypeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())

	var req eventTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "user_id", user.ID, "event_type_id", eventTypeID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event type update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	// Absent is_active keeps the event type bookable.
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	logger := h.log(r.Context(), "Update", "user_id", user.ID, "event_type_id", eventTypeID)

	eventType, err := h.service.UpdateEventType(r.Context(), user.ID, eventTypeID, application.UpdateEventTypeInput{
		Title:             req.Title,
		Slug:              req.Slug,
		Description:       req.Description,
		DurationMinutes:   req.DurationMinutes,
		BufferMinutes:     req.BufferMinutes,
		MaxBookingsPerDay: req.MaxBookingsPerDay,
		LocationKind:      req.LocationKind,
		LocationValue:     req.LocationValue,
		IsActive:          isActive,
		ScheduleID:        req.ScheduleID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "event type update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event type updated")
	h.responder.writeData(r.Context(), w, http.StatusOK, toEventTypeDTO(eventType))
}

func (h *EventTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventTypeID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventTypeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "user_id", user.ID, "event_type_id", eventTypeID)

	if err := h.service.DeleteEventType(r.Context(), user.ID, eventTypeID); err != nil {
		logger.ErrorContext(r.Context(), "event type delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event type deleted")
	h.responder.writeData(r.Context(), w, http.StatusNoContent, nil)
}
