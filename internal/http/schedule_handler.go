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

type scheduleService interface {
	CreateSchedule(ctx context.Context, userID string, input application.CreateScheduleInput) (persistence.Schedule, error)
	GetSchedule(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error)
	ListSchedules(ctx context.Context, userID string) ([]persistence.Schedule, error)
	UpdateSchedule(ctx context.Context, userID, scheduleID string, input application.UpdateScheduleInput) (persistence.Schedule, error)
	DuplicateSchedule(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error)
	SetDefaultSchedule(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error)
	DeleteSchedule(ctx context.Context, userID, scheduleID string) error
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
	logger    *slog.Logger
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, attrs...)
}

type scheduleRequest struct {
	Name      string                  `json:"name"`
	Timezone  string                  `json:"timezone"`
	IsDefault bool                    `json:"is_default"`
	Slots     []application.SlotInput `json:"slots"`
}

type scheduleDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	IsDefault bool      `json:"is_default"`
	Slots     []slotDTO `json:"slots"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type slotDTO struct {
	ID        string `json:"id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func toScheduleDTO(schedule persistence.Schedule) scheduleDTO {
	dto := scheduleDTO{
		ID:        schedule.ID,
		UserID:    schedule.UserID,
		Name:      schedule.Name,
		Timezone:  schedule.Timezone,
		IsDefault: schedule.IsDefault,
		Slots:     make([]slotDTO, len(schedule.Slots)),
		CreatedAt: schedule.CreatedAt,
		UpdatedAt: schedule.UpdatedAt,
	}
	for i, slot := range schedule.Slots {
		dto.Slots[i] = slotDTO{
			ID:        slot.ID,
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		}
	}
	return dto
}

func toScheduleDTOs(schedules []persistence.Schedule) []scheduleDTO {
	out := make([]scheduleDTO, len(schedules))
	for i, schedule := range schedules {
		out[i] = toScheduleDTO(schedule)
	}
	return out
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "user_id", user.ID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode schedule request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "user_id", user.ID)

	schedule, err := h.service.CreateSchedule(r.Context(), user.ID, application.CreateScheduleInput{
		Name:      req.Name,
		Timezone:  req.Timezone,
		IsDefault: req.IsDefault,
		Slots:     req.Slots,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("schedule_id", schedule.ID).InfoContext(r.Context(), "schedule created")
	h.responder.writeData(r.Context(), w, http.StatusCreated, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())
	logger := h.log(r.Context(), "List", "user_id", user.ID)

	schedules, err := h.service.ListSchedules(r.Context(), user.ID)
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, toScheduleDTOs(schedules))
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withSchedule(w, r, "Get", func(ctx context.Context, user persistence.User, scheduleID string) (any, int, error) {
		schedule, err := h.service.GetSchedule(ctx, user.ID, scheduleID)
		if err != nil {
			return nil, 0, err
		}
		return toScheduleDTO(schedule), http.StatusOK, nil
	})
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "user_id", user.ID, "schedule_id", scheduleID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode schedule update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "user_id", user.ID, "schedule_id", scheduleID)

	schedule, err := h.service.UpdateSchedule(r.Context(), user.ID, scheduleID, application.UpdateScheduleInput{
		Name:      req.Name,
		Timezone:  req.Timezone,
		IsDefault: req.IsDefault,
		Slots:     req.Slots,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "schedule updated")
	h.responder.writeData(r.Context(), w, http.StatusOK, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	h.withSchedule(w, r, "Duplicate", func(ctx context.Context, user persistence.User, scheduleID string) (any, int, error) {
		schedule, err := h.service.DuplicateSchedule(ctx, user.ID, scheduleID)
		if err != nil {
			return nil, 0, err
		}
		return toScheduleDTO(schedule), http.StatusCreated, nil
	})
}

func (h *ScheduleHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	h.withSchedule(w, r, "SetDefault", func(ctx context.Context, user persistence.User, scheduleID string) (any, int, error) {
		schedule, err := h.service.SetDefaultSchedule(ctx, user.ID, scheduleID)
		if err != nil {
			return nil, 0, err
		}
		return toScheduleDTO(schedule), http.StatusOK, nil
	})
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.withSchedule(w, r, "Delete", func(ctx context.Context, user persistence.User, scheduleID string) (any, int, error) {
		if err := h.service.DeleteSchedule(ctx, user.ID, scheduleID); err != nil {
			return nil, 0, err
		}
		return nil, http.StatusNoContent, nil
	})
}

// withSchedule factors the id extraction and error mapping shared by the
// body-less schedule operations.
func (h *ScheduleHandler) withSchedule(w http.ResponseWriter, r *http.Request, operation string, fn func(ctx context.Context, user persistence.User, scheduleID string) (any, int, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())
	logger := h.log(r.Context(), operation, "user_id", user.ID, "schedule_id", scheduleID)

	payload, status, err := fn(r.Context(), user, scheduleID)
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule operation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "schedule operation completed")
	h.responder.writeData(r.Context(), w, status, payload)
}
