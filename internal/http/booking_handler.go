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

type bookingService interface {
	GetBooking(ctx context.Context, userID, bookingID string) (persistence.Booking, error)
	ListBookings(ctx context.Context, userID string, filter persistence.BookingFilter) ([]persistence.Booking, error)
	UpcomingBookings(ctx context.Context, userID string) ([]persistence.Booking, error)
	PastBookings(ctx context.Context, userID string) ([]persistence.Booking, error)
	CancelBooking(ctx context.Context, input application.CancelBookingInput) (persistence.Booking, error)
	RescheduleBooking(ctx context.Context, input application.RescheduleBookingInput) (persistence.Booking, error)
	UpdateBookingLocation(ctx context.Context, userID, bookingID, kind, value string) (persistence.Booking, error)
	AddGuests(ctx context.Context, userID, bookingID string, emails []string) (persistence.Booking, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

type bookingDTO struct {
	ID            string    `json:"id"`
	EventTypeID   string    `json:"event_type_id"`
	UserID        string    `json:"user_id"`
	BookerName    string    `json:"booker_name"`
	BookerEmail   string    `json:"booker_email"`
	BookerPhone   string    `json:"booker_phone,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Timezone      string    `json:"timezone"`
	LocationKind  string    `json:"location_kind,omitempty"`
	LocationValue string    `json:"location_value,omitempty"`
	GuestEmails   []string  `json:"guest_emails,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toBookingDTO(booking persistence.Booking) bookingDTO {
	return bookingDTO{
		ID:            booking.ID,
		EventTypeID:   booking.EventTypeID,
		UserID:        booking.UserID,
		BookerName:    booking.BookerName,
		BookerEmail:   booking.BookerEmail,
		BookerPhone:   booking.BookerPhone,
		Start:         booking.Start,
		End:           booking.End,
		Timezone:      booking.Timezone,
		LocationKind:  booking.LocationKind,
		LocationValue: booking.LocationValue,
		GuestEmails:   booking.GuestEmails,
		Notes:         booking.Notes,
		Status:        booking.Status,
		CreatedAt:     booking.CreatedAt,
		UpdatedAt:     booking.UpdatedAt,
	}
}

func toBookingDTOs(bookings []persistence.Booking) []bookingDTO {
	out := make([]bookingDTO, len(bookings))
	for i, booking := range bookings {
		out[i] = toBookingDTO(booking)
	}
	return out
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())
	logger := h.log(r.Context(), "List", "user_id", user.ID)

	query := r.URL.Query()
	filter := persistence.BookingFilter{
		Status:        query.Get("status"),
		AttendeeName:  query.Get("attendee_name"),
		AttendeeEmail: query.Get("attendee_email"),
		EventTypeID:   query.Get("event_type_id"),
	}
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimestamp)
			return
		}
		filter.From = &from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimestamp)
			return
		}
		filter.To = &to
	}

	bookings, err := h.service.ListBookings(r.Context(), user.ID, filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, toBookingDTOs(bookings))
}

func (h *BookingHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())

	bookings, err := h.service.UpcomingBookings(r.Context(), user.ID)
	if err != nil {
		h.log(r.Context(), "Upcoming", "user_id", user.ID).ErrorContext(r.Context(), "upcoming booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, toBookingDTOs(bookings))
}

func (h *BookingHandler) Past(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())

	bookings, err := h.service.PastBookings(r.Context(), user.ID)
	if err != nil {
		h.log(r.Context(), "Past", "user_id", user.ID).ErrorContext(r.Context(), "past booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, toBookingDTOs(bookings))
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())

	booking, err := h.service.GetBooking(r.Context(), user.ID, bookingID)
	if err != nil {
		h.log(r.Context(), "Get", "user_id", user.ID, "booking_id", bookingID).ErrorContext(r.Context(), "booking lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, toBookingDTO(booking))
}

type cancelBookingRequest struct {
	BookerEmail string `json:"booker_email"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Cancel", "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode cancel request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Cancel", "booking_id", bookingID)

	booking, err := h.service.CancelBooking(r.Context(), application.CancelBookingInput{
		BookingID:   bookingID,
		BookerEmail: req.BookerEmail,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking cancelled")
	h.responder.writeData(r.Context(), w, http.StatusOK, toBookingDTO(booking))
}

type rescheduleBookingRequest struct {
	BookerEmail string `json:"booker_email"`
	NewStart    string `json:"new_start"`
	Reason      string `json:"reason"`
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req rescheduleBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Reschedule", "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reschedule request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	newStart, err := time.Parse(time.RFC3339, req.NewStart)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimestamp)
		return
	}

	logger := h.log(r.Context(), "Reschedule", "booking_id", bookingID, "new_start", newStart)

	booking, err := h.service.RescheduleBooking(r.Context(), application.RescheduleBookingInput{
		BookingID:   bookingID,
		BookerEmail: req.BookerEmail,
		NewStart:    newStart,
		Reason:      req.Reason,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking reschedule failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking rescheduled")
	h.responder.writeData(r.Context(), w, http.StatusOK, toBookingDTO(booking))
}

type bookingLocationRequest struct {
	LocationKind  string `json:"location_kind"`
	LocationValue string `json:"location_value"`
}

func (h *BookingHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())

	var req bookingLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateLocation", "user_id", user.ID, "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode location request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateLocation", "user_id", user.ID, "booking_id", bookingID)

	booking, err := h.service.UpdateBookingLocation(r.Context(), user.ID, bookingID, req.LocationKind, req.LocationValue)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking location update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking location updated")
	h.responder.writeData(r.Context(), w, http.StatusOK, toBookingDTO(booking))
}

type bookingGuestsRequest struct {
	GuestEmails []string `json:"guest_emails"`
}

func (h *BookingHandler) AddGuests(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	user, _ := CurrentUserFromContext(r.Context())

	var req bookingGuestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "AddGuests", "user_id", user.ID, "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode guest request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "AddGuests", "user_id", user.ID, "booking_id", bookingID)

	booking, err := h.service.AddGuests(r.Context(), user.ID, bookingID, req.GuestEmails)
	if err != nil {
		logger.ErrorContext(r.Context(), "adding booking guests failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking guests added")
	h.responder.writeData(r.Context(), w, http.StatusOK, toBookingDTO(booking))
}
