package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meetsync/internal/application"
	"github.com/example/meetsync/internal/persistence"
	"github.com/example/meetsync/internal/slots"
)

type publicUserService interface {
	GetUserByUsername(ctx context.Context, username string) (persistence.User, error)
}

type publicEventTypeService interface {
	GetEventTypeBySlug(ctx context.Context, userID, slug string) (persistence.EventType, error)
}

type availabilityService interface {
	GenerateSlotsForEventType(ctx context.Context, eventType persistence.EventType, date time.Time) ([]slots.Window, error)
}

type publicBookingService interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (persistence.Booking, error)
}

// PublicHandler serves the unauthenticated booking pages reached via
// /{username}/{slug}/... paths.
type PublicHandler struct {
	users        publicUserService
	eventTypes   publicEventTypeService
	availability availabilityService
	bookings     publicBookingService
	responder    responder
	logger       *slog.Logger
}

func NewPublicHandler(users publicUserService, eventTypes publicEventTypeService, availability availabilityService, bookings publicBookingService, logger *slog.Logger) *PublicHandler {
	base := defaultLogger(logger)
	return &PublicHandler{
		users:        users,
		eventTypes:   eventTypes,
		availability: availability,
		bookings:     bookings,
		responder:    newResponder(base),
		logger:       base,
	}
}

func (h *PublicHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PublicHandler", operation, attrs...)
}

func (h *PublicHandler) resolveEventType(ctx context.Context, username, slug string) (persistence.EventType, error) {
	user, err := h.users.GetUserByUsername(ctx, username)
	if err != nil {
		return persistence.EventType{}, err
	}
	return h.eventTypes.GetEventTypeBySlug(ctx, user.ID, slug)
}

// Slots lists the open booking windows for one day of a public event type.
// The date query parameter is required and uses the YYYY-MM-DD form.
func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request, username, slug string) {
	if h == nil || h.users == nil || h.eventTypes == nil || h.availability == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	logger := h.log(r.Context(), "Slots", "username", username, "slug", slug, "date", date.Format("2006-01-02"))

	eventType, err := h.resolveEventType(r.Context(), username, slug)
	if err != nil {
		logger.ErrorContext(r.Context(), "public event type lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	windows, err := h.availability.GenerateSlotsForEventType(r.Context(), eventType, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "slot generation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, windows)
}

type publicBookingRequest struct {
	BookerName  string   `json:"booker_name"`
	BookerEmail string   `json:"booker_email"`
	BookerPhone string   `json:"booker_phone"`
	Start       string   `json:"start"`
	Timezone    string   `json:"timezone"`
	GuestEmails []string `json:"guest_emails"`
	Notes       string   `json:"notes"`
}

// CreateBooking reserves a slot on a public event type on behalf of a booker.
func (h *PublicHandler) CreateBooking(w http.ResponseWriter, r *http.Request, username, slug string) {
	if h == nil || h.users == nil || h.eventTypes == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req publicBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateBooking", "username", username, "slug", slug, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimestamp)
		return
	}

	logger := h.log(r.Context(), "CreateBooking", "username", username, "slug", slug, "start", start)

	eventType, err := h.resolveEventType(r.Context(), username, slug)
	if err != nil {
		logger.ErrorContext(r.Context(), "public event type lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), application.CreateBookingInput{
		EventTypeID: eventType.ID,
		BookerName:  req.BookerName,
		BookerEmail: req.BookerEmail,
		BookerPhone: req.BookerPhone,
		Start:       start,
		Timezone:    req.Timezone,
		GuestEmails: req.GuestEmails,
		Notes:       req.Notes,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", booking.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeData(r.Context(), w, http.StatusCreated, toBookingDTO(booking))
}
