package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/queuecare/hospital-backend/internal/booking"
)

// AppointmentHandler serves queue booking, schedule lookups and the
// appointment lifecycle.
type AppointmentHandler struct {
	scheduler *booking.Scheduler
	lifecycle *booking.Lifecycle
}

func NewAppointmentHandler(scheduler *booking.Scheduler, lifecycle *booking.Lifecycle) *AppointmentHandler {
	return &AppointmentHandler{
		scheduler: scheduler,
		lifecycle: lifecycle,
	}
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
		return
	}

	var req BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
		return
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be formatted YYYY-MM-DD")
		return
	}

	appt, err := h.scheduler.Book(r.Context(), doctorID, userID, day, req.DurationMinutes)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrDoctorNotFound):
			writeError(w, http.StatusNotFound, "doctor_not_found", "doctor does not exist")
		case errors.Is(err, booking.ErrPastDay):
			writeError(w, http.StatusBadRequest, "past_date", "date is in the past")
		case errors.Is(err, booking.ErrNotAvailable):
			writeError(w, http.StatusConflict, "not_available", "doctor is not available on this day")
		case errors.Is(err, booking.ErrSlotsExhausted):
			writeError(w, http.StatusConflict, "slots_exhausted", "no slots left for this day")
		case errors.Is(err, booking.ErrDuplicateBooking):
			writeError(w, http.StatusConflict, "duplicate_booking", "you already have a booking with this doctor for this day")
		case errors.Is(err, booking.ErrQueueContention):
			writeError(w, http.StatusConflict, "queue_contention", "could not allocate a queue number, please retry")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to book appointment")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "appointment id must be a valid UUID")
		return
	}

	appt, err := h.scheduler.GetAppointment(r.Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrAppointmentNotFound) {
			writeError(w, http.StatusNotFound, "appointment_not_found", "appointment does not exist")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load appointment")
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

// ListForDay returns a doctor's queue for one day in queue order. The doctor
// comes from the path on the /doctors routes and from the query elsewhere.
func (h *AppointmentHandler) ListForDay(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "doctorID")
	if raw == "" {
		raw = r.URL.Query().Get("doctor_id")
	}
	doctorID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor id must be a valid UUID")
		return
	}

	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date query parameter must be formatted YYYY-MM-DD")
		return
	}

	appts, err := h.scheduler.ListForDay(r.Context(), doctorID, day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list appointments")
		return
	}

	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Availability reports whether a doctor is bookable on a date, with the
// day's template, capacity and current load.
func (h *AppointmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor id must be a valid UUID")
		return
	}

	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date query parameter must be formatted YYYY-MM-DD")
		return
	}

	template, capacity, active, err := h.scheduler.DayOverview(r.Context(), doctorID, day)
	if err != nil {
		if errors.Is(err, booking.ErrDoctorNotFound) {
			writeError(w, http.StatusNotFound, "doctor_not_found", "doctor does not exist")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load availability")
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{
		Date:           booking.TruncateDay(day).Format("2006-01-02"),
		Bookable:       template != nil,
		Template:       template,
		TotalCapacity:  capacity,
		ActiveBookings: active,
	})
}

// SetAvailability replaces a doctor's weekly template.
func (h *AppointmentHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor id must be a valid UUID")
		return
	}

	var req SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	doctor, err := h.scheduler.SetAvailability(r.Context(), doctorID, req.Availability)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidAvailability):
			writeError(w, http.StatusBadRequest, "invalid_availability", err.Error())
		case errors.Is(err, booking.ErrDoctorNotFound):
			writeError(w, http.StatusNotFound, "doctor_not_found", "doctor does not exist")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to update availability")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           doctor.ID,
		"name":         doctor.Name,
		"availability": doctor.Availability,
	})
}

func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, func(ctx *http.Request, id uuid.UUID) (*booking.Appointment, error) {
		return h.lifecycle.Confirm(ctx.Context(), id)
	})
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, func(ctx *http.Request, id uuid.UUID) (*booking.Appointment, error) {
		return h.lifecycle.Complete(ctx.Context(), id)
	})
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
		return
	}
	h.applyTransition(w, r, func(ctx *http.Request, id uuid.UUID) (*booking.Appointment, error) {
		return h.lifecycle.Cancel(ctx.Context(), id, userID)
	})
}

func (h *AppointmentHandler) applyTransition(w http.ResponseWriter, r *http.Request, fn func(*http.Request, uuid.UUID) (*booking.Appointment, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "appointment id must be a valid UUID")
		return
	}

	appt, err := fn(r, id)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrAppointmentNotFound):
			writeError(w, http.StatusNotFound, "appointment_not_found", "appointment does not exist")
		case errors.Is(err, booking.ErrNotOwner):
			writeError(w, http.StatusForbidden, "not_owner", "only the booking user may cancel")
		case errors.Is(err, booking.ErrInvalidStatusTransition):
			writeError(w, http.StatusConflict, "invalid_transition", "appointment status does not permit this change")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to update appointment")
		}
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}
