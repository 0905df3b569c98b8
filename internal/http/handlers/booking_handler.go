package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/diagnosis/numerology-appointments/internal/domain"
	"github.com/diagnosis/numerology-appointments/internal/http/response"
	"github.com/diagnosis/numerology-appointments/internal/notify"
	"github.com/diagnosis/numerology-appointments/pkg/logger"
	"github.com/diagnosis/numerology-appointments/pkg/middleware"
)

// Notifier is the booking side of notify.Gateway.
type Notifier interface {
	SubmitBooking(ctx context.Context, req domain.NotificationRequest) (domain.MeetingReference, error)
}

type BookingHandler struct {
	Notifier Notifier
}

func NewBookingHandler(n Notifier) *BookingHandler {
	return &BookingHandler{Notifier: n}
}

// SendMeetingLink handles POST /api/send-meeting-link.
func (h *BookingHandler) SendMeetingLink(w http.ResponseWriter, r *http.Request) {
	var in domain.NotificationRequest
	// an empty body is an empty request and fails the required-field check
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, response.MsgInvalidJSON)
		return
	}

	if id := middleware.IdentityFrom(r.Context()); id != nil {
		logger.DebugContext(r.Context(), "Booking from signed-in caller", "identity_name", id.Name)
	}

	ref, err := h.Notifier.SubmitBooking(r.Context(), in)
	if err != nil {
		var de *notify.DispatchError
		switch {
		case errors.Is(err, notify.ErrMissingFields):
			response.BadRequest(w, response.MsgMissingFields)
		case errors.As(err, &de):
			response.SendFailed(w, de.Err.Error())
		default:
			logger.ErrorContext(r.Context(), "Booking failed", "error", err)
			response.SendFailed(w, err.Error())
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, domain.MeetingLinkResponse{
		Message:  domain.MeetingLinkSent,
		MeetLink: ref,
	})
}

// Root answers GET / so uptime checks have something to hit.
func Root(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, response.Message{Message: response.MsgServerRunning})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	response.NotFound(w)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.MethodNotAllowed(w)
}
