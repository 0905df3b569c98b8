// Package notify turns a booking request into a client confirmation and an
// admin alert, delivered one after the other through a mail transport.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/numerology-appointments/internal/domain"
	"github.com/diagnosis/numerology-appointments/internal/meeting"
	"github.com/diagnosis/numerology-appointments/internal/metrics"
	"github.com/diagnosis/numerology-appointments/internal/platform/mailer"
	"github.com/diagnosis/numerology-appointments/pkg/events"
	"github.com/diagnosis/numerology-appointments/pkg/logger"
)

type Config struct {
	From             string
	AdminEmail       string
	ConsultantName   string
	ConsultantPhones string
	SendTimeout      time.Duration
}

type Gateway struct {
	cfg       Config
	transport mailer.Transport
	meetings  meeting.Provider
	events    events.Publisher
	metrics   *metrics.BookingMetrics
}

// NewGateway wires the gateway. publisher and m may be nil.
func NewGateway(cfg Config, transport mailer.Transport, meetings meeting.Provider, publisher events.Publisher, m *metrics.BookingMetrics) *Gateway {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Gateway{
		cfg:       cfg,
		transport: transport,
		meetings:  meetings,
		events:    publisher,
		metrics:   m,
	}
}

// MissingFields returns the JSON names of required fields that are empty after trimming.
func MissingFields(req domain.NotificationRequest) []string {
	values := req.Fields()
	var missing []string
	for _, name := range domain.RequiredFields {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// SubmitBooking validates req, sends the client document and then the admin
// document. A failed send stops the sequence; a client mail already delivered
// is not recalled.
func (g *Gateway) SubmitBooking(ctx context.Context, req domain.NotificationRequest) (domain.MeetingReference, error) {
	logger.DebugContext(ctx, "Booking received", "service", req.Service)

	if missing := MissingFields(req); len(missing) > 0 {
		logger.WarnContext(ctx, "Booking rejected", "missing", missing)
		g.metrics.ObserveSubmission("invalid")
		return "", ErrMissingFields
	}

	ref, err := g.meetings.Provision(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to provision meeting", "error", err)
		g.metrics.ObserveSubmission("failed")
		return "", fmt.Errorf("provision meeting: %w", err)
	}

	client, err := g.clientDocument(req, ref)
	if err != nil {
		g.metrics.ObserveSubmission("failed")
		return "", fmt.Errorf("render client document: %w", err)
	}
	admin, err := g.adminDocument(req, ref)
	if err != nil {
		g.metrics.ObserveSubmission("failed")
		return "", fmt.Errorf("render admin document: %w", err)
	}

	if err := g.dispatch(ctx, RoleClient, client); err != nil {
		g.metrics.ObserveSubmission("failed")
		return "", err
	}
	if err := g.dispatch(ctx, RoleAdmin, admin); err != nil {
		g.metrics.ObserveSubmission("partial")
		return "", err
	}

	g.metrics.ObserveSubmission("success")
	logger.InfoContext(ctx, "Meeting link sent", "email", req.Email, "service", req.Service)

	evt := events.BookingNotifiedEvent{
		Email:      req.Email,
		Name:       req.Name,
		Service:    req.Service,
		Date:       req.Date,
		Time:       req.Time,
		MeetLink:   string(ref),
		NotifiedAt: time.Now().UTC(),
	}
	if err := g.events.Publish(ctx, events.BookingNotified, evt); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking event", "error", err)
	}

	return ref, nil
}

func (g *Gateway) dispatch(ctx context.Context, role Role, doc mailer.Document) error {
	if g.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.SendTimeout)
		defer cancel()
	}

	start := time.Now()
	id, err := g.transport.Send(ctx, doc)
	g.metrics.ObserveDispatch(string(role), err, time.Since(start).Seconds())
	if err != nil {
		logger.ErrorContext(ctx, "Mail dispatch failed", "role", role, "to", doc.To, "error", err)
		return &DispatchError{Role: role, Err: err}
	}

	logger.InfoContext(ctx, "Mail dispatched", "role", role, "to", doc.To, "message_id", id)
	return nil
}
