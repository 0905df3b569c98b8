// Package wizard holds the three-step booking form and its submission guard.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/numerology-appointments/internal/client"
	"github.com/diagnosis/numerology-appointments/internal/domain"
	"github.com/diagnosis/numerology-appointments/pkg/logger"
)

const (
	DateLayout = "January 2, 2006"
	TimeLayout = "03:04 PM"

	SuccessBanner = "Appointment booked successfully! Check your email for confirmation."
	FailureBanner = "Failed to send meeting link"
)

var (
	ErrNotOnConfirmation  = errors.New("submit is only available on the confirmation step")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrAlreadySubmitted   = errors.New("booking already submitted")
	ErrDraftLocked        = errors.New("draft can no longer be edited")
)

// MissingFieldsError lists the JSON names of required fields the draft lacks.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

type Step int

const (
	StepPersonalInfo Step = iota
	StepAppointmentDetails
	StepConfirmation
)

func (s Step) String() string {
	switch s {
	case StepPersonalInfo:
		return "Personal Information"
	case StepAppointmentDetails:
		return "Appointment Details"
	case StepConfirmation:
		return "Confirmation"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusSubmitted
)

// Draft is the in-progress form. Zero Date or Time means not chosen yet.
type Draft struct {
	Name    string
	Email   string
	Phone   string
	Service domain.ServiceKind
	Date    time.Time
	Time    time.Time
	Message string // shown on the form only, never sent
}

// Request formats the draft for the booking API.
func (d Draft) Request() (domain.NotificationRequest, error) {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	_, serviceOK := domain.ParseServiceKind(string(d.Service))

	check("email", strings.TrimSpace(d.Email) != "")
	check("name", strings.TrimSpace(d.Name) != "")
	check("date", !d.Date.IsZero())
	check("time", !d.Time.IsZero())
	check("service", serviceOK)
	check("phone", strings.TrimSpace(d.Phone) != "")
	if len(missing) > 0 {
		return domain.NotificationRequest{}, &MissingFieldsError{Fields: missing}
	}

	return domain.NotificationRequest{
		Email:   strings.TrimSpace(d.Email),
		Name:    strings.TrimSpace(d.Name),
		Date:    d.Date.Format(DateLayout),
		Time:    d.Time.Format(TimeLayout),
		Service: string(d.Service),
		Phone:   strings.TrimSpace(d.Phone),
	}, nil
}

// Submitter sends one booking. client.Client satisfies it.
type Submitter interface {
	SendMeetingLink(ctx context.Context, req domain.NotificationRequest, idempotencyKey string) (*domain.MeetingLinkResponse, error)
}

type Wizard struct {
	mu        sync.Mutex
	submitter Submitter
	key       string

	step     Step
	status   Status
	draft    Draft
	banner   string
	failed   bool
	meetLink domain.MeetingReference
}

func New(s Submitter) *Wizard {
	return &Wizard{submitter: s, key: uuid.NewString()}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Banner returns the outcome message of the last submission and whether it reports a failure.
func (w *Wizard) Banner() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.banner, w.failed
}

func (w *Wizard) MeetLink() domain.MeetingReference {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.meetLink
}

// IdempotencyKey is sent with every attempt of this session.
func (w *Wizard) IdempotencyKey() string {
	return w.key
}

// Edit applies fn to the draft unless a submission is pending or done.
func (w *Wizard) Edit(fn func(*Draft)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status != StatusIdle {
		return ErrDraftLocked
	}
	fn(&w.draft)
	return nil
}

// Next advances one step without checking the current step's fields.
func (w *Wizard) Next() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == StatusIdle && w.step < StepConfirmation {
		w.step++
	}
}

func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == StatusIdle && w.step > StepPersonalInfo {
		w.step--
	}
}

// Submit sends the draft once. On failure the wizard stays on the
// confirmation step with the draft intact so the user can retry.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.status == StatusSubmitting:
		w.mu.Unlock()
		return ErrSubmissionInFlight
	case w.status == StatusSubmitted:
		w.mu.Unlock()
		return ErrAlreadySubmitted
	case w.step != StepConfirmation:
		w.mu.Unlock()
		return ErrNotOnConfirmation
	}

	req, err := w.draft.Request()
	if err != nil {
		w.banner, w.failed = err.Error(), true
		w.mu.Unlock()
		return err
	}
	w.status = StatusSubmitting
	w.banner, w.failed = "", false
	w.mu.Unlock()

	res, err := w.submitter.SendMeetingLink(ctx, req, w.key)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		logger.WarnContext(ctx, "Booking submission failed", "error", err)
		w.status = StatusIdle
		w.banner, w.failed = failureBanner(err), true
		return err
	}

	w.status = StatusSubmitted
	w.meetLink = res.MeetLink
	w.banner, w.failed = SuccessBanner, false
	return nil
}

func failureBanner(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Details != "" {
		return apiErr.Details
	}
	return FailureBanner
}
