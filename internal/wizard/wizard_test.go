package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/diagnosis/numerology-appointments/internal/client"
	"github.com/diagnosis/numerology-appointments/internal/domain"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []domain.NotificationRequest
	keys    []string
	err     error
	release chan struct{} // when set, SendMeetingLink blocks until closed
	entered chan struct{}
}

func (f *fakeSubmitter) SendMeetingLink(_ context.Context, req domain.NotificationRequest, key string) (*domain.MeetingLinkResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.keys = append(f.keys, key)
	err := f.err
	f.mu.Unlock()

	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	if err != nil {
		return nil, err
	}
	return &domain.MeetingLinkResponse{Message: domain.MeetingLinkSent, MeetLink: "https://meet.google.com/new"}, nil
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func fill(d *Draft) {
	d.Name = "Asha"
	d.Email = "a@x.com"
	d.Phone = "555"
	d.Service = domain.ServiceNumerology
	d.Date = time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	d.Time = time.Date(0, 1, 1, 14, 0, 0, 0, time.UTC)
}

func atConfirmation(t *testing.T, s Submitter) *Wizard {
	t.Helper()
	w := New(s)
	if err := w.Edit(fill); err != nil {
		t.Fatal(err)
	}
	w.Next()
	w.Next()
	return w
}

func TestNavigation_Bounds(t *testing.T) {
	w := New(&fakeSubmitter{})

	w.Back()
	if w.Step() != StepPersonalInfo {
		t.Fatalf("back from step 0 should stay at 0, got %d", w.Step())
	}

	w.Next()
	w.Next()
	w.Next()
	if w.Step() != StepConfirmation {
		t.Fatalf("next from step 2 should stay at 2, got %d", w.Step())
	}
}

func TestNavigation_PreservesFields(t *testing.T) {
	w := New(&fakeSubmitter{})
	_ = w.Edit(fill)
	w.Next()
	before := w.Draft()

	w.Back()
	w.Next()

	if w.Step() != StepAppointmentDetails {
		t.Fatalf("expected step 1, got %d", w.Step())
	}
	if w.Draft() != before {
		t.Fatalf("draft changed across navigation: %+v vs %+v", w.Draft(), before)
	}
}

func TestNext_DoesNotValidate(t *testing.T) {
	w := New(&fakeSubmitter{})
	w.Next()
	w.Next()
	if w.Step() != StepConfirmation {
		t.Fatalf("empty draft should still reach confirmation, got %d", w.Step())
	}
}

func TestSubmit_OnlyOnConfirmation(t *testing.T) {
	sub := &fakeSubmitter{}
	w := New(sub)
	_ = w.Edit(fill)

	if err := w.Submit(context.Background()); !errors.Is(err, ErrNotOnConfirmation) {
		t.Fatalf("expected ErrNotOnConfirmation, got %v", err)
	}
	if sub.callCount() != 0 {
		t.Fatal("no request expected")
	}
}

func TestSubmit_MissingFields(t *testing.T) {
	sub := &fakeSubmitter{}
	w := New(sub)
	_ = w.Edit(func(d *Draft) {
		fill(d)
		d.Phone = " "
		d.Time = time.Time{}
	})
	w.Next()
	w.Next()

	err := w.Submit(context.Background())
	var mf *MissingFieldsError
	if !errors.As(err, &mf) {
		t.Fatalf("expected MissingFieldsError, got %v", err)
	}
	if len(mf.Fields) != 2 || mf.Fields[0] != "time" || mf.Fields[1] != "phone" {
		t.Fatalf("unexpected fields: %v", mf.Fields)
	}
	if sub.callCount() != 0 {
		t.Fatal("no request expected")
	}
	if w.Status() != StatusIdle {
		t.Fatal("wizard should remain editable")
	}
}

func TestSubmit_Success(t *testing.T) {
	sub := &fakeSubmitter{}
	w := atConfirmation(t, sub)

	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.NotificationRequest{
		Email: "a@x.com", Name: "Asha", Date: "January 5, 2025",
		Time: "02:00 PM", Service: "numerology", Phone: "555",
	}
	if sub.calls[0] != want {
		t.Fatalf("unexpected payload: %+v", sub.calls[0])
	}
	if w.Status() != StatusSubmitted || w.Step() != StepConfirmation {
		t.Fatalf("expected submitted at confirmation, got status %d step %d", w.Status(), w.Step())
	}
	if banner, failed := w.Banner(); banner != SuccessBanner || failed {
		t.Fatalf("unexpected banner %q failed=%v", banner, failed)
	}
	if w.MeetLink() != "https://meet.google.com/new" {
		t.Fatalf("unexpected meet link %q", w.MeetLink())
	}

	if err := w.Submit(context.Background()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if err := w.Edit(func(d *Draft) { d.Name = "x" }); !errors.Is(err, ErrDraftLocked) {
		t.Fatalf("expected ErrDraftLocked, got %v", err)
	}
	w.Back()
	if w.Step() != StepConfirmation {
		t.Fatal("step should be frozen after submission")
	}
	if sub.callCount() != 1 {
		t.Fatalf("expected 1 request, got %d", sub.callCount())
	}
}

func TestSubmit_FailureKeepsDraftForRetry(t *testing.T) {
	sub := &fakeSubmitter{err: &client.APIError{StatusCode: 500, Message: "Failed to send meeting link", Details: "Invalid login"}}
	w := atConfirmation(t, sub)
	before := w.Draft()

	if err := w.Submit(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if banner, failed := w.Banner(); banner != "Invalid login" || !failed {
		t.Fatalf("unexpected banner %q failed=%v", banner, failed)
	}
	if w.Step() != StepConfirmation || w.Status() != StatusIdle {
		t.Fatal("wizard should stay on confirmation and be re-submittable")
	}
	if w.Draft() != before {
		t.Fatal("draft should survive a failed submission")
	}

	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if sub.keys[0] != sub.keys[1] || sub.keys[0] != w.IdempotencyKey() {
		t.Fatalf("both attempts should share the session key: %v", sub.keys)
	}
}

func TestSubmit_GenericFailureBanner(t *testing.T) {
	for _, err := range []error{
		errors.New("dial tcp: connection refused"),
		&client.APIError{StatusCode: 502, Message: "Bad Gateway"},
	} {
		w := atConfirmation(t, &fakeSubmitter{err: err})
		_ = w.Submit(context.Background())
		if banner, _ := w.Banner(); banner != FailureBanner {
			t.Fatalf("expected generic banner for %v, got %q", err, banner)
		}
	}
}

func TestSubmit_RejectsReentrantSubmit(t *testing.T) {
	sub := &fakeSubmitter{release: make(chan struct{}), entered: make(chan struct{})}
	w := atConfirmation(t, sub)

	done := make(chan error, 1)
	go func() { done <- w.Submit(context.Background()) }()
	<-sub.entered

	if err := w.Submit(context.Background()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	if err := w.Edit(func(d *Draft) { d.Name = "x" }); !errors.Is(err, ErrDraftLocked) {
		t.Fatalf("expected ErrDraftLocked while pending, got %v", err)
	}

	close(sub.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if sub.callCount() != 1 {
		t.Fatalf("expected exactly 1 request, got %d", sub.callCount())
	}
}

func TestRequest_FieldNamesMatchRequiredFields(t *testing.T) {
	var d Draft
	fill(&d)
	req, err := d.Request()
	if err != nil {
		t.Fatal(err)
	}

	raw, _ := json.Marshal(req)
	var body map[string]string
	_ = json.Unmarshal(raw, &body)

	var got []string
	for k, v := range body {
		if v == "" {
			t.Fatalf("field %q serialized empty", k)
		}
		got = append(got, k)
	}
	want := append([]string(nil), domain.RequiredFields...)
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("expected fields %v, got %v", want, got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("expected fields %v, got %v", want, got)
		}
	}
}

func TestStep_String(t *testing.T) {
	if StepAppointmentDetails.String() != "Appointment Details" {
		t.Fatalf("unexpected label %q", StepAppointmentDetails.String())
	}
}
