package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(context.Background(), BookingNotified, BookingNotifiedEvent{Email: "a@x.com"}); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewNATSEventBus_Unreachable(t *testing.T) {
	if _, err := NewNATSEventBus("nats://127.0.0.1:1"); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestBookingNotifiedEvent_JSON(t *testing.T) {
	evt := BookingNotifiedEvent{
		Email:      "a@x.com",
		MeetLink:   "https://meet.google.com/new",
		NotifiedAt: time.Date(2025, 1, 5, 14, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	if m["meet_link"] != "https://meet.google.com/new" || m["notified_at"] != "2025-01-05T14:00:00Z" {
		t.Fatalf("unexpected payload %s", raw)
	}
}
