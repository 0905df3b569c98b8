// Package meeting supplies joinable meeting-room URLs for confirmed bookings.
package meeting

import (
	"context"
	"errors"
	"net/url"

	"github.com/diagnosis/numerology-appointments/internal/domain"
)

// Provider returns a room for the given booking.
type Provider interface {
	Provision(ctx context.Context, req domain.NotificationRequest) (domain.MeetingReference, error)
}

// StaticProvider hands out the same room URL for every booking.
type StaticProvider struct {
	url domain.MeetingReference
}

func NewStaticProvider(rawURL string) (*StaticProvider, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "https" && u.Scheme != "http" || u.Host == "" {
		return nil, errors.New("meeting url must be an absolute http(s) url")
	}
	return &StaticProvider{url: domain.MeetingReference(u.String())}, nil
}

func (p *StaticProvider) Provision(context.Context, domain.NotificationRequest) (domain.MeetingReference, error) {
	return p.url, nil
}
