package notify

import (
	"errors"
	"fmt"
)

// ErrMissingFields is returned when any required booking field is absent or blank.
var ErrMissingFields = errors.New("missing required fields")

// Role names the recipient of a notification document.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// DispatchError wraps a mail transport failure. Err carries the transport's own message.
type DispatchError struct {
	Role Role
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s notification: %v", e.Role, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
