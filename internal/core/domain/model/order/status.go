package order

import (
	"errors"
	"fmt"

	"orderflow/internal/pkg/errs"
)

// ErrInvalidTransition is the cause attached to every rejected status change.
var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the lifecycle state of an order.
type Status int

const (
	// Unknown catches uninitialised values and never appears in storage.
	Unknown Status = iota

	// Pending is the initial status; the order waits in the work queue.
	Pending

	// Processing means a worker has picked the order up.
	Processing

	// Completed is terminal: fulfillment succeeded.
	Completed

	// Failed is terminal: fulfillment was declined or errored.
	Failed
)

var statusNames = map[Status]string{
	Pending:    "pending",
	Processing: "processing",
	Completed:  "completed",
	Failed:     "failed",
}

// transitions lists, for each status, the statuses it may move to.
var transitions = map[Status][]Status{
	Pending:    {Processing},
	Processing: {Completed, Failed},
}

// AllStatuses returns the valid statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, Processing, Completed, Failed}
}

// ParseStatus maps the lowercase wire name back to a Status.
func ParseStatus(s string) (Status, error) {
	for status, name := range statusNames {
		if name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a known status", s))
}

// String renders the wire name, "unknown" for anything invalid.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Failed
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo returns next if the machine allows s -> next.
func (s Status) TransitionTo(next Status) (Status, error) {
	if !s.CanTransitionTo(next) {
		return Unknown, errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next),
		)
	}
	return next, nil
}
