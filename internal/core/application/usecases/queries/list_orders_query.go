package queries

import (
	"errors"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

var (
	ErrListOrdersQueryIsNotConstructed = errors.New(
		"ListOrdersQuery must be created via NewListOrdersQuery constructor",
	)
)

// ListOrdersQuery lists orders newest first, optionally restricted to one status.
//
// Example:
//
//	status := order.Failed
//	query, err := NewListOrdersQuery(&status, 20)
type ListOrdersQuery struct {
	status *order.Status
	limit  int

	guard guard.ConstructorGuard
}

// NewListOrdersQuery validates the filter. A nil status lists every status; a zero
// limit means DefaultListLimit.
func NewListOrdersQuery(status *order.Status, limit int) (ListOrdersQuery, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}

	var statusErr error
	if status != nil {
		statusErr = status.Validate()
	}

	var limitErr error
	if limit < 1 || limit > MaxListLimit {
		limitErr = errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxListLimit)
	}

	if err := errors.Join(statusErr, limitErr); err != nil {
		return ListOrdersQuery{}, err
	}

	return ListOrdersQuery{
		status: status,
		limit:  limit,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

// Status returns the filter and whether one is set.
func (q ListOrdersQuery) Status() (order.Status, bool) {
	if q.status == nil {
		return order.Unknown, false
	}
	return *q.status, true
}

func (q ListOrdersQuery) Limit() int {
	return q.limit
}
