package order

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

const (
	MinItemNameLength = 1
	MaxItemNameLength = 100
	MinQuantity       = 1
	MaxQuantity       = 1000
)

// timestampPrecision matches what the relational store keeps, so an order read back
// compares equal to the one that was written.
const timestampPrecision = time.Microsecond

// TimestampLayout renders order timestamps as RFC 3339 UTC with fixed-width
// fractional seconds, so rendered values sort lexicographically.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")
)

// Order is the aggregate root of the pipeline. Fields are private so every change goes
// through TransitionTo.
type Order struct {
	id        kernel.UUID
	itemName  string
	quantity  int
	status    Status
	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

// NewOrder creates a pending order. now becomes both CreatedAt and UpdatedAt.
// All field violations are reported together.
func NewOrder(id kernel.UUID, itemName string, quantity int, now time.Time) (*Order, error) {
	ts := normalize(now)
	o := &Order{
		status:        Pending,
		createdAt:     ts,
		updatedAt:     ts,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setItemName(itemName),
		o.setQuantity(quantity),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rebuilds an order from storage without resetting its status or timestamps.
func RestoreOrder(
	id kernel.UUID,
	itemName string,
	quantity int,
	status Status,
	createdAt, updatedAt time.Time,
) (*Order, error) {
	o := &Order{
		createdAt:     normalize(createdAt),
		updatedAt:     normalize(updatedAt),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setItemName(itemName),
		o.setQuantity(quantity),
		o.setStatus(status),
	); err != nil {
		return nil, err
	}

	if o.updatedAt.Before(o.createdAt) {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"updated_at",
			fmt.Errorf("%s is before created_at %s", o.updatedAt.Format(time.RFC3339Nano), o.createdAt.Format(time.RFC3339Nano)),
		)
	}

	return o, nil
}

// ValidateItemName checks the name bounds, counting characters rather than bytes.
func ValidateItemName(itemName string) error {
	if itemName == "" {
		return errs.NewValueIsRequiredError("item_name")
	}
	if n := utf8.RuneCountInString(itemName); n > MaxItemNameLength {
		return errs.NewValueIsOutOfRangeErrorWithCause(
			"item_name",
			n,
			MinItemNameLength,
			MaxItemNameLength,
			errors.New("item name length in characters"),
		)
	}
	return nil
}

func ValidateQuantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return errs.NewValueIsOutOfRangeError("quantity", quantity, MinQuantity, MaxQuantity)
	}
	return nil
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) ItemName() string {
	return o.itemName
}

func (o *Order) Quantity() int {
	return o.quantity
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// TransitionTo moves the order to next and refreshes UpdatedAt. A clock that went
// backwards leaves UpdatedAt unchanged rather than moving it into the past.
func (o *Order) TransitionTo(next Status, now time.Time) error {
	if err := o.Validate(); err != nil {
		return err
	}

	status, err := o.status.TransitionTo(next)
	if err != nil {
		return err
	}

	o.status = status
	if ts := normalize(now); ts.After(o.updatedAt) {
		o.updatedAt = ts
	}
	return nil
}

// Start moves a pending order into processing.
func (o *Order) Start(now time.Time) error {
	return o.TransitionTo(Processing, now)
}

func (o *Order) Complete(now time.Time) error {
	return o.TransitionTo(Completed, now)
}

func (o *Order) Fail(now time.Time) error {
	return o.TransitionTo(Failed, now)
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setItemName(itemName string) error {
	if err := ValidateItemName(itemName); err != nil {
		return err
	}
	o.itemName = itemName
	return nil
}

func (o *Order) setQuantity(quantity int) error {
	if err := ValidateQuantity(quantity); err != nil {
		return err
	}
	o.quantity = quantity
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(timestampPrecision)
}
