package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNotFoundError(t *testing.T) {
	t.Run("should format the id without a cause", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("order", "5f0c")

		assert.Equal(t, "order", err.ParamName)
		assert.Equal(t, "5f0c", err.ID)
		require.NoError(t, err.Cause)
		assert.Equal(t, "object not found: 5f0c", err.Error())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("should include param and cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := errs.NewObjectNotFoundErrorWithCause("order", "5f0c", cause)

		assert.Equal(t,
			"object not found: param is: order, ID is: 5f0c (cause: connection reset)",
			err.Error())
		assert.Equal(t, cause, err.Cause)
		require.ErrorIs(t, err, cause)
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("should format non-string ids", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("order", 42)
		assert.Equal(t, "object not found: 42", err.Error())
	})
}

func TestValueIsInvalidError(t *testing.T) {
	t.Run("should name the parameter", func(t *testing.T) {
		err := errs.NewValueIsInvalidError("status")

		assert.Equal(t, "value is invalid: status", err.Error())
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should include the cause", func(t *testing.T) {
		err := errs.NewValueIsInvalidErrorWithCause("status", errors.New("unknown status \"shipped\""))

		assert.Equal(t, "value is invalid: status (cause: unknown status \"shipped\")", err.Error())
	})
}

func TestValueIsOutOfRangeError(t *testing.T) {
	t.Run("should describe bounds", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("quantity", 1001, 1, 1000)

		assert.Equal(t, 1001, err.Value)
		assert.Equal(t, 1, err.Min)
		assert.Equal(t, 1000, err.Max)
		assert.Equal(t, "value is invalid: 1001 is quantity, min value is 1, max value is 1000", err.Error())
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("should append the cause", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeErrorWithCause("quantity", 0, 1, 1000, errors.New("must be positive"))

		assert.Equal(t,
			"value is invalid: 0 is quantity, min value is 1, max value is 1000 (cause: must be positive)",
			err.Error())
	})

	t.Run("should strip newlines from the value", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("item_name", "lap\ntop", 1, 100)

		assert.Contains(t, err.Error(), "lap top")
		assert.NotContains(t, err.Error(), "\n")
	})
}

func TestValueIsRequiredError(t *testing.T) {
	err := errs.NewValueIsRequiredError("item_name")
	assert.Equal(t, "value is required: item_name", err.Error())
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	withCause := errs.NewValueIsRequiredErrorWithCause("item_name", errors.New("empty string"))
	assert.Equal(t, "value is required: item_name (cause: empty string)", withCause.Error())
}

func TestIsValidation(t *testing.T) {
	t.Run("should recognise the validation family through wrapping", func(t *testing.T) {
		joined := errors.Join(
			errs.NewValueIsRequiredError("item_name"),
			errs.NewValueIsOutOfRangeError("quantity", 0, 1, 1000),
		)

		assert.True(t, errs.IsValidation(fmt.Errorf("create order: %w", joined)))
		assert.True(t, errs.IsValidation(errs.NewValueIsInvalidError("status")))
	})

	t.Run("should reject other errors", func(t *testing.T) {
		assert.False(t, errs.IsValidation(errs.NewObjectNotFoundError("order", "x")))
		assert.False(t, errs.IsValidation(errors.New("boom")))
		assert.False(t, errs.IsValidation(nil))
	})
}

func TestFields(t *testing.T) {
	// Given
	err := fmt.Errorf("create order: %w", errors.Join(
		errs.NewValueIsRequiredError("item_name"),
		errs.NewValueIsOutOfRangeError("quantity", 0, 1, 1000),
		errors.New("unrelated"),
	))

	// When
	fields := errs.Fields(err)

	// Then
	require.Len(t, fields, 2)
	assert.Equal(t, "value is required: item_name", fields["item_name"])
	assert.Contains(t, fields["quantity"], "min value is 1")
}
