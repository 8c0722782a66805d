// Package errs holds the typed errors shared by the order pipeline.
//
// Every error type pairs a sentinel (ErrValueIsRequired, ErrValueIsInvalid, ...) with a
// struct carrying the offending parameter and an optional cause. Unwrap returns the
// sentinel, so callers classify with errors.Is and inspect details with errors.As:
//
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    return ctx.JSON(http.StatusNotFound, ...)
//	}
//
// The required, invalid and out-of-range errors together form the validation family.
// IsValidation reports membership and Fields flattens a joined validation error into
// a parameter -> message map for client-facing responses.
package errs
