package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrServerError        = errors.New("server error")
	ErrValidation         = errors.New("validation error")
	ErrTimeout            = errors.New("request timed out")
	ErrUnexpectedResponse = errors.New("unexpected response shape")

	ErrCartUnavailable    = errors.New("cart unavailable")
	ErrNoOfferAvailable   = errors.New("no offer available")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrItemBusy           = errors.New("item mutation in flight")
	ErrItemNotFound       = errors.New("item not found in cart")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrCheckoutInProgress = errors.New("checkout in progress")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
)

// APIError is a non-2xx response from the marketplace backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity:
		return ErrValidation
	case e.StatusCode >= http.StatusInternalServerError:
		return ErrServerError
	default:
		return nil
	}
}
