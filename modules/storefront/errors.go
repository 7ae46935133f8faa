package storefront

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/keylock"
	"github.com/dmitrymomot/storefront/pkg/ratelimiter"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/transfer"
)

// HTTPError is an API error with its status code and a stable key clients
// can switch on.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

var (
	ErrBadRequest           = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnsupportedMediaType = HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	ErrInternal             = HTTPError{Code: http.StatusInternalServerError, Key: "internal_error"}
)

// retryAfter is the Retry-After value sent with retryable failures.
const retryAfter = "1"

// errorFor maps domain errors onto API errors.
func errorFor(err error) HTTPError {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, keylock.ErrLockTimeout):
		return unavailable(keylock.ErrLockTimeout)
	case errors.Is(err, keylock.ErrLockAborted):
		return unavailable(keylock.ErrLockAborted)
	case errors.Is(err, keylock.ErrLockerUnavailable):
		return unavailable(keylock.ErrLockerUnavailable)
	case errors.Is(err, session.ErrStoreUnavailable):
		return unavailable(session.ErrStoreUnavailable)
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionExpired), errors.Is(err, session.ErrNoSession):
		return HTTPError{Code: http.StatusNotFound, Key: session.ErrSessionNotFound.Error()}
	case errors.Is(err, cart.ErrItemNotFound):
		return HTTPError{Code: http.StatusNotFound, Key: cart.ErrItemNotFound.Error()}
	case errors.Is(err, cart.ErrInvalidQuantity):
		return unprocessable(cart.ErrInvalidQuantity)
	case errors.Is(err, cart.ErrInvalidProduct):
		return unprocessable(cart.ErrInvalidProduct)
	case errors.Is(err, ratelimiter.ErrLimitExceeded):
		return HTTPError{Code: http.StatusTooManyRequests, Key: ratelimiter.ErrLimitExceeded.Error()}
	case errors.Is(err, transfer.ErrUnsafeRedirect):
		return unprocessable(transfer.ErrUnsafeRedirect)
	case errors.Is(err, transfer.ErrUnknownAction):
		return unprocessable(transfer.ErrUnknownAction)
	default:
		return ErrInternal
	}
}

func unavailable(err error) HTTPError {
	return HTTPError{Code: http.StatusServiceUnavailable, Key: err.Error()}
}

func unprocessable(err error) HTTPError {
	return HTTPError{Code: http.StatusUnprocessableEntity, Key: err.Error()}
}
