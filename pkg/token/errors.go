package token

import "errors"

var (
	// ErrInvalid is matched by every Decode failure.
	ErrInvalid = errors.New("token.invalid")

	ErrMalformed   = errors.New("token.malformed")
	ErrSignature   = errors.New("token.signature_mismatch")
	ErrExpired     = errors.New("token.expired")
	ErrNotYetValid = errors.New("token.not_yet_valid")

	ErrMissingSecret  = errors.New("token.missing_secret")
	ErrSecretTooShort = errors.New("token.secret_too_short")
	ErrEmptyIdentity  = errors.New("token.empty_identity")
)

func invalid(reason error, cause ...error) error {
	return errors.Join(append([]error{ErrInvalid, reason}, cause...)...)
}
