package nonce

import "errors"

var (
	ErrMissingSecret = errors.New("nonce.missing_secret")
	ErrInvalidTick   = errors.New("nonce.invalid_tick")
)
