package transfer

import "errors"

var (
	// ErrRejected marks every transfer that failed validation.
	ErrRejected = errors.New("transfer.rejected")

	ErrInvalidToken   = errors.New("transfer.invalid_token")
	ErrUnknownAction  = errors.New("transfer.unknown_action")
	ErrInvalidNonce   = errors.New("transfer.invalid_nonce")
	ErrUnsafeRedirect = errors.New("transfer.unsafe_redirect")
	ErrSessionGone    = errors.New("transfer.session_gone")
	ErrReplayed       = errors.New("transfer.replayed")

	// ErrGuardUnavailable indicates the replay guard back-end failed.
	ErrGuardUnavailable = errors.New("transfer.guard_unavailable")
)
