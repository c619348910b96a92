package crash

import "errors"

// Error is a player-facing failure with a stable machine-readable code.
// Engine internals wrap storage errors the usual way; only the codes below
// ever reach a caller.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrWrongPhase            = &Error{Code: "wrong_phase", Message: "action is not valid in the current round phase"}
	ErrInvalidAmount         = &Error{Code: "invalid_amount", Message: "bet amount is outside the allowed range"}
	ErrDuplicateBet          = &Error{Code: "duplicate_bet", Message: "identity already has a bet this round"}
	ErrNoActiveBet           = &Error{Code: "no_active_bet", Message: "identity has no active bet this round"}
	ErrAlreadyCashedOut      = &Error{Code: "already_cashed_out", Message: "bet has already been cashed out"}
	ErrInsufficientFunds     = &Error{Code: "insufficient_funds", Message: "balance is too low for this bet"}
	ErrAccountBanned         = &Error{Code: "account_banned", Message: "account is banned from wagering"}
	ErrAccountNotFound       = &Error{Code: "account_not_found", Message: "account does not exist"}
	ErrDependencyUnavailable = &Error{Code: "dependency_unavailable", Message: "a backing service is unavailable, try again"}
)

// AsError extracts the coded error from an error chain.
func AsError(err error) (*Error, bool) {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr, true
	}

	return nil, false
}
