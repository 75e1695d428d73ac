package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Caller errors
	ErrInvalidArgument     ErrorCode = "INVALID_ARGUMENT"
	ErrInvalidOperation    ErrorCode = "INVALID_OPERATION"
	ErrInvalidPlayerAction ErrorCode = "INVALID_PLAYER_ACTION"
	ErrInvalidSplit        ErrorCode = "INVALID_SPLIT"

	// Round state errors
	ErrGameInProgress ErrorCode = "GAME_IN_PROGRESS"
	ErrInvalidState   ErrorCode = "INVALID_STATE"
	ErrNotPlayerTurn  ErrorCode = "NOT_PLAYER_TURN"
	ErrPlayerNotFound ErrorCode = "PLAYER_NOT_FOUND"

	// Money errors
	ErrInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCurrencyMismatch  ErrorCode = "CURRENCY_MISMATCH"

	// Shoe errors
	ErrEmptyShoe ErrorCode = "EMPTY_SHOE"

	// System errors
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// GameError represents a game-related error
type GameError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GameError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a GameError with the same code, so that
// errors.Is(err, types.NewGameError(code, "")) matches on code alone.
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewGameError creates a new GameError
func NewGameError(code ErrorCode, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new GameError with a formatted message
func Errorf(code ErrorCode, format string, args ...interface{}) *GameError {
	return NewGameError(code, fmt.Sprintf(format, args...))
}

// WrapError wraps an existing error in a GameError
func WrapError(code ErrorCode, message string, err error) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsGameError checks if an error is a GameError and has a specific code
func IsGameError(err error, code ErrorCode) bool {
	var gameErr *GameError
	if err == nil {
		return false
	}
	if ok := As(err, &gameErr); !ok {
		return false
	}
	return gameErr.Code == code
}

// CodeOf returns the code of the first GameError in err's chain, or "" if there is none
func CodeOf(err error) ErrorCode {
	var gameErr *GameError
	if As(err, &gameErr) {
		return gameErr.Code
	}
	return ""
}

// As finds the first GameError in err's chain
func As(err error, target **GameError) bool {
	if target == nil || err == nil {
		return false
	}
	return errors.As(err, target)
}
