package domain

import "errors"

// Domain errors
var (
	ErrMissingParam    = errors.New("required parameter is missing")
	ErrPlayerDead      = errors.New("player is dead")
	ErrRoleMismatch    = errors.New("role does not match this screen")
	ErrNoTarget        = errors.New("no target selected")
	ErrTargetNotFound  = errors.New("target not found in roster")
	ErrNotSelectable   = errors.New("target cannot be selected")
	ErrSubmitInFlight  = errors.New("an action is already being submitted")
	ErrActionDone      = errors.New("night action already completed")
	ErrNotLoaded       = errors.New("screen has not finished loading")
	ErrLoadInFlight    = errors.New("screen is already loading")
	ErrNotHost         = errors.New("only the host can advance the phase")
	ErrAdvanceDisabled = errors.New("night actions are not complete yet")
	ErrUnknownScreen   = errors.New("unknown screen")
)
