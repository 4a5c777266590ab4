package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid database execution context")

	// Ledger errors surfaced to command dispatch
	ErrNotRegistered      = errors.New("user is not registered")
	ErrUsernameRequired   = errors.New("telegram username is required to register")
	ErrInvalidOrUsedCode  = errors.New("activation code invalid or already used")
	ErrAlreadyCheckedIn   = errors.New("already checked in within the cooldown window")
	ErrGatewayUnavailable = errors.New("messaging gateway unavailable")
	ErrStorage            = errors.New("storage failure")

	ErrLockNotAcquired = errors.New("lock is held by another worker")
	ErrUnauthorized    = errors.New("unauthorized")
)
