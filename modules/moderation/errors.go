package moderation

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine that is meant for the actor
// wraps exactly one of them.
var (
	ErrValidation   = errors.New("invalid request")
	ErrPrecondition = errors.New("precondition failed")
	ErrGateway      = errors.New("coin payment failed")
	ErrCollaborator = errors.New("front-end call failed")
)

var (
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrAmountTooLarge    = fmt.Errorf("%w: amount is too large", ErrValidation)
	ErrNegativeWorth     = fmt.Errorf("%w: worth cannot be negative", ErrValidation)
	ErrInvalidDuration   = fmt.Errorf("%w: invalid duration format (use 1h, 30m, 7d)", ErrValidation)
	ErrSelfVote          = fmt.Errorf("%w: you cannot vote for yourself", ErrValidation)
	ErrMissingSource     = fmt.Errorf("%w: a Coin Card ID is required", ErrValidation)
	ErrBailNotConfigured = fmt.Errorf("%w: bail worth not configured or is 0", ErrValidation)
	ErrNoCoinCard        = fmt.Errorf("%w: server has no Coin Card configured, cannot process payment", ErrValidation)

	ErrNoPendingFines       = fmt.Errorf("%w: you have no pending invoices (fines)", ErrPrecondition)
	ErrNoAdvertence         = fmt.Errorf("%w: user has no advertences", ErrPrecondition)
	ErrNoBanRecord          = fmt.Errorf("%w: you are not on a permanent ban list", ErrPrecondition)
	ErrVoteCooldown         = fmt.Errorf("%w: vote cooldown", ErrPrecondition)
	ErrUnknownUser          = fmt.Errorf("%w: user data not found", ErrPrecondition)
	ErrSettlementInProgress = fmt.Errorf("%w: a payment for this account is already in progress", ErrPrecondition)
)
