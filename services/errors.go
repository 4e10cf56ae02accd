package services

import "errors"

// Error taxonomy surfaced to the request layer. Busy and persistence
// failures are retryable by the caller with a fresh intent; the rest are
// permanent for the request that produced them. The engine itself never
// retries a point submission, since a blind retry double-counts.
var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchNotInProgress = errors.New("match is not in progress")
	ErrMatchNotScheduled  = errors.New("match is not in scheduled status")
	ErrInvalidPointWinner = errors.New("point winner must be player 1 or 2")
	ErrScoreBusy          = errors.New("another score update for this match is in flight")
	ErrPersistenceFailure = errors.New("score update was not committed")

	ErrGameNotFound   = errors.New("set or game not found for match")
	ErrLedgerMismatch = errors.New("replayed ledger does not reproduce the recorded game")
)
