package services

import "errors"

// Failure kinds the workflows report. Handlers map these onto HTTP statuses;
// anything else coming back from a workflow is a store failure.
var (
	ErrContestNotFound    = errors.New("contest not found")
	ErrWinnerNotFound     = errors.New("winner is not a registered user")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotOwner           = errors.New("only the owning creator may do this")
	ErrContestNotOpen     = errors.New("contest is not open for entry")
	ErrDeadlineNotPassed  = errors.New("contest deadline has not passed")
	ErrAlreadyDeclared    = errors.New("winner already declared")
	ErrAlreadyParticipant = errors.New("already entered this contest")
	ErrNotRegistered      = errors.New("no participation recorded for this contest")
)
