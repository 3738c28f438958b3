package models

import "errors"

// Domain errors reported to callers
var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateKey         = errors.New("duplicate key violation")
	ErrInvalidPickSet       = errors.New("bet requires 3 distinct competitors across 3 distinct positions")
	ErrCompetitorIneligible = errors.New("competitor does not meet the eligibility thresholds")
	ErrCompetitorNotFound   = errors.New("competitor not found in rating store")
	ErrWeekNotOpen          = errors.New("betting week is not open for placement")
	ErrWeekNotFinalized     = errors.New("betting week is not finalized")
	ErrDuplicateBet         = errors.New("a non-cancelled bet already exists for this week")
	ErrBoostAlreadyUsed     = errors.New("boost token already used this month")
	ErrVersionConflict      = errors.New("concurrent modification detected")
	ErrAlreadySettled       = errors.New("week already finalized by a concurrent trigger")
)
