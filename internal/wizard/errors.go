package wizard

import "errors"

var (
	ErrUnknownWall       = errors.New("unknown wall slot")
	ErrUnknownField      = errors.New("unknown preference field")
	ErrInvalidValue      = errors.New("invalid preference value")
	ErrNotAtReview       = errors.New("submit is only available on the review step")
	ErrSubmissionPending = errors.New("a design plan request is already in progress")
	ErrPlanGeneration    = errors.New("failed to generate design plan, please try again")
	ErrComplete          = errors.New("wizard already completed")
)
