package cogs

import (
	"errors"
	"fmt"
)

var (
	// ErrBelowConfidence reports that a What step found its best match but
	// the match scored under the step's minimum. Polling retries on it;
	// everywhere else it aborts the enclosing pipe.
	ErrBelowConfidence = errors.New("match below confidence")

	// ErrPollExhausted reports that a polling Locate ran out of attempts or
	// time without a match.
	ErrPollExhausted = errors.New("poll exhausted")

	ErrUnknownLabel = errors.New("unknown descriptor label")
	ErrUnknownZone  = errors.New("unknown zone")
	ErrMapIndex     = errors.New("visual map index out of range")
	ErrNoMap        = errors.New("no visual map in scope")
	ErrNoPercept    = errors.New("input is not a percept")
	ErrNoSource     = errors.New("no image source configured")
	ErrNoEffector   = errors.New("no effector configured")
	ErrNoPlanes     = errors.New("no plane cache configured")
)

// ConfidenceError carries the score of a rejected match.
type ConfidenceError struct {
	Confidence float64
	Min        float64
}

func (e *ConfidenceError) Error() string {
	return fmt.Sprintf("match below confidence: %.4f < %.4f", e.Confidence, e.Min)
}

// Is lets errors.Is(err, ErrBelowConfidence) match.
func (e *ConfidenceError) Is(target error) bool {
	return target == ErrBelowConfidence
}
