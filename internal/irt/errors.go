package irt

import "errors"

// Stable error kinds surfaced to callers. The HTTP layer maps these to
// structured responses; the batch ability endpoint embeds them per learner
// instead of aborting.
var (
	ErrNoResponses        = errors.New("no responses for learner")
	ErrUnknownItem        = errors.New("item not in calibrated bank")
	ErrNumericInstability = errors.New("ability estimation produced non-finite values")
	ErrEmptyExam          = errors.New("exam has no questions")
	ErrInvalidThreshold   = errors.New("passing threshold must be in (0, 1]")
)

// Kind returns the stable code for a known error, or "internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNoResponses):
		return "no_responses"
	case errors.Is(err, ErrUnknownItem):
		return "unknown_item"
	case errors.Is(err, ErrNumericInstability):
		return "numeric_instability"
	case errors.Is(err, ErrEmptyExam):
		return "empty_exam"
	case errors.Is(err, ErrInvalidThreshold):
		return "invalid_threshold"
	default:
		return "internal"
	}
}
