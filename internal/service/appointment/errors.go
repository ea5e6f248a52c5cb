package appointment

import (
	"errors"
	"fmt"

	"github.com/caretap/caretap_backend/internal/store"
)

var (
	ErrNotFound = errors.New("appointment not found")

	// Booking validation, checked in this order.
	ErrUnknownDoctor      = errors.New("doctor not found")
	ErrPastDate           = errors.New("booking date is in the past")
	ErrInvalidSlot        = errors.New("time is not a clinic slot")
	ErrDailyLimitExceeded = errors.New("daily booking limit reached")

	// ErrNotAllowed is the generic denial for a caller acting on an
	// appointment that is not theirs. It deliberately carries no detail.
	ErrNotAllowed = errors.New("not allowed")

	ErrMissingMedicine = errors.New("prescription medicine is required")

	ErrNotCompleted   = errors.New("appointment is not completed")
	ErrFeedbackExists = errors.New("feedback already submitted")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
)

// ErrInvalidTransition matches every InvalidTransitionError via errors.Is.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError reports a rejected status change together with
// the record's actual state at the time of the attempt.
type InvalidTransitionError struct {
	Current   store.Status
	Attempted store.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.Current, e.Attempted)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
