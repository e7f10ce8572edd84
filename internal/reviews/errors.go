package reviews

import "errors"

var (
	// ErrNotFound is returned when no review matches the id.
	ErrNotFound = errors.New("review not found")

	// ErrForbidden is returned when the actor may not modify the review.
	ErrForbidden = errors.New("not allowed to modify this review")

	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)
