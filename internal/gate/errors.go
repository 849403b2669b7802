package gate

import "errors"

var (
	// ErrNotFound is returned when the referenced gate or project is missing.
	ErrNotFound = errors.New("gate not found")
	// ErrForbidden is returned when the caller is not the project owner.
	ErrForbidden = errors.New("forbidden: not the project owner")
	// ErrPreviousGateNotApproved is returned when a caller tries to approve
	// a gate whose predecessor has not been approved, including attempts
	// that reference the gate directly by ID.
	ErrPreviousGateNotApproved = errors.New("previous gate not approved")
	// ErrInvalidApproval is returned when the review notes do not contain
	// an explicit approval utterance.
	ErrInvalidApproval = errors.New("invalid approval: notes must contain an explicit approval keyword")
	// ErrAlreadyApproved is returned when the gate is already in its
	// terminal state.
	ErrAlreadyApproved = errors.New("gate already approved")
)
