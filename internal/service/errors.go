package service

import (
	"errors"
	"fmt"
)

// Классы ошибок. Конкретные ошибки оборачивают один из них, проверять через errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrInvalidID        = fmt.Errorf("%w: id is required", ErrValidation)
	ErrSameSlot         = fmt.Errorf("%w: offered and requested slots must be different", ErrValidation)
	ErrOwnSlotRequested = fmt.Errorf("%w: cannot request your own slot", ErrValidation)
	ErrEmptyTitle       = fmt.Errorf("%w: title is required", ErrValidation)
	ErrInvalidTimeRange = fmt.Errorf("%w: start time must be before end time", ErrValidation)
	ErrInvalidStatus    = fmt.Errorf("%w: status must be BUSY or SWAPPABLE", ErrValidation)
)

var (
	ErrUserNotFound        = fmt.Errorf("%w: user", ErrNotFound)
	ErrSlotNotFound        = fmt.Errorf("%w: slot", ErrNotFound)
	ErrSwapRequestNotFound = fmt.Errorf("%w: swap request", ErrNotFound)
)

var (
	ErrNotSlotOwner   = fmt.Errorf("%w: you do not own this slot", ErrForbidden)
	ErrNotCounterpart = fmt.Errorf("%w: only the counterpart may respond", ErrForbidden)
	ErrNotParticipant = fmt.Errorf("%w: not a participant of this swap", ErrForbidden)
)

var (
	ErrSlotNotSwappable = fmt.Errorf("%w: both slots must be SWAPPABLE", ErrConflict)
	ErrSwapNotPending   = fmt.Errorf("%w: swap request is not pending", ErrConflict)
	ErrSlotStateChanged = fmt.Errorf("%w: slots are no longer pending this swap", ErrConflict)
	ErrSlotLocked       = fmt.Errorf("%w: slot is part of a pending swap", ErrConflict)
	ErrConcurrentUpdate = fmt.Errorf("%w: concurrent update, try again", ErrConflict)
)
