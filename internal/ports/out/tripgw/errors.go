package tripgw

import "errors"

var (
	ErrTripNotFound        = errors.New("trip not found")
	ErrDayNotFound         = errors.New("day not found")
	ErrDestinationNotFound = errors.New("destination not found")
	ErrBaseIndexOutOfRange = errors.New("base location index out of range")
	ErrAlreadyExists       = errors.New("record already exists")
)
