package collateral

import "errors"

var (
	ErrPropertyNotFound = errors.New("guarantor property not found")
	ErrPledgeNotFound   = errors.New("pledge not found")
	ErrPropertyBlocked  = errors.New("guarantor property is blocked")
	ErrMarginExceeded   = errors.New("pledge amount exceeds available margin")
	ErrDuplicatePledge  = errors.New("contract already has an active pledge")
	ErrInvalidAmount    = errors.New("pledge amount must be positive")
)
