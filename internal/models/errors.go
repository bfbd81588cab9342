package models

import "errors"

var (
	ErrFundNotFound     = errors.New("fund not found")
	ErrOverrideNotFound = errors.New("manual price not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrInvalidPrice     = errors.New("price must be a positive number")
)
