package domain

import "errors"

var (
	ErrInvalidName  = errors.New("name contains a path separator")
	ErrEmptyName    = errors.New("name is empty")
	ErrUnknownToken = errors.New("unknown trash token")
)
