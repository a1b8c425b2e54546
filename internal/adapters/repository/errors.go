package repository

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrTerminalOrder = errors.New("order is already delivered or cancelled")
)
