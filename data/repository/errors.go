package repository

import "errors"

var (
	ErrAlreadyExists = errors.New("error history record already exists")
	ErrNotFound      = errors.New("error holdings not found")
	// ErrInvalidData is wrapped around row-level parse failures.
	ErrInvalidData = errors.New("error invalid holdings data")
)
