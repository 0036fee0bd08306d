package repo

import "errors"

var (
	// ErrNotFound — work request с таким ID нет.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — нарушено ограничение уникальности (SQLSTATE 23505).
	ErrAlreadyExists = errors.New("already exists")
)
