package domain

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateSKU = errors.New("SKU already exists")
	ErrInvalidInput = errors.New("invalid input")
)
