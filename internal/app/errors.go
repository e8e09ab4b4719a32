package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound      = errors.New("not found")
	ErrReadOnly      = errors.New("grid is read-only")
	ErrNotEditable   = errors.New("cell is not editable")
	ErrUnknownColumn = errors.New("unknown column")
	ErrPasteBlocked  = errors.New("paste blocked by validation errors")
	ErrInvalidRange  = errors.New("invalid range")
	ErrHasChildren   = errors.New("record has children")
)
