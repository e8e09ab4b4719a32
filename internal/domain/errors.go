package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidCode       = errors.New("invalid code")
	ErrInvalidCycle      = errors.New("invalid cycle")
	ErrInvalidPosition   = errors.New("invalid position")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidSpecKey    = errors.New("invalid specification key")
	ErrInvalidPeriodKey  = errors.New("invalid period key")
	ErrInvalidCost       = errors.New("invalid cost")
	ErrInvalidColumnID   = errors.New("invalid column id")
	ErrInvalidColumnType = errors.New("invalid column type")
	ErrInvalidWidth      = errors.New("invalid column width")
	ErrParentCycle       = errors.New("parent cycle")
)
