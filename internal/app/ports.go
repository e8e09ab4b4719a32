package app

import (
	"context"

	"github.com/hylla/hoshu/internal/domain"
)

// Repository is the record store consumed by Service. SaveRecords patches the
// given records; ReplaceRecords makes the stored set equal to records.
type Repository interface {
	ListRecords(context.Context) ([]domain.Record, error)
	GetRecord(context.Context, string) (domain.Record, error)
	CreateRecord(context.Context, domain.Record) error
	UpdateRecord(context.Context, domain.Record, domain.ChangeOperation) error
	SaveRecords(context.Context, []domain.Record, domain.ChangeOperation) error
	ReplaceRecords(context.Context, []domain.Record, domain.ChangeOperation) error
	DeleteRecord(context.Context, string) error
	ListChangeEvents(context.Context, int) ([]domain.ChangeEvent, error)
}
