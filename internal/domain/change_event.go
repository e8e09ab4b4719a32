package domain

import "time"

// ActorType identifies who performed a mutation.
type ActorType string

// ActorType values.
const (
	ActorTypeUser   ActorType = "user"
	ActorTypeAgent  ActorType = "agent"
	ActorTypeSystem ActorType = "system"
)

// DefaultActorID names the local interactive user.
const DefaultActorID = "hoshu-user"

// ChangeOperation describes a persisted activity operation for a record.
type ChangeOperation string

// ChangeOperation values used by the local activity ledger.
const (
	ChangeOperationCreate ChangeOperation = "create"
	ChangeOperationEdit   ChangeOperation = "edit"
	ChangeOperationPaste  ChangeOperation = "paste"
	ChangeOperationDelete ChangeOperation = "delete"
)

// ChangeEvent represents a single activity-log entry for a record.
type ChangeEvent struct {
	ID         int64
	RecordID   string
	Operation  ChangeOperation
	ActorID    string
	ActorType  ActorType
	Metadata   map[string]string
	OccurredAt time.Time
}
