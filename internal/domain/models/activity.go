package models

import "time"

// Action is the kind of mutation recorded in the activity log.
type Action string

const (
	ActionAdd    Action = "add"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

func (a Action) String() string {
	return string(a)
}

// ActivityLog is one immutable entry of the audit ledger. Entries are
// written once per mutating operation and never updated or deleted;
// they survive deletion of the item and of the user they name.
type ActivityLog struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Action     Action    `json:"action"`
	LiquorName string    `json:"liquor_name"`
	Timestamp  time.Time `json:"timestamp"`
}
