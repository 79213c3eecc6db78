package model

import "time"

// Edit history actions.
const (
	ActionCreate              = "create"
	ActionUpdate              = "update"
	ActionDelete              = "delete"
	ActionMerge               = "merge"
	ActionSplit               = "split"
	ActionReassignTransaction = "reassign_transaction"
	ActionAddTransaction      = "add_transaction"
	ActionRemoveTransaction   = "remove_transaction"
)

// ReasonAutoIdentification is the reason recorded on system-created strategies.
const ReasonAutoIdentification = "System auto-identification"

// StrategyEditHistory is the append-only audit record behind undo/redo.
// Rows are written once inside the same unit of work as the change they
// describe and are never updated afterwards.
type StrategyEditHistory struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	StrategyID             uint           `gorm:"not null;index" json:"strategy_id"`
	UserID                 uint           `gorm:"not null;index" json:"user_id"`
	Action                 string         `gorm:"size:32;not null" json:"action"`
	PreviousState          map[string]any `gorm:"type:jsonb;serializer:json" json:"previous_state"`
	NewState               map[string]any `gorm:"type:jsonb;serializer:json" json:"new_state"`
	Reason                 string         `gorm:"size:512" json:"reason"`
	AffectedTransactionIDs []uint         `gorm:"type:jsonb;serializer:json" json:"affected_transaction_ids"`
	CreatedAt              time.Time      `json:"created_at"`
}
