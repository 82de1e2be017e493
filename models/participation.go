package models

import (
	"time"
)

// Participation records that a user entered a contest after payment was
// confirmed upstream. One row per (contest, participant); the composite
// unique index backs up the application-level duplicate check.
type Participation struct {
	ID               string `json:"id" gorm:"primaryKey"`
	ContestID        string `json:"contest_id" gorm:"not null;index;uniqueIndex:idx_contest_participant"`
	ParticipantEmail string `json:"participant_email" gorm:"not null;index;uniqueIndex:idx_contest_participant"`

	// Payment metadata as confirmed by the upstream gateway.
	PaidAmount    float64   `json:"paid_amount" gorm:"default:0"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Submission is work delivered for a contest the participant already entered.
// Never updated after insert.
type Submission struct {
	ID               string `json:"id" gorm:"primaryKey"`
	ContestID        string `json:"contest_id" gorm:"not null;index"`
	ParticipantEmail string `json:"participant_email" gorm:"not null;index"`
	// Snapshot of the user's name at submission time.
	ParticipantName string `json:"participant_name"`

	TaskLink  string    `json:"task_link"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
