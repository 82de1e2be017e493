package models

import (
	"time"
)

const (
	ContestStatusPending   = "pending"
	ContestStatusConfirmed = "confirmed"
	ContestStatusRejected  = "rejected"
	ContestStatusClosed    = "closed"
)

// Contest is owned by its creator. Status moves pending -> confirmed/rejected
// (admin) and confirmed -> closed (winner declaration, one-way). Edits and
// deletes are only possible while pending.
type Contest struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Slug        string `json:"slug" gorm:"index"`
	Name        string `json:"name" gorm:"not null"`
	Image       string `json:"image"`
	Description string `json:"description" gorm:"type:text"`
	// Instructions tell participants what to deliver.
	Instructions string  `json:"instructions" gorm:"type:text"`
	Type         string  `json:"type" gorm:"index"` // category tag
	PrizeMoney   float64 `json:"prize_money" gorm:"default:0"`
	EntryFee     float64 `json:"entry_fee" gorm:"default:0"`

	CreatorEmail string    `json:"creator_email" gorm:"not null;index"`
	Status       string    `json:"status" gorm:"type:varchar(16);default:'pending';index"`
	Deadline     time.Time `json:"deadline" gorm:"not null"`

	// Denormalized; kept in step with the participations table inside the
	// recording transaction and repaired by the reconciliation worker.
	ParticipantsCount int `json:"participants_count" gorm:"default:0"`

	// Winner snapshot, set at most once, only together with status=closed.
	// A NULL winner_email means no winner has been declared.
	WinnerEmail      *string  `json:"winner_email,omitempty"`
	WinnerName       *string  `json:"winner_name,omitempty"`
	WinnerPhoto      *string  `json:"winner_photo,omitempty"`
	WinnerPrizeMoney *float64 `json:"winner_prize_money,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Declared reports whether a winner has been assigned.
func (c *Contest) Declared() bool {
	return c.WinnerEmail != nil
}

// ValidReviewStatus reports whether s is a status an admin review may assign.
// Pending is the starting state and closed is reserved for winner declaration.
func ValidReviewStatus(s string) bool {
	return s == ContestStatusConfirmed || s == ContestStatusRejected
}
