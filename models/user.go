package models

import (
	"time"
)

const (
	RoleUser    = "user"
	RoleCreator = "creator"
	RoleAdmin   = "admin"
)

// User is keyed by email: the identity the auth gate verifies is the same
// identity every other table references.
type User struct {
	Email string `json:"email" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"not null"`
	Photo string `json:"photo"`
	Role  string `json:"role" gorm:"type:varchar(16);default:'user'"`

	// Aggregate statistics. Mutated only by participation recording and the
	// winner declaration workflow, never by profile edits.
	Wins              int     `json:"wins" gorm:"default:0"`
	ParticipatedCount int     `json:"participated_count" gorm:"default:0"`
	WinPercentage     float64 `json:"win_percentage" gorm:"default:0"`

	Bio     string `json:"bio"`
	Address string `json:"address"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleCreator || r == RoleAdmin
}

// LeaderboardRow is the projection returned by the public leaderboard query.
type LeaderboardRow struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Photo             string `json:"photo"`
	Wins              int    `json:"wins"`
	ParticipatedCount int    `json:"participated_count"`
}
