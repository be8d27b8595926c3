package models

import "time"

type EntityType string

const (
	EntityUser EntityType = "user"
	EntityTeam EntityType = "team"
)

// Leaderboard rows are fully derived: a refresh replaces the whole table.
// Name is a snapshot taken at refresh time and is not kept in sync.
type Leaderboard struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	EntityID        uint       `gorm:"not null" json:"entity_id"`
	EntityType      EntityType `gorm:"size:10;not null;index:idx_leaderboard_type_rank,priority:1" json:"entity_type"`
	Name            string     `gorm:"size:100;not null" json:"name"`
	TotalPoints     int64      `gorm:"not null;default:0" json:"total_points"`
	TotalActivities int64      `gorm:"not null;default:0" json:"total_activities"`
	TotalCalories   int64      `gorm:"not null;default:0" json:"total_calories"`
	TotalDuration   int64      `gorm:"not null;default:0" json:"total_duration"`
	Rank            int        `gorm:"not null;default:0;index:idx_leaderboard_type_rank,priority:2" json:"rank"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Leaderboard) TableName() string {
	return "leaderboard"
}
