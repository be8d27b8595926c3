package models

import "time"

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Workout is a static catalogue entry. ActivityType is free text here, unlike
// Activity.ActivityType.
type Workout struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Title            string     `gorm:"size:200;not null" json:"title"`
	Description      string     `gorm:"type:text;not null" json:"description"`
	ActivityType     string     `gorm:"size:50;not null;index:idx_workouts_type_difficulty,priority:1" json:"activity_type"`
	Difficulty       Difficulty `gorm:"size:20;not null;index:idx_workouts_type_difficulty,priority:2" json:"difficulty"`
	Duration         int        `gorm:"not null" json:"duration"`
	CaloriesEstimate int        `gorm:"not null" json:"calories_estimate"`
	Instructions     string     `gorm:"type:text;not null" json:"instructions"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Workout) TableName() string {
	return "workouts"
}

// All returns every model managed by the store, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Team{},
		&Activity{},
		&Leaderboard{},
		&Workout{},
	}
}
