package models

import "time"

type ActivityType string

const (
	ActivityRunning       ActivityType = "running"
	ActivityCycling       ActivityType = "cycling"
	ActivitySwimming      ActivityType = "swimming"
	ActivityWalking       ActivityType = "walking"
	ActivityWeightlifting ActivityType = "weightlifting"
	ActivityYoga          ActivityType = "yoga"
	ActivityOther         ActivityType = "other"
)

// ActivityTypes lists every accepted activity type, in display order.
var ActivityTypes = []ActivityType{
	ActivityRunning,
	ActivityCycling,
	ActivitySwimming,
	ActivityWalking,
	ActivityWeightlifting,
	ActivityYoga,
	ActivityOther,
}

type Activity struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"not null;index:idx_activities_user_date,priority:1" json:"user_id"` // loose reference
	ActivityType ActivityType `gorm:"size:50;not null" json:"activity_type"`
	Duration     int          `gorm:"not null" json:"duration"` // minutes
	Distance     *float64     `json:"distance"`                 // kilometers
	Calories     int          `gorm:"not null" json:"calories"`
	Date         time.Time    `gorm:"not null;index:idx_activities_user_date,priority:2" json:"date"`
	Notes        string       `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Activity) TableName() string {
	return "activities"
}

// ActivityResponse adds the owning user's display name. UserName is nil when
// the referenced user does not exist.
type ActivityResponse struct {
	Activity
	UserName *string `json:"user_name"`
}

// ActivityStats are the live aggregates over a set of activities.
type ActivityStats struct {
	TotalActivities int64    `json:"total_activities"`
	TotalDuration   int64    `json:"total_duration"`
	TotalCalories   int64    `json:"total_calories"`
	TotalDistance   *float64 `json:"total_distance"`
}

type TeamStats struct {
	ActivityStats
	MemberCount int64 `json:"member_count"`
}
