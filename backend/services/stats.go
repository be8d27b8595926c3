package services

import (
	"context"
	"errors"
	"fmt"

	"octofit/backend/models"

	"gorm.io/gorm"
)

// StatsService computes live aggregates straight from the activities table.
// Results can disagree with the leaderboard until the next refresh.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) UserStats(ctx context.Context, userID uint) (models.ActivityStats, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.User{}, userID); err != nil {
		return models.ActivityStats{}, err
	}
	return aggregate(db.Model(&models.Activity{}).Where("user_id = ?", userID))
}

func (s *StatsService) TeamStats(ctx context.Context, teamID uint) (models.TeamStats, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.Team{}, teamID); err != nil {
		return models.TeamStats{}, err
	}

	members := db.Model(&models.User{}).Select("id").Where("team_id = ?", teamID)
	stats, err := aggregate(db.Model(&models.Activity{}).Where("user_id IN (?)", members))
	if err != nil {
		return models.TeamStats{}, err
	}

	var n int64
	if err := db.Model(&models.User{}).Where("team_id = ?", teamID).Count(&n).Error; err != nil {
		return models.TeamStats{}, fmt.Errorf("counting members of team %d: %w", teamID, err)
	}
	return models.TeamStats{ActivityStats: stats, MemberCount: n}, nil
}

func exists(db *gorm.DB, model interface{}, id uint) error {
	err := db.Select("id").First(model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// aggregate sums over the activities matched by q. Sums of an empty set are
// zero, except distance which stays nil unless some activity recorded one.
func aggregate(q *gorm.DB) (models.ActivityStats, error) {
	var row struct {
		TotalActivities int64
		TotalDuration   int64
		TotalCalories   int64
		TotalDistance   *float64
	}
	err := q.Select(
		"COUNT(id) AS total_activities, " +
			"COALESCE(SUM(duration), 0) AS total_duration, " +
			"COALESCE(SUM(calories), 0) AS total_calories, " +
			"SUM(distance) AS total_distance",
	).Scan(&row).Error
	if err != nil {
		return models.ActivityStats{}, fmt.Errorf("aggregating activities: %w", err)
	}
	return models.ActivityStats{
		TotalActivities: row.TotalActivities,
		TotalDuration:   row.TotalDuration,
		TotalCalories:   row.TotalCalories,
		TotalDistance:   row.TotalDistance,
	}, nil
}
