package services

import (
	"context"
	"errors"
	"fmt"

	"octofit/backend/models"

	"gorm.io/gorm"
)

// Serializer resolves the read-only fields that need lookups against other
// tables. Nothing is cached between calls.
type Serializer struct {
	db *gorm.DB
}

func NewSerializer(db *gorm.DB) *Serializer {
	return &Serializer{db: db}
}

// MemberCount counts users whose team_id points at teamID.
func (s *Serializer) MemberCount(ctx context.Context, teamID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("team_id = ?", teamID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting members of team %d: %w", teamID, err)
	}
	return n, nil
}

func (s *Serializer) Team(ctx context.Context, team models.Team) (models.TeamResponse, error) {
	n, err := s.MemberCount(ctx, team.ID)
	if err != nil {
		return models.TeamResponse{}, err
	}
	return models.TeamResponse{Team: team, MemberCount: n}, nil
}

func (s *Serializer) Teams(ctx context.Context, teams []models.Team) ([]models.TeamResponse, error) {
	out := make([]models.TeamResponse, 0, len(teams))
	for _, t := range teams {
		r, err := s.Team(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// UserName returns the username for id, or nil when no such user exists.
func (s *Serializer) UserName(ctx context.Context, id uint) (*string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "username").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user %d: %w", id, err)
	}
	return &user.Username, nil
}

func (s *Serializer) Activity(ctx context.Context, a models.Activity) (models.ActivityResponse, error) {
	name, err := s.UserName(ctx, a.UserID)
	if err != nil {
		return models.ActivityResponse{}, err
	}
	return models.ActivityResponse{Activity: a, UserName: name}, nil
}

// Activities serializes a list, looking each distinct user up once.
func (s *Serializer) Activities(ctx context.Context, activities []models.Activity) ([]models.ActivityResponse, error) {
	names := make(map[uint]*string)
	out := make([]models.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		name, seen := names[a.UserID]
		if !seen {
			var err error
			if name, err = s.UserName(ctx, a.UserID); err != nil {
				return nil, err
			}
			names[a.UserID] = name
		}
		out = append(out, models.ActivityResponse{Activity: a, UserName: name})
	}
	return out, nil
}
