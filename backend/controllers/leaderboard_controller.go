package controllers

import (
	"octofit/backend/config"
	"octofit/backend/models"
	"octofit/backend/services"
	"octofit/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LeaderboardController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Service *services.LeaderboardService
}

func NewLeaderboardController(db *gorm.DB, cfg *config.Config, service *services.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{DB: db, Cfg: cfg, Service: service}
}

type LeaderboardRequest struct {
	EntityID        *uint             `json:"entity_id" validate:"required"`
	EntityType      models.EntityType `json:"entity_type" validate:"required,oneof=user team"`
	Name            string            `json:"name" validate:"required,max=100"`
	TotalPoints     int64             `json:"total_points"`
	TotalActivities int64             `json:"total_activities"`
	TotalCalories   int64             `json:"total_calories"`
	TotalDuration   int64             `json:"total_duration"`
	Rank            int               `json:"rank"`
}

type LeaderboardPatchRequest struct {
	EntityID        *uint              `json:"entity_id"`
	EntityType      *models.EntityType `json:"entity_type" validate:"omitempty,oneof=user team"`
	Name            *string            `json:"name" validate:"omitempty,min=1,max=100"`
	TotalPoints     *int64             `json:"total_points"`
	TotalActivities *int64             `json:"total_activities"`
	TotalCalories   *int64             `json:"total_calories"`
	TotalDuration   *int64             `json:"total_duration"`
	Rank            *int               `json:"rank"`
}

// RefreshResponse acknowledges a completed recompute.
type RefreshResponse struct {
	Message string `json:"message"`
	services.RefreshResult
}

// ListLeaderboard returns entries by rank. ?type=user|team keeps one kind.
func (lc *LeaderboardController) ListLeaderboard(c *fiber.Ctx) error {
	query := lc.DB.WithContext(c.UserContext()).Order("rank, entity_type, id")

	if kind := c.Query("type"); kind != "" {
		switch models.EntityType(kind) {
		case models.EntityUser, models.EntityTeam:
			query = query.Where("entity_type = ?", kind)
		default:
			return utils.ValidationError(c, utils.FieldErrors{"type": invalidChoice(kind)})
		}
	}

	var rows []models.Leaderboard
	if err := query.Find(&rows).Error; err != nil {
		return err
	}
	return utils.OK(c, rows)
}

// Refresh recomputes the whole table. A failed recompute answers 500 and the
// previous rankings stay in place.
func (lc *LeaderboardController) Refresh(c *fiber.Ctx) error {
	result, err := lc.Service.Refresh(c.UserContext())
	if err != nil {
		return err
	}
	return utils.OK(c, RefreshResponse{
		Message:       "Leaderboard refreshed successfully",
		RefreshResult: result,
	})
}

func (lc *LeaderboardController) CreateEntry(c *fiber.Ctx) error {
	var input LeaderboardRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	var entry models.Leaderboard
	input.apply(&entry)
	if err := lc.DB.WithContext(c.UserContext()).Create(&entry).Error; err != nil {
		return err
	}
	return utils.Created(c, entry)
}

func (lc *LeaderboardController) GetEntry(c *fiber.Ctx) error {
	var entry models.Leaderboard
	if ok, err := findOr404(c, lc.DB, &entry, "Leaderboard entry"); !ok {
		return err
	}
	return utils.OK(c, entry)
}

func (lc *LeaderboardController) ReplaceEntry(c *fiber.Ctx) error {
	var entry models.Leaderboard
	if ok, err := findOr404(c, lc.DB, &entry, "Leaderboard entry"); !ok {
		return err
	}

	var input LeaderboardRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	input.apply(&entry)
	if err := lc.DB.WithContext(c.UserContext()).Save(&entry).Error; err != nil {
		return err
	}
	return utils.OK(c, entry)
}

func (lc *LeaderboardController) UpdateEntry(c *fiber.Ctx) error {
	var entry models.Leaderboard
	if ok, err := findOr404(c, lc.DB, &entry, "Leaderboard entry"); !ok {
		return err
	}

	var input LeaderboardPatchRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	if input.EntityID != nil {
		entry.EntityID = *input.EntityID
	}
	if input.EntityType != nil {
		entry.EntityType = *input.EntityType
	}
	if input.Name != nil {
		entry.Name = *input.Name
	}
	if input.TotalPoints != nil {
		entry.TotalPoints = *input.TotalPoints
	}
	if input.TotalActivities != nil {
		entry.TotalActivities = *input.TotalActivities
	}
	if input.TotalCalories != nil {
		entry.TotalCalories = *input.TotalCalories
	}
	if input.TotalDuration != nil {
		entry.TotalDuration = *input.TotalDuration
	}
	if input.Rank != nil {
		entry.Rank = *input.Rank
	}

	if err := lc.DB.WithContext(c.UserContext()).Save(&entry).Error; err != nil {
		return err
	}
	return utils.OK(c, entry)
}

func (lc *LeaderboardController) DeleteEntry(c *fiber.Ctx) error {
	var entry models.Leaderboard
	if ok, err := findOr404(c, lc.DB, &entry, "Leaderboard entry"); !ok {
		return err
	}
	if err := lc.DB.WithContext(c.UserContext()).Delete(&entry).Error; err != nil {
		return err
	}
	return utils.NoContent(c)
}

func (r LeaderboardRequest) apply(entry *models.Leaderboard) {
	entry.EntityID = *r.EntityID
	entry.EntityType = r.EntityType
	entry.Name = r.Name
	entry.TotalPoints = r.TotalPoints
	entry.TotalActivities = r.TotalActivities
	entry.TotalCalories = r.TotalCalories
	entry.TotalDuration = r.TotalDuration
	entry.Rank = r.Rank
}
