package controllers

import (
	"context"
	"errors"

	"octofit/backend/config"
	"octofit/backend/models"
	"octofit/backend/services"
	"octofit/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const teamNameTaken = "team with this name already exists."

type TeamController struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Serializer *services.Serializer
	Stats      *services.StatsService
}

func NewTeamController(db *gorm.DB, cfg *config.Config) *TeamController {
	return &TeamController{
		DB:         db,
		Cfg:        cfg,
		Serializer: services.NewSerializer(db),
		Stats:      services.NewStatsService(db),
	}
}

type TeamRequest struct {
	Name        string `json:"name" example:"Team Marvel" validate:"required,max=100"`
	Description string `json:"description" example:"Earth's mightiest"`
}

type TeamPatchRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
}

func (tc *TeamController) ListTeams(c *fiber.Ctx) error {
	var teams []models.Team
	if err := tc.DB.WithContext(c.UserContext()).Order("id").Find(&teams).Error; err != nil {
		return err
	}
	resp, err := tc.Serializer.Teams(c.UserContext(), teams)
	if err != nil {
		return err
	}
	return utils.OK(c, resp)
}

func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	var input TeamRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	team := models.Team{Name: input.Name, Description: input.Description}
	return tc.save(c, &team, fiber.StatusCreated)
}

func (tc *TeamController) GetTeam(c *fiber.Ctx) error {
	var team models.Team
	if ok, err := findOr404(c, tc.DB, &team, "Team"); !ok {
		return err
	}
	resp, err := tc.Serializer.Team(c.UserContext(), team)
	if err != nil {
		return err
	}
	return utils.OK(c, resp)
}

func (tc *TeamController) ReplaceTeam(c *fiber.Ctx) error {
	var team models.Team
	if ok, err := findOr404(c, tc.DB, &team, "Team"); !ok {
		return err
	}

	var input TeamRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	team.Name = input.Name
	team.Description = input.Description
	return tc.save(c, &team, fiber.StatusOK)
}

func (tc *TeamController) UpdateTeam(c *fiber.Ctx) error {
	var team models.Team
	if ok, err := findOr404(c, tc.DB, &team, "Team"); !ok {
		return err
	}

	var input TeamPatchRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	if input.Name != nil {
		team.Name = *input.Name
	}
	if input.Description != nil {
		team.Description = *input.Description
	}
	return tc.save(c, &team, fiber.StatusOK)
}

// save enforces the unique name up front, and again through the index for
// writes that race past the check.
func (tc *TeamController) save(c *fiber.Ctx, team *models.Team, status int) error {
	taken, err := tc.nameInUse(c.UserContext(), team.Name, team.ID)
	if err != nil {
		return err
	}
	if taken {
		return utils.ValidationError(c, utils.FieldErrors{"name": {teamNameTaken}})
	}

	if err := tc.DB.WithContext(c.UserContext()).Save(team).Error; err != nil {
		if isDuplicate(err) {
			return utils.ValidationError(c, utils.FieldErrors{"name": {teamNameTaken}})
		}
		return err
	}

	resp, err := tc.Serializer.Team(c.UserContext(), *team)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(resp)
}

// DeleteTeam leaves members pointing at the deleted id; they simply stop
// counting towards any team.
func (tc *TeamController) DeleteTeam(c *fiber.Ctx) error {
	var team models.Team
	if ok, err := findOr404(c, tc.DB, &team, "Team"); !ok {
		return err
	}
	if err := tc.DB.WithContext(c.UserContext()).Delete(&team).Error; err != nil {
		return err
	}
	return utils.NoContent(c)
}

func (tc *TeamController) GetTeamMembers(c *fiber.Ctx) error {
	var team models.Team
	if ok, err := findOr404(c, tc.DB, &team, "Team"); !ok {
		return err
	}

	var users []models.User
	if err := tc.DB.WithContext(c.UserContext()).Where("team_id = ?", team.ID).Order("id").Find(&users).Error; err != nil {
		return err
	}
	return utils.OK(c, users)
}

func (tc *TeamController) GetTeamStats(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return utils.NotFound(c, "Team not found")
	}

	stats, err := tc.Stats.TeamStats(c.UserContext(), id)
	if errors.Is(err, services.ErrNotFound) {
		return utils.NotFound(c, "Team not found")
	}
	if err != nil {
		return err
	}
	return utils.OK(c, stats)
}

func (tc *TeamController) nameInUse(ctx context.Context, name string, exceptID uint) (bool, error) {
	var n int64
	err := tc.DB.WithContext(ctx).Model(&models.Team{}).
		Where("name = ? AND id <> ?", name, exceptID).
		Count(&n).Error
	return n > 0, err
}
