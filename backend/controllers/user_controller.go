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

const emailTaken = "user with this email already exists."

type UserController struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Serializer *services.Serializer
	Stats      *services.StatsService
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{
		DB:         db,
		Cfg:        cfg,
		Serializer: services.NewSerializer(db),
		Stats:      services.NewStatsService(db),
	}
}

type UserRequest struct {
	Email    string `json:"email" example:"tony@stark.io" validate:"required,email,max=254"`
	Username string `json:"username" example:"ironman" validate:"required,max=100"`
	Password string `json:"password" example:"jarvis123" validate:"required,max=128"`
	TeamID   *uint  `json:"team_id" example:"1"`
}

type UserPatchRequest struct {
	Email    *string        `json:"email" validate:"omitempty,email,max=254"`
	Username *string        `json:"username" validate:"omitempty,min=1,max=100"`
	Password *string        `json:"password" validate:"omitempty,min=1,max=128"`
	TeamID   Nullable[uint] `json:"team_id"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Router /users [get]
func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := uc.DB.WithContext(c.UserContext()).Order("id").Find(&users).Error; err != nil {
		return err
	}
	return utils.OK(c, users)
}

// CreateUser godoc
// @Summary Create a user
// @Description Email must be unique. The password is stored as a bcrypt hash and never returned.
// @Tags users
// @Accept json
// @Produce json
// @Param input body UserRequest true "User data"
// @Success 201 {object} models.User
// @Failure 400 {object} utils.ErrorResponse
// @Router /users [post]
func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	var input UserRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	taken, err := uc.emailInUse(c.UserContext(), input.Email, 0)
	if err != nil {
		return err
	}
	if taken {
		return utils.ValidationError(c, utils.FieldErrors{"email": {emailTaken}})
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Email:    input.Email,
		Username: input.Username,
		Password: hash,
		TeamID:   input.TeamID,
	}
	if err := uc.DB.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		if isDuplicate(err) {
			return utils.ValidationError(c, utils.FieldErrors{"email": {emailTaken}})
		}
		return err
	}

	return utils.Created(c, user)
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} utils.ErrorResponse
// @Router /users/{id} [get]
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	var user models.User
	if ok, err := findOr404(c, uc.DB, &user, "User"); !ok {
		return err
	}
	return utils.OK(c, user)
}

// ReplaceUser godoc
// @Summary Replace a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param input body UserRequest true "User data"
// @Success 200 {object} models.User
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /users/{id} [put]
func (uc *UserController) ReplaceUser(c *fiber.Ctx) error {
	var user models.User
	if ok, err := findOr404(c, uc.DB, &user, "User"); !ok {
		return err
	}

	var input UserRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return err
	}

	user.Email = input.Email
	user.Username = input.Username
	user.Password = hash
	user.TeamID = input.TeamID
	return uc.save(c, &user)
}

// UpdateUser godoc
// @Summary Partially update a user
// @Description Only the fields present in the body change. "team_id": null leaves the team.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param input body UserPatchRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /users/{id} [patch]
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	var user models.User
	if ok, err := findOr404(c, uc.DB, &user, "User"); !ok {
		return err
	}

	var input UserPatchRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Password != nil {
		hash, err := utils.HashPassword(*input.Password)
		if err != nil {
			return err
		}
		user.Password = hash
	}
	if input.TeamID.Set {
		user.TeamID = input.TeamID.Value
	}
	return uc.save(c, &user)
}

func (uc *UserController) save(c *fiber.Ctx, user *models.User) error {
	taken, err := uc.emailInUse(c.UserContext(), user.Email, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return utils.ValidationError(c, utils.FieldErrors{"email": {emailTaken}})
	}

	if err := uc.DB.WithContext(c.UserContext()).Save(user).Error; err != nil {
		if isDuplicate(err) {
			return utils.ValidationError(c, utils.FieldErrors{"email": {emailTaken}})
		}
		return err
	}
	return utils.OK(c, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Activities and leaderboard rows that reference the user are left in place.
// @Tags users
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /users/{id} [delete]
func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	var user models.User
	if ok, err := findOr404(c, uc.DB, &user, "User"); !ok {
		return err
	}
	if err := uc.DB.WithContext(c.UserContext()).Delete(&user).Error; err != nil {
		return err
	}
	return utils.NoContent(c)
}

// GetUserActivities godoc
// @Summary List a user's activities
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.ActivityResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /users/{id}/activities [get]
func (uc *UserController) GetUserActivities(c *fiber.Ctx) error {
	var user models.User
	if ok, err := findOr404(c, uc.DB, &user, "User"); !ok {
		return err
	}

	var activities []models.Activity
	if err := uc.DB.WithContext(c.UserContext()).
		Where("user_id = ?", user.ID).
		Order("date DESC, id").
		Find(&activities).Error; err != nil {
		return err
	}

	resp, err := uc.Serializer.Activities(c.UserContext(), activities)
	if err != nil {
		return err
	}
	return utils.OK(c, resp)
}

// GetUserStats godoc
// @Summary Live activity totals for a user
// @Description Computed from the activities table on every call. May differ from the leaderboard until the next refresh.
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.ActivityStats
// @Failure 404 {object} utils.ErrorResponse
// @Router /users/{id}/stats [get]
func (uc *UserController) GetUserStats(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return utils.NotFound(c, "User not found")
	}

	stats, err := uc.Stats.UserStats(c.UserContext(), id)
	if errors.Is(err, services.ErrNotFound) {
		return utils.NotFound(c, "User not found")
	}
	if err != nil {
		return err
	}
	return utils.OK(c, stats)
}

func (uc *UserController) emailInUse(ctx context.Context, email string, exceptID uint) (bool, error) {
	var n int64
	err := uc.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", email, exceptID).
		Count(&n).Error
	return n > 0, err
}
