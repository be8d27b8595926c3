package controllers

import (
	"errors"

	"octofit/backend/config"
	"octofit/backend/models"
	"octofit/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAuthController(db *gorm.DB, cfg *config.Config) *AuthController {
	return &AuthController{DB: db, Cfg: cfg}
}

type LoginRequest struct {
	Email    string `json:"email" example:"tony@stark.io" validate:"required,email"`
	Password string `json:"password" example:"jarvis123" validate:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login godoc
// @Summary User login
// @Description Authenticate with email and password and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	if ac.Cfg.JWTSecret == "" {
		return utils.Error(c, fiber.StatusServiceUnavailable, fiber.NewError(fiber.StatusServiceUnavailable, "Authentication is not configured"))
	}

	var input LoginRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	var user models.User
	err := ac.DB.WithContext(c.UserContext()).Where("email = ?", input.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Unauthorized(c, "Invalid credentials")
	}
	if err != nil {
		return err
	}

	if !utils.CheckPassword(user.Password, input.Password) {
		return utils.Unauthorized(c, "Invalid credentials")
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return err
	}
	return utils.OK(c, LoginResponse{Token: token, User: user})
}

// Me godoc
// @Summary Current user
// @Description Returns the user the bearer token was issued to
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	err = ac.DB.WithContext(c.UserContext()).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Unauthorized(c, "Unauthorized")
	}
	if err != nil {
		return err
	}
	return utils.OK(c, user)
}
