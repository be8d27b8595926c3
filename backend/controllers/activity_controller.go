package controllers

import (
	"strconv"
	"time"

	"octofit/backend/config"
	"octofit/backend/events"
	"octofit/backend/models"
	"octofit/backend/services"
	"octofit/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ActivityController struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Serializer *services.Serializer
	Publisher  events.Publisher
	Logger     *zap.Logger
}

func NewActivityController(db *gorm.DB, cfg *config.Config, publisher events.Publisher, logger *zap.Logger) *ActivityController {
	return &ActivityController{
		DB:         db,
		Cfg:        cfg,
		Serializer: services.NewSerializer(db),
		Publisher:  publisher,
		Logger:     logger,
	}
}

// Pointer fields let "required" tell a missing value from an explicit zero.
type ActivityRequest struct {
	UserID       *uint               `json:"user_id" validate:"required"`
	ActivityType models.ActivityType `json:"activity_type" validate:"required,oneof=running cycling swimming walking weightlifting yoga other"`
	Duration     *int                `json:"duration" validate:"required,gte=0"`
	Distance     *float64            `json:"distance" validate:"omitempty,gte=0"`
	Calories     *int                `json:"calories" validate:"required,gte=0"`
	Date         *time.Time          `json:"date" validate:"required"`
	Notes        string              `json:"notes"`
}

type ActivityPatchRequest struct {
	UserID       *uint                `json:"user_id"`
	ActivityType *models.ActivityType `json:"activity_type" validate:"omitempty,oneof=running cycling swimming walking weightlifting yoga other"`
	Duration     *int                 `json:"duration" validate:"omitempty,gte=0"`
	Distance     Nullable[float64]    `json:"distance"`
	Calories     *int                 `json:"calories" validate:"omitempty,gte=0"`
	Date         *time.Time           `json:"date"`
	Notes        *string              `json:"notes"`
}

// ListActivities returns every activity, newest first. ?user_id narrows the
// list to one user.
func (ac *ActivityController) ListActivities(c *fiber.Ctx) error {
	query := ac.DB.WithContext(c.UserContext()).Order("date DESC, id")

	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.ValidationError(c, utils.FieldErrors{"user_id": {"A valid integer is required."}})
		}
		query = query.Where("user_id = ?", userID)
	}

	var activities []models.Activity
	if err := query.Find(&activities).Error; err != nil {
		return err
	}

	resp, err := ac.Serializer.Activities(c.UserContext(), activities)
	if err != nil {
		return err
	}
	return utils.OK(c, resp)
}

func (ac *ActivityController) CreateActivity(c *fiber.Ctx) error {
	var input ActivityRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	activity := models.Activity{
		UserID:       *input.UserID,
		ActivityType: input.ActivityType,
		Duration:     *input.Duration,
		Distance:     input.Distance,
		Calories:     *input.Calories,
		Date:         *input.Date,
		Notes:        input.Notes,
	}
	if err := ac.DB.WithContext(c.UserContext()).Create(&activity).Error; err != nil {
		return err
	}

	resp, err := ac.Serializer.Activity(c.UserContext(), activity)
	if err != nil {
		return err
	}

	ac.publish(c, events.TypeActivityLogged, resp)
	return utils.Created(c, resp)
}

func (ac *ActivityController) GetActivity(c *fiber.Ctx) error {
	var activity models.Activity
	if ok, err := findOr404(c, ac.DB, &activity, "Activity"); !ok {
		return err
	}
	return ac.respond(c, activity)
}

func (ac *ActivityController) ReplaceActivity(c *fiber.Ctx) error {
	var activity models.Activity
	if ok, err := findOr404(c, ac.DB, &activity, "Activity"); !ok {
		return err
	}

	var input ActivityRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	activity.UserID = *input.UserID
	activity.ActivityType = input.ActivityType
	activity.Duration = *input.Duration
	activity.Distance = input.Distance
	activity.Calories = *input.Calories
	activity.Date = *input.Date
	activity.Notes = input.Notes

	if err := ac.DB.WithContext(c.UserContext()).Save(&activity).Error; err != nil {
		return err
	}
	return ac.respond(c, activity)
}

func (ac *ActivityController) UpdateActivity(c *fiber.Ctx) error {
	var activity models.Activity
	if ok, err := findOr404(c, ac.DB, &activity, "Activity"); !ok {
		return err
	}

	var input ActivityPatchRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}
	if input.Distance.Value != nil && *input.Distance.Value < 0 {
		return utils.ValidationError(c, utils.FieldErrors{"distance": {"Ensure this value is greater than or equal to 0."}})
	}

	if input.UserID != nil {
		activity.UserID = *input.UserID
	}
	if input.ActivityType != nil {
		activity.ActivityType = *input.ActivityType
	}
	if input.Duration != nil {
		activity.Duration = *input.Duration
	}
	if input.Distance.Set {
		activity.Distance = input.Distance.Value
	}
	if input.Calories != nil {
		activity.Calories = *input.Calories
	}
	if input.Date != nil {
		activity.Date = *input.Date
	}
	if input.Notes != nil {
		activity.Notes = *input.Notes
	}

	if err := ac.DB.WithContext(c.UserContext()).Save(&activity).Error; err != nil {
		return err
	}
	return ac.respond(c, activity)
}

func (ac *ActivityController) DeleteActivity(c *fiber.Ctx) error {
	var activity models.Activity
	if ok, err := findOr404(c, ac.DB, &activity, "Activity"); !ok {
		return err
	}
	if err := ac.DB.WithContext(c.UserContext()).Delete(&activity).Error; err != nil {
		return err
	}

	ac.publish(c, events.TypeActivityDeleted, fiber.Map{"id": activity.ID, "user_id": activity.UserID})
	return utils.NoContent(c)
}

func (ac *ActivityController) respond(c *fiber.Ctx, activity models.Activity) error {
	resp, err := ac.Serializer.Activity(c.UserContext(), activity)
	if err != nil {
		return err
	}
	return utils.OK(c, resp)
}

// publish never fails the request; the write has already been committed.
func (ac *ActivityController) publish(c *fiber.Ctx, eventType string, payload interface{}) {
	if err := ac.Publisher.Publish(c.UserContext(), events.New(eventType, payload)); err != nil {
		ac.Logger.Warn("failed to publish event",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
