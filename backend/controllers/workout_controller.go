package controllers

import (
	"octofit/backend/config"
	"octofit/backend/models"
	"octofit/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const suggestLimit = 5

type WorkoutController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewWorkoutController(db *gorm.DB, cfg *config.Config) *WorkoutController {
	return &WorkoutController{DB: db, Cfg: cfg}
}

type WorkoutRequest struct {
	Title            string            `json:"title" validate:"required,max=200"`
	Description      string            `json:"description" validate:"required"`
	ActivityType     string            `json:"activity_type" validate:"required,max=50"`
	Difficulty       models.Difficulty `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
	Duration         *int              `json:"duration" validate:"required"`
	CaloriesEstimate *int              `json:"calories_estimate" validate:"required"`
	Instructions     string            `json:"instructions" validate:"required"`
}

type WorkoutPatchRequest struct {
	Title            *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Description      *string            `json:"description" validate:"omitempty,min=1"`
	ActivityType     *string            `json:"activity_type" validate:"omitempty,min=1,max=50"`
	Difficulty       *models.Difficulty `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Duration         *int               `json:"duration"`
	CaloriesEstimate *int               `json:"calories_estimate"`
	Instructions     *string            `json:"instructions" validate:"omitempty,min=1"`
}

func validDifficulty(d string) bool {
	switch models.Difficulty(d) {
	case models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced:
		return true
	}
	return false
}

func invalidChoice(value string) []string {
	return []string{`"` + value + `" is not a valid choice.`}
}

// ListWorkouts filters on ?difficulty and ?activity_type when given.
func (wc *WorkoutController) ListWorkouts(c *fiber.Ctx) error {
	query := wc.DB.WithContext(c.UserContext()).Order("id")

	if difficulty := c.Query("difficulty"); difficulty != "" {
		if !validDifficulty(difficulty) {
			return utils.ValidationError(c, utils.FieldErrors{"difficulty": invalidChoice(difficulty)})
		}
		query = query.Where("difficulty = ?", difficulty)
	}
	if activityType := c.Query("activity_type"); activityType != "" {
		query = query.Where("activity_type = ?", activityType)
	}

	var workouts []models.Workout
	if err := query.Find(&workouts).Error; err != nil {
		return err
	}
	return utils.OK(c, workouts)
}

// SuggestWorkouts returns up to five workouts of the requested difficulty,
// beginner when none is given.
func (wc *WorkoutController) SuggestWorkouts(c *fiber.Ctx) error {
	difficulty := c.Query("difficulty", string(models.DifficultyBeginner))
	if !validDifficulty(difficulty) {
		return utils.ValidationError(c, utils.FieldErrors{"difficulty": invalidChoice(difficulty)})
	}

	var workouts []models.Workout
	if err := wc.DB.WithContext(c.UserContext()).
		Where("difficulty = ?", difficulty).
		Order("id").
		Limit(suggestLimit).
		Find(&workouts).Error; err != nil {
		return err
	}
	return utils.OK(c, workouts)
}

func (wc *WorkoutController) CreateWorkout(c *fiber.Ctx) error {
	var input WorkoutRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	var workout models.Workout
	input.apply(&workout)
	if err := wc.DB.WithContext(c.UserContext()).Create(&workout).Error; err != nil {
		return err
	}
	return utils.Created(c, workout)
}

func (wc *WorkoutController) GetWorkout(c *fiber.Ctx) error {
	var workout models.Workout
	if ok, err := findOr404(c, wc.DB, &workout, "Workout"); !ok {
		return err
	}
	return utils.OK(c, workout)
}

func (wc *WorkoutController) ReplaceWorkout(c *fiber.Ctx) error {
	var workout models.Workout
	if ok, err := findOr404(c, wc.DB, &workout, "Workout"); !ok {
		return err
	}

	var input WorkoutRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	input.apply(&workout)
	if err := wc.DB.WithContext(c.UserContext()).Save(&workout).Error; err != nil {
		return err
	}
	return utils.OK(c, workout)
}

func (wc *WorkoutController) UpdateWorkout(c *fiber.Ctx) error {
	var workout models.Workout
	if ok, err := findOr404(c, wc.DB, &workout, "Workout"); !ok {
		return err
	}

	var input WorkoutPatchRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	if input.Title != nil {
		workout.Title = *input.Title
	}
	if input.Description != nil {
		workout.Description = *input.Description
	}
	if input.ActivityType != nil {
		workout.ActivityType = *input.ActivityType
	}
	if input.Difficulty != nil {
		workout.Difficulty = *input.Difficulty
	}
	if input.Duration != nil {
		workout.Duration = *input.Duration
	}
	if input.CaloriesEstimate != nil {
		workout.CaloriesEstimate = *input.CaloriesEstimate
	}
	if input.Instructions != nil {
		workout.Instructions = *input.Instructions
	}

	if err := wc.DB.WithContext(c.UserContext()).Save(&workout).Error; err != nil {
		return err
	}
	return utils.OK(c, workout)
}

func (wc *WorkoutController) DeleteWorkout(c *fiber.Ctx) error {
	var workout models.Workout
	if ok, err := findOr404(c, wc.DB, &workout, "Workout"); !ok {
		return err
	}
	if err := wc.DB.WithContext(c.UserContext()).Delete(&workout).Error; err != nil {
		return err
	}
	return utils.NoContent(c)
}

func (r WorkoutRequest) apply(w *models.Workout) {
	w.Title = r.Title
	w.Description = r.Description
	w.ActivityType = r.ActivityType
	w.Difficulty = r.Difficulty
	w.Duration = *r.Duration
	w.CaloriesEstimate = *r.CaloriesEstimate
	w.Instructions = r.Instructions
}
