package routes

import (
	"errors"
	"time"

	"octofit/backend/config"
	"octofit/backend/controllers"
	"octofit/backend/events"
	"octofit/backend/metrics"
	"octofit/backend/middleware"
	"octofit/backend/services"
	"octofit/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the long-lived objects the HTTP layer needs.
type Dependencies struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Logger      *zap.Logger
	Leaderboard *services.LeaderboardService
	Publisher   events.Publisher
}

// NewApp builds the Fiber app with middleware, operational endpoints and the
// API routes.
func NewApp(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "octofit",
		ErrorHandler: errorHandler(deps.Logger),
	})

	app.Use(middleware.LoggingMiddleware(deps.Logger))
	app.Use(recover.New(recover.Config{EnableStackTrace: !deps.Cfg.IsProd()}))
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.Cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	if deps.Cfg.RateLimitRPM > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        deps.Cfg.RateLimitRPM,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/healthz" || c.Path() == "/metrics"
			},
		}))
	}
	app.Use(middleware.MetricsMiddleware())

	app.Get("/healthz", controllers.Health(deps.DB))
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	SetupRoutes(app, deps)
	return app
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	db, cfg := deps.DB, deps.Cfg
	api := app.Group("/api")
	api.Get("/", controllers.APIRoot)

	// Writes are guarded only when AUTH_REQUIRED is set.
	auth := middleware.AuthMiddleware(cfg)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	api.Post("/auth/login", authController.Login)
	api.Get("/auth/me", authController.Me)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	users := api.Group("/users")
	users.Get("/", userController.ListUsers)
	users.Post("/", userController.CreateUser)
	users.Get("/:id", userController.GetUser)
	users.Put("/:id", auth, userController.ReplaceUser)
	users.Patch("/:id", auth, userController.UpdateUser)
	users.Delete("/:id", auth, userController.DeleteUser)
	users.Get("/:id/activities", userController.GetUserActivities)
	users.Get("/:id/stats", userController.GetUserStats)

	// Team routes
	teamController := controllers.NewTeamController(db, cfg)
	teams := api.Group("/teams")
	teams.Get("/", teamController.ListTeams)
	teams.Post("/", auth, teamController.CreateTeam)
	teams.Get("/:id", teamController.GetTeam)
	teams.Put("/:id", auth, teamController.ReplaceTeam)
	teams.Patch("/:id", auth, teamController.UpdateTeam)
	teams.Delete("/:id", auth, teamController.DeleteTeam)
	teams.Get("/:id/members", teamController.GetTeamMembers)
	teams.Get("/:id/stats", teamController.GetTeamStats)

	// Activity routes
	activityController := controllers.NewActivityController(db, cfg, deps.Publisher, deps.Logger)
	activities := api.Group("/activities")
	activities.Get("/", activityController.ListActivities)
	activities.Post("/", auth, activityController.CreateActivity)
	activities.Get("/:id", activityController.GetActivity)
	activities.Put("/:id", auth, activityController.ReplaceActivity)
	activities.Patch("/:id", auth, activityController.UpdateActivity)
	activities.Delete("/:id", auth, activityController.DeleteActivity)

	// Leaderboard routes
	leaderboardController := controllers.NewLeaderboardController(db, cfg, deps.Leaderboard)
	leaderboard := api.Group("/leaderboard")
	leaderboard.Get("/", leaderboardController.ListLeaderboard)
	leaderboard.Post("/", auth, leaderboardController.CreateEntry)
	leaderboard.Post("/refresh", auth, leaderboardController.Refresh)
	leaderboard.Get("/:id", leaderboardController.GetEntry)
	leaderboard.Put("/:id", auth, leaderboardController.ReplaceEntry)
	leaderboard.Patch("/:id", auth, leaderboardController.UpdateEntry)
	leaderboard.Delete("/:id", auth, leaderboardController.DeleteEntry)

	// Workout routes
	workoutController := controllers.NewWorkoutController(db, cfg)
	workouts := api.Group("/workouts")
	workouts.Get("/", workoutController.ListWorkouts)
	workouts.Get("/suggest", workoutController.SuggestWorkouts)
	workouts.Post("/", auth, workoutController.CreateWorkout)
	workouts.Get("/:id", workoutController.GetWorkout)
	workouts.Put("/:id", auth, workoutController.ReplaceWorkout)
	workouts.Patch("/:id", auth, workoutController.UpdateWorkout)
	workouts.Delete("/:id", auth, workoutController.DeleteWorkout)
}

// errorHandler renders errors that handlers return instead of answering
// themselves. Anything that is not a *fiber.Error is unexpected and logged.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return utils.Error(c, ferr.Code, ferr)
		}

		logger.Error("unhandled error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.InternalServerError(c, "Internal server error")
	}
}
