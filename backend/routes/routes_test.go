package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"octofit/backend/config"
	"octofit/backend/database/dbtest"
	"octofit/backend/events"
	"octofit/backend/locks"
	"octofit/backend/models"
	"octofit/backend/services"
	"octofit/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	app       *fiber.App
	db        *gorm.DB
	cfg       *config.Config
	publisher *events.MemoryPublisher
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                "test",
		CORSOrigins:        "*",
		JWTSecret:          "testsecret",
		LeaderboardLockTTL: time.Second,
	}
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	pub := &events.MemoryPublisher{}
	logger := zap.NewNop()
	app := NewApp(Dependencies{
		DB:          db,
		Cfg:         cfg,
		Logger:      logger,
		Leaderboard: services.NewLeaderboardService(db, locks.NewLocalLocker(), pub, logger),
		Publisher:   pub,
	})
	return &testEnv{app: app, db: db, cfg: cfg, publisher: pub}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func (e *testEnv) seed(t *testing.T, values ...interface{}) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, e.db.Create(v).Error)
	}
}

func TestAPIRoot(t *testing.T) {
	env := newTestEnv(t, testConfig())

	resp, body := env.do(t, "GET", "/api/", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	links := decode[map[string]string](t, body)
	for _, name := range []string{"users", "teams", "activities", "leaderboard", "workouts"} {
		assert.True(t, strings.HasSuffix(links[name], "/api/"+name+"/"), "%s -> %q", name, links[name])
	}
	assert.Len(t, links, 5)
}

func TestUserLifecycle(t *testing.T) {
	env := newTestEnv(t, testConfig())

	resp, body := env.do(t, "POST", "/api/users", fiber.Map{
		"email":    "tony@stark.io",
		"username": "ironman",
		"password": "jarvis123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "jarvis123")

	created := decode[models.User](t, body)
	assert.NotZero(t, created.ID)
	assert.Nil(t, created.TeamID)

	var stored models.User
	require.NoError(t, env.db.First(&stored, created.ID).Error)
	assert.NotEqual(t, "jarvis123", stored.Password)
	assert.True(t, utils.CheckPassword(stored.Password, "jarvis123"))

	path := fmt.Sprintf("/api/users/%d", created.ID)
	resp, body = env.do(t, "GET", path, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ironman", decode[models.User](t, body).Username)

	resp, body = env.do(t, "PATCH", path, fiber.Map{"username": "tony", "team_id": 3})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	patched := decode[models.User](t, body)
	assert.Equal(t, "tony", patched.Username)
	assert.Equal(t, "tony@stark.io", patched.Email)
	require.NotNil(t, patched.TeamID)
	assert.Equal(t, uint(3), *patched.TeamID)

	resp, body = env.do(t, "PATCH", path, fiber.Map{"team_id": nil})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Nil(t, decode[models.User](t, body).TeamID)

	resp, body = env.do(t, "PUT", path, fiber.Map{"email": "stark@avengers.io", "username": "ironman", "password": "pepper"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "stark@avengers.io", decode[models.User](t, body).Email)

	resp, _ = env.do(t, "DELETE", path, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, "GET", path, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUserValidation(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.seed(t, &models.User{Email: "taken@x.io", Username: "first", Password: "h"})

	resp, body := env.do(t, "POST", "/api/users", fiber.Map{"email": "not-an-email"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	verr := decode[utils.ErrorResponse](t, body)
	assert.False(t, verr.Success)
	assert.Equal(t, "Validation Error", verr.Error)
	details := decode[struct {
		Details map[string][]string `json:"details"`
	}](t, body).Details
	assert.Equal(t, []string{"Enter a valid email address."}, details["email"])
	assert.Equal(t, []string{"This field is required."}, details["username"])
	assert.Equal(t, []string{"This field is required."}, details["password"])

	resp, body = env.do(t, "POST", "/api/users", fiber.Map{"email": "taken@x.io", "username": "second", "password": "pw"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "user with this email already exists.")

	resp, _ = env.do(t, "POST", "/api/users", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "GET", "/api/users/abc", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, body = env.do(t, "GET", "/api/users/999", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", decode[utils.ErrorResponse](t, body).Message)
}

func TestTeamEndpoints(t *testing.T) {
	env := newTestEnv(t, testConfig())

	resp, body := env.do(t, "POST", "/api/teams", fiber.Map{"name": "Team Marvel", "description": "Avengers"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	team := decode[models.TeamResponse](t, body)
	assert.Equal(t, int64(0), team.MemberCount)

	resp, body = env.do(t, "POST", "/api/teams", fiber.Map{"name": "Team Marvel"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "team with this name already exists.")

	teamID := team.ID
	env.seed(t,
		&models.User{Email: "a@x.io", Username: "a", Password: "h", TeamID: &teamID},
		&models.User{Email: "b@x.io", Username: "b", Password: "h", TeamID: &teamID},
		&models.User{Email: "c@x.io", Username: "c", Password: "h"},
	)

	resp, body = env.do(t, "GET", fmt.Sprintf("/api/teams/%d", teamID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(2), decode[models.TeamResponse](t, body).MemberCount)

	resp, body = env.do(t, "GET", fmt.Sprintf("/api/teams/%d/members", teamID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	members := decode[[]models.User](t, body)
	require.Len(t, members, 2)
	assert.Equal(t, "a", members[0].Username)

	resp, body = env.do(t, "GET", fmt.Sprintf("/api/teams/%d/stats", teamID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	stats := decode[map[string]interface{}](t, body)
	assert.EqualValues(t, 2, stats["member_count"])
	assert.EqualValues(t, 0, stats["total_activities"])
	assert.Nil(t, stats["total_distance"])

	resp, _ = env.do(t, "GET", "/api/teams/4242/stats", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, "PATCH", fmt.Sprintf("/api/teams/%d", teamID), fiber.Map{"description": "Earth's mightiest"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	patched := decode[models.TeamResponse](t, body)
	assert.Equal(t, "Team Marvel", patched.Name)
	assert.Equal(t, "Earth's mightiest", patched.Description)

	resp, _ = env.do(t, "DELETE", fmt.Sprintf("/api/teams/%d", teamID), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	// Former members keep their dangling team_id.
	var orphan models.User
	require.NoError(t, env.db.First(&orphan, members[0].ID).Error)
	require.NotNil(t, orphan.TeamID)
	assert.Equal(t, teamID, *orphan.TeamID)
}

func TestActivityEndpoints(t *testing.T) {
	env := newTestEnv(t, testConfig())
	user := &models.User{Email: "run@x.io", Username: "runner", Password: "h"}
	env.seed(t, user)

	resp, body := env.do(t, "POST", "/api/activities", fiber.Map{
		"user_id":       user.ID,
		"activity_type": "running",
		"duration":      30,
		"distance":      5.0,
		"calories":      300,
		"date":          "2026-03-01T07:00:00Z",
		"notes":         "Morning run",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	created := decode[models.ActivityResponse](t, body)
	require.NotNil(t, created.UserName)
	assert.Equal(t, "runner", *created.UserName)

	logged := env.publisher.OfType(events.TypeActivityLogged)
	require.Len(t, logged, 1)

	resp, body = env.do(t, "POST", "/api/activities", fiber.Map{
		"user_id":       9999,
		"activity_type": "yoga",
		"duration":      0,
		"calories":      0,
		"date":          "2026-03-02T07:00:00Z",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	dangling := decode[models.ActivityResponse](t, body)
	assert.Nil(t, dangling.UserName)
	assert.Nil(t, dangling.Distance)

	resp, body = env.do(t, "GET", fmt.Sprintf("/api/activities?user_id=%d", user.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	filtered := decode[[]models.ActivityResponse](t, body)
	require.Len(t, filtered, 1)
	assert.Equal(t, created.ID, filtered[0].ID)

	resp, body = env.do(t, "GET", "/api/activities", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	all := decode[[]models.ActivityResponse](t, body)
	require.Len(t, all, 2)
	assert.Equal(t, dangling.ID, all[0].ID, "newest first")

	resp, _ = env.do(t, "GET", "/api/activities?user_id=abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, "POST", "/api/activities", fiber.Map{
		"user_id":       user.ID,
		"activity_type": "skydiving",
		"duration":      -5,
		"calories":      10,
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	details := decode[struct {
		Details map[string][]string `json:"details"`
	}](t, body).Details
	assert.Equal(t, []string{`"skydiving" is not a valid choice.`}, details["activity_type"])
	assert.Contains(t, details, "duration")
	assert.Contains(t, details, "date")

	path := fmt.Sprintf("/api/activities/%d", created.ID)
	resp, body = env.do(t, "PATCH", path, fiber.Map{"distance": nil, "calories": 350})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	patched := decode[models.ActivityResponse](t, body)
	assert.Nil(t, patched.Distance)
	assert.Equal(t, 350, patched.Calories)
	assert.Equal(t, 30, patched.Duration)

	resp, _ = env.do(t, "DELETE", path, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Len(t, env.publisher.OfType(events.TypeActivityDeleted), 1)

	resp, _ = env.do(t, "GET", path, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUserActivitiesAndStats(t *testing.T) {
	env := newTestEnv(t, testConfig())
	user := &models.User{Email: "s@x.io", Username: "s", Password: "h"}
	env.seed(t, user)
	distance := 4.5
	env.seed(t,
		&models.Activity{UserID: user.ID, ActivityType: models.ActivityRunning, Duration: 30, Distance: &distance, Calories: 250, Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		&models.Activity{UserID: user.ID, ActivityType: models.ActivityYoga, Duration: 60, Calories: 150, Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
	)

	resp, body := env.do(t, "GET", fmt.Sprintf("/api/users/%d/activities", user.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.ActivityResponse](t, body), 2)

	resp, body = env.do(t, "GET", fmt.Sprintf("/api/users/%d/stats", user.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	stats := decode[models.ActivityStats](t, body)
	assert.Equal(t, int64(2), stats.TotalActivities)
	assert.Equal(t, int64(90), stats.TotalDuration)
	assert.Equal(t, int64(400), stats.TotalCalories)
	require.NotNil(t, stats.TotalDistance)
	assert.InDelta(t, 4.5, *stats.TotalDistance, 1e-9)

	resp, _ = env.do(t, "GET", "/api/users/777/stats", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = env.do(t, "GET", "/api/users/777/activities", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLeaderboardEndpoints(t *testing.T) {
	env := newTestEnv(t, testConfig())
	team := &models.Team{Name: "Idle"}
	env.seed(t, team)
	a := &models.User{Email: "a@x.io", Username: "A", Password: "h"}
	b := &models.User{Email: "b@x.io", Username: "B", Password: "h"}
	idle := &models.User{Email: "i@x.io", Username: "I", Password: "h", TeamID: &team.ID}
	env.seed(t, a, b, idle)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	env.seed(t,
		&models.Activity{UserID: a.ID, ActivityType: models.ActivityRunning, Calories: 200, Date: day},
		&models.Activity{UserID: a.ID, ActivityType: models.ActivityRunning, Calories: 200, Date: day},
		&models.Activity{UserID: a.ID, ActivityType: models.ActivityRunning, Calories: 200, Date: day},
		&models.Activity{UserID: b.ID, ActivityType: models.ActivityWalking, Calories: 50, Date: day},
	)

	resp, body := env.do(t, "POST", "/api/leaderboard/refresh", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	ack := decode[map[string]interface{}](t, body)
	assert.Equal(t, "Leaderboard refreshed successfully", ack["message"])
	assert.EqualValues(t, 3, ack["users"])
	assert.EqualValues(t, 1, ack["teams"])

	resp, body = env.do(t, "GET", "/api/leaderboard?type=user", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	users := decode[[]models.Leaderboard](t, body)
	require.Len(t, users, 3)
	assert.Equal(t, "A", users[0].Name)
	assert.Equal(t, int64(630), users[0].TotalPoints)
	assert.Equal(t, 1, users[0].Rank)
	assert.Equal(t, "B", users[1].Name)
	assert.Equal(t, int64(60), users[1].TotalPoints)
	assert.Equal(t, 2, users[1].Rank)
	assert.Equal(t, "I", users[2].Name)
	assert.Zero(t, users[2].TotalPoints)

	resp, body = env.do(t, "GET", "/api/leaderboard?type=team", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	teams := decode[[]models.Leaderboard](t, body)
	require.Len(t, teams, 1)
	assert.Zero(t, teams[0].TotalPoints)
	assert.Zero(t, teams[0].TotalActivities)

	resp, _ = env.do(t, "GET", "/api/leaderboard?type=galaxy", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, "GET", "/api/leaderboard", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Leaderboard](t, body), 4)

	path := fmt.Sprintf("/api/leaderboard/%d", users[1].ID)
	resp, body = env.do(t, "PATCH", path, fiber.Map{"name": "Bee"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "Bee", decode[models.Leaderboard](t, body).Name)

	resp, _ = env.do(t, "DELETE", path, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(t, "GET", path, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, "POST", "/api/leaderboard", fiber.Map{"entity_id": 1, "entity_type": "planet", "name": "x"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "entity_type")
}

func TestWorkoutEndpoints(t *testing.T) {
	env := newTestEnv(t, testConfig())
	for i := 0; i < 7; i++ {
		env.seed(t, &models.Workout{
			Title: fmt.Sprintf("Sprint %d", i), Description: "d", ActivityType: "running",
			Difficulty: models.DifficultyAdvanced, Duration: 20, CaloriesEstimate: 300, Instructions: "go",
		})
	}
	for i := 0; i < 2; i++ {
		env.seed(t, &models.Workout{
			Title: fmt.Sprintf("Stretch %d", i), Description: "d", ActivityType: "yoga",
			Difficulty: models.DifficultyBeginner, Duration: 15, CaloriesEstimate: 50, Instructions: "breathe",
		})
	}

	resp, body := env.do(t, "GET", "/api/workouts/suggest?difficulty=advanced", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	suggested := decode[[]models.Workout](t, body)
	assert.Len(t, suggested, 5)
	for _, w := range suggested {
		assert.Equal(t, models.DifficultyAdvanced, w.Difficulty)
	}

	resp, body = env.do(t, "GET", "/api/workouts/suggest", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	beginner := decode[[]models.Workout](t, body)
	require.Len(t, beginner, 2)
	assert.Equal(t, models.DifficultyBeginner, beginner[0].Difficulty)

	resp, body = env.do(t, "GET", "/api/workouts?difficulty=beginner", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, w := range decode[[]models.Workout](t, body) {
		assert.Equal(t, models.DifficultyBeginner, w.Difficulty)
	}

	resp, body = env.do(t, "GET", "/api/workouts?activity_type=running&difficulty=advanced", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Workout](t, body), 7)

	resp, _ = env.do(t, "GET", "/api/workouts?difficulty=legendary", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, _ = env.do(t, "GET", "/api/workouts/suggest?difficulty=legendary", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, "POST", "/api/workouts", fiber.Map{
		"title": "Tempo", "description": "steady", "activity_type": "cycling",
		"difficulty": "intermediate", "duration": 45, "calories_estimate": 400, "instructions": "hold pace",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	created := decode[models.Workout](t, body)

	resp, body = env.do(t, "GET", fmt.Sprintf("/api/workouts/%d", created.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Tempo", decode[models.Workout](t, body).Title)
}

func TestAuthRequired(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRequired = true
	env := newTestEnv(t, cfg)

	resp, _ := env.do(t, "POST", "/api/teams", fiber.Map{"name": "Locked"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(t, "POST", "/api/users", fiber.Map{"email": "me@x.io", "username": "me", "password": "s3cret"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	resp, _ = env.do(t, "POST", "/api/auth/login", fiber.Map{"email": "me@x.io", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body = env.do(t, "POST", "/api/auth/login", fiber.Map{"email": "me@x.io", "password": "s3cret"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	login := decode[struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}](t, body)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "me", login.User.Username)

	bearer := []string{"Authorization", "Bearer " + login.Token}
	resp, body = env.do(t, "POST", "/api/teams", fiber.Map{"name": "Unlocked"}, bearer...)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	resp, body = env.do(t, "GET", "/api/auth/me", nil, bearer...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "me@x.io", decode[models.User](t, body).Email)

	// Reads stay open.
	resp, _ = env.do(t, "GET", "/api/teams", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestOperationalEndpoints(t *testing.T) {
	env := newTestEnv(t, testConfig())

	resp, body := env.do(t, "GET", "/healthz", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	env.do(t, "GET", "/api/users", nil)
	resp, body = env.do(t, "GET", "/metrics", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "octofit_http_requests_total")
	assert.Contains(t, string(body), `route="/api/users`)

	resp, _ = env.do(t, "GET", "/api/nowhere", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}
