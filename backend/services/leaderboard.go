package services

import (
	"context"
	"fmt"
	"time"

	"octofit/backend/events"
	"octofit/backend/locks"
	"octofit/backend/metrics"
	"octofit/backend/models"
	"octofit/backend/ranking"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	refreshKey      = "leaderboard-refresh"
	insertBatchSize = 500
)

type RefreshResult struct {
	Users       int       `json:"users"`
	Teams       int       `json:"teams"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// LeaderboardService owns the leaderboard table. The table is only ever
// replaced as a whole, inside one transaction, by a single writer at a time.
type LeaderboardService struct {
	db        *gorm.DB
	locker    locks.Locker
	publisher events.Publisher
	logger    *zap.Logger
	group     singleflight.Group
	now       func() time.Time
}

func NewLeaderboardService(db *gorm.DB, locker locks.Locker, publisher events.Publisher, logger *zap.Logger) *LeaderboardService {
	return &LeaderboardService{
		db:        db,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Refresh recomputes every ranking from the current users, teams and
// activities. Callers arriving while a refresh is running in this process
// wait for it and share its result.
func (s *LeaderboardService) Refresh(ctx context.Context) (RefreshResult, error) {
	v, err, shared := s.group.Do(refreshKey, func() (interface{}, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return RefreshResult{}, err
	}
	if shared {
		s.logger.Debug("joined in-flight leaderboard refresh")
	}
	return v.(RefreshResult), nil
}

func (s *LeaderboardService) refresh(ctx context.Context) (RefreshResult, error) {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("acquiring refresh lock: %w", err)
	}
	defer unlock()

	start := time.Now()
	result, err := s.replace(ctx)
	took := time.Since(start)
	metrics.RecordRefresh(took, result.Users, result.Teams, result.RefreshedAt, err)
	if err != nil {
		s.logger.Error("leaderboard refresh failed", zap.Error(err), zap.Duration("took", took))
		return RefreshResult{}, err
	}

	s.logger.Info("leaderboard refreshed",
		zap.Int("users", result.Users),
		zap.Int("teams", result.Teams),
		zap.Duration("took", took),
	)

	if err := s.publisher.Publish(ctx, events.New(events.TypeLeaderboardRefreshed, result)); err != nil {
		s.logger.Warn("failed to publish leaderboard event", zap.Error(err))
	}
	return result, nil
}

// replace reads the source tables and swaps in the new generation in a single
// transaction. On error the previous generation is left as it was.
func (s *LeaderboardService) replace(ctx context.Context) (RefreshResult, error) {
	var result RefreshResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []models.User
		if err := tx.Select("id", "username", "team_id").Order("id").Find(&users).Error; err != nil {
			return fmt.Errorf("loading users: %w", err)
		}
		var teams []models.Team
		if err := tx.Select("id", "name").Order("id").Find(&teams).Error; err != nil {
			return fmt.Errorf("loading teams: %w", err)
		}
		var activities []models.Activity
		if err := tx.Select("id", "user_id", "duration", "calories").Find(&activities).Error; err != nil {
			return fmt.Errorf("loading activities: %w", err)
		}

		userEntries, teamEntries := ranking.Compute(activities, users, teams)

		stamp := s.now().UTC()
		rows := make([]models.Leaderboard, 0, len(userEntries)+len(teamEntries))
		for _, e := range userEntries {
			rows = append(rows, e.Row(stamp))
		}
		for _, e := range teamEntries {
			rows = append(rows, e.Row(stamp))
		}

		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Leaderboard{}).Error; err != nil {
			return fmt.Errorf("clearing leaderboard: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(&rows, insertBatchSize).Error; err != nil {
				return fmt.Errorf("inserting leaderboard: %w", err)
			}
		}

		result = RefreshResult{Users: len(userEntries), Teams: len(teamEntries), RefreshedAt: stamp}
		return nil
	})
	if err != nil {
		return RefreshResult{}, err
	}
	return result, nil
}
