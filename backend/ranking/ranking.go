// Package ranking computes leaderboard standings from logged activities.
//
// Each activity is worth ActivityPoints and each calorie one point. Duration
// and distance are totalled but never scored.
package ranking

import (
	"sort"
	"time"

	"octofit/backend/models"
)

// ActivityPoints is the score awarded per logged activity.
const ActivityPoints = 10

// Entry is one ranked user or team.
type Entry struct {
	EntityID        uint
	EntityType      models.EntityType
	Name            string
	TotalPoints     int64
	TotalActivities int64
	TotalCalories   int64
	TotalDuration   int64
	Rank            int
}

// Points returns the score for the given totals.
func Points(activities, calories int64) int64 {
	return activities*ActivityPoints + calories
}

// Row converts the entry into a leaderboard record stamped with updatedAt.
func (e Entry) Row(updatedAt time.Time) models.Leaderboard {
	return models.Leaderboard{
		EntityID:        e.EntityID,
		EntityType:      e.EntityType,
		Name:            e.Name,
		TotalPoints:     e.TotalPoints,
		TotalActivities: e.TotalActivities,
		TotalCalories:   e.TotalCalories,
		TotalDuration:   e.TotalDuration,
		Rank:            e.Rank,
		UpdatedAt:       updatedAt,
	}
}

type totals struct {
	activities int64
	calories   int64
	duration   int64
}

func (t *totals) add(o totals) {
	t.activities += o.activities
	t.calories += o.calories
	t.duration += o.duration
}

// Compute ranks every user and every team, including those without
// activities. Activities of unknown users and users of unknown teams are
// ignored.
func Compute(activities []models.Activity, users []models.User, teams []models.Team) ([]Entry, []Entry) {
	byUser := make(map[uint]*totals, len(users))
	for _, u := range users {
		byUser[u.ID] = &totals{}
	}
	for _, a := range activities {
		t, ok := byUser[a.UserID]
		if !ok {
			continue
		}
		t.activities++
		t.calories += int64(a.Calories)
		t.duration += int64(a.Duration)
	}

	byTeam := make(map[uint]*totals, len(teams))
	for _, tm := range teams {
		byTeam[tm.ID] = &totals{}
	}

	userEntries := make([]Entry, 0, len(users))
	for _, u := range users {
		t := byUser[u.ID]
		userEntries = append(userEntries, newEntry(u.ID, models.EntityUser, u.Username, *t))
		if u.TeamID == nil {
			continue
		}
		if tt, ok := byTeam[*u.TeamID]; ok {
			tt.add(*t)
		}
	}

	teamEntries := make([]Entry, 0, len(teams))
	for _, tm := range teams {
		teamEntries = append(teamEntries, newEntry(tm.ID, models.EntityTeam, tm.Name, *byTeam[tm.ID]))
	}

	Rank(userEntries)
	Rank(teamEntries)
	return userEntries, teamEntries
}

func newEntry(id uint, kind models.EntityType, name string, t totals) Entry {
	return Entry{
		EntityID:        id,
		EntityType:      kind,
		Name:            name,
		TotalPoints:     Points(t.activities, t.calories),
		TotalActivities: t.activities,
		TotalCalories:   t.calories,
		TotalDuration:   t.duration,
	}
}

// Rank sorts entries by points descending, breaking ties by entity id
// ascending, and assigns consecutive ranks starting at 1. Tied entries still
// get distinct ranks.
func Rank(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].EntityID < entries[j].EntityID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
