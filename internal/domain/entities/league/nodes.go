// Package league defines the core domain entities for LeagueDesk content.
package league

import "time"

// ClubNode represents a club and its editorial profile
type ClubNode struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	ShortName string    `json:"shortName,omitempty"`
	GroupID   string    `json:"groupId"`
	Founded   int       `json:"founded,omitempty"`
	Stadium   string    `json:"stadium,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlayerNode represents a registered player
type PlayerNode struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	ClubID    string    `json:"clubId"`
	Position  string    `json:"position,omitempty"`
	Number    int       `json:"number,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FixtureStatus enumerates the lifecycle of a fixture
type FixtureStatus string

const (
	FixtureScheduled FixtureStatus = "scheduled"
	FixturePlayed    FixtureStatus = "played"
	FixturePostponed FixtureStatus = "postponed"
)

// FixtureNode represents a scheduled or played match between two clubs
type FixtureNode struct {
	ID         string        `json:"id"`
	HomeClubID string        `json:"homeClubId"`
	AwayClubID string        `json:"awayClubId"`
	GroupID    string        `json:"groupId"`
	KickoffAt  time.Time     `json:"kickoffAt"`
	Status     FixtureStatus `json:"status"`
	HomeGoals  int           `json:"homeGoals"`
	AwayGoals  int           `json:"awayGoals"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// StandingsRow is one club's aggregated position in a group table
type StandingsRow struct {
	Position     int    `json:"position"`
	ClubID       string `json:"clubId"`
	ClubName     string `json:"clubName"`
	Played       int    `json:"played"`
	Won          int    `json:"won"`
	Drawn        int    `json:"drawn"`
	Lost         int    `json:"lost"`
	GoalsFor     int    `json:"goalsFor"`
	GoalsAgainst int    `json:"goalsAgainst"`
	GoalDiff     int    `json:"goalDiff"`
	Points       int    `json:"points"`
}

// Standings is the full league table for one group, as served to readers
type Standings struct {
	GroupID    string         `json:"groupId"`
	Rows       []StandingsRow `json:"rows"`
	ComputedAt time.Time      `json:"computedAt"`
}
