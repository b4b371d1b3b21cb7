// Package league provides the SQL-backed repositories that act as the
// primary data source behind the cache layer.
package league

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/matchdaymedia/leaguedesk-go/internal/domain/entities/league"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/persistence/database"
)

// ErrNotFound marks a lookup for a row that does not exist
var ErrNotFound = errors.New("not found")

// Repository bundles the read and write queries for league content.
// Reads are the compute functions handed to the cache manager; writes
// must be followed by a synchronous cache invalidation.
type Repository struct {
	db *database.DB
}

// NewRepository creates a repository on top of an established connection
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the league tables when they do not exist yet
func (r *Repository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS clubs (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			short_name TEXT,
			group_id TEXT NOT NULL,
			founded INTEGER,
			stadium TEXT,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			club_id TEXT NOT NULL,
			position TEXT,
			number INTEGER,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (club_id) REFERENCES clubs(id)
		)`,
		`CREATE TABLE IF NOT EXISTS fixtures (
			id TEXT PRIMARY KEY,
			home_club_id TEXT NOT NULL,
			away_club_id TEXT NOT NULL,
			group_id TEXT NOT NULL,
			kickoff_at DATETIME NOT NULL,
			status TEXT NOT NULL,
			home_goals INTEGER NOT NULL DEFAULT 0,
			away_goals INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_club ON players(club_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fixtures_group ON fixtures(group_id)`,
	}

	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure league schema: %w", err)
		}
	}
	return nil
}

// GetClub loads a single club by ID
func (r *Repository) GetClub(ctx context.Context, id string) (*league.ClubNode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, slug, name, COALESCE(short_name,''), group_id, COALESCE(founded,0), COALESCE(stadium,''), updated_at
		 FROM clubs WHERE id = ?`, id)

	var club league.ClubNode
	err := row.Scan(&club.ID, &club.Slug, &club.Name, &club.ShortName, &club.GroupID, &club.Founded, &club.Stadium, &club.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("club %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load club %s: %w", id, err)
	}
	return &club, nil
}

// ListClubs returns all clubs ordered by name
func (r *Repository) ListClubs(ctx context.Context) ([]*league.ClubNode, error) {
	rows, err := r.db.QueryTimed(ctx,
		`SELECT id, slug, name, COALESCE(short_name,''), group_id, COALESCE(founded,0), COALESCE(stadium,''), updated_at
		 FROM clubs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	defer rows.Close()

	var clubs []*league.ClubNode
	for rows.Next() {
		var club league.ClubNode
		if err := rows.Scan(&club.ID, &club.Slug, &club.Name, &club.ShortName, &club.GroupID, &club.Founded, &club.Stadium, &club.UpdatedAt); err != nil {
			return nil, err
		}
		clubs = append(clubs, &club)
	}
	return clubs, rows.Err()
}

// UpsertClub writes a club row
func (r *Repository) UpsertClub(ctx context.Context, club *league.ClubNode) error {
	club.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clubs (id, slug, name, short_name, group_id, founded, stadium, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   slug=excluded.slug, name=excluded.name, short_name=excluded.short_name,
		   group_id=excluded.group_id, founded=excluded.founded, stadium=excluded.stadium,
		   updated_at=excluded.updated_at`,
		club.ID, club.Slug, club.Name, club.ShortName, club.GroupID, club.Founded, club.Stadium, club.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert club %s: %w", club.ID, err)
	}
	return nil
}

// DeleteClub removes a club row
func (r *Repository) DeleteClub(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM clubs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete club %s: %w", id, err)
	}
	return nil
}

// DeletePlayer removes a player row
func (r *Repository) DeletePlayer(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player %s: %w", id, err)
	}
	return nil
}

// DeleteFixture removes a fixture row
func (r *Repository) DeleteFixture(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM fixtures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fixture %s: %w", id, err)
	}
	return nil
}

// GetPlayer loads a single player by ID
func (r *Repository) GetPlayer(ctx context.Context, id string) (*league.PlayerNode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, slug, name, club_id, COALESCE(position,''), COALESCE(number,0), updated_at
		 FROM players WHERE id = ?`, id)

	var player league.PlayerNode
	err := row.Scan(&player.ID, &player.Slug, &player.Name, &player.ClubID, &player.Position, &player.Number, &player.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", id, err)
	}
	return &player, nil
}

// PlayersByClub is the cross-reference lookup: all players registered to a club
func (r *Repository) PlayersByClub(ctx context.Context, clubID string) ([]*league.PlayerNode, error) {
	rows, err := r.db.QueryTimed(ctx,
		`SELECT id, slug, name, club_id, COALESCE(position,''), COALESCE(number,0), updated_at
		 FROM players WHERE club_id = ? ORDER BY number, name`, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to load players for club %s: %w", clubID, err)
	}
	defer rows.Close()

	var players []*league.PlayerNode
	for rows.Next() {
		var player league.PlayerNode
		if err := rows.Scan(&player.ID, &player.Slug, &player.Name, &player.ClubID, &player.Position, &player.Number, &player.UpdatedAt); err != nil {
			return nil, err
		}
		players = append(players, &player)
	}
	return players, rows.Err()
}

// UpsertPlayer writes a player row
func (r *Repository) UpsertPlayer(ctx context.Context, player *league.PlayerNode) error {
	player.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO players (id, slug, name, club_id, position, number, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   slug=excluded.slug, name=excluded.name, club_id=excluded.club_id,
		   position=excluded.position, number=excluded.number, updated_at=excluded.updated_at`,
		player.ID, player.Slug, player.Name, player.ClubID, player.Position, player.Number, player.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", player.ID, err)
	}
	return nil
}

// GetFixture loads a single fixture by ID
func (r *Repository) GetFixture(ctx context.Context, id string) (*league.FixtureNode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, home_club_id, away_club_id, group_id, kickoff_at, status, home_goals, away_goals, updated_at
		 FROM fixtures WHERE id = ?`, id)

	var fixture league.FixtureNode
	err := row.Scan(&fixture.ID, &fixture.HomeClubID, &fixture.AwayClubID, &fixture.GroupID,
		&fixture.KickoffAt, &fixture.Status, &fixture.HomeGoals, &fixture.AwayGoals, &fixture.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("fixture %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fixture %s: %w", id, err)
	}
	return &fixture, nil
}

// FixturesByClub returns all fixtures a club is involved in
func (r *Repository) FixturesByClub(ctx context.Context, clubID string) ([]*league.FixtureNode, error) {
	rows, err := r.db.QueryTimed(ctx,
		`SELECT id, home_club_id, away_club_id, group_id, kickoff_at, status, home_goals, away_goals, updated_at
		 FROM fixtures WHERE home_club_id = ? OR away_club_id = ? ORDER BY kickoff_at`, clubID, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures for club %s: %w", clubID, err)
	}
	defer rows.Close()
	return scanFixtures(rows)
}

// FixturesByGroup returns all fixtures in a group
func (r *Repository) FixturesByGroup(ctx context.Context, groupID string) ([]*league.FixtureNode, error) {
	rows, err := r.db.QueryTimed(ctx,
		`SELECT id, home_club_id, away_club_id, group_id, kickoff_at, status, home_goals, away_goals, updated_at
		 FROM fixtures WHERE group_id = ? ORDER BY kickoff_at`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures for group %s: %w", groupID, err)
	}
	defer rows.Close()
	return scanFixtures(rows)
}

func scanFixtures(rows *sql.Rows) ([]*league.FixtureNode, error) {
	var fixtures []*league.FixtureNode
	for rows.Next() {
		var fixture league.FixtureNode
		if err := rows.Scan(&fixture.ID, &fixture.HomeClubID, &fixture.AwayClubID, &fixture.GroupID,
			&fixture.KickoffAt, &fixture.Status, &fixture.HomeGoals, &fixture.AwayGoals, &fixture.UpdatedAt); err != nil {
			return nil, err
		}
		fixtures = append(fixtures, &fixture)
	}
	return fixtures, rows.Err()
}

// UpsertFixture writes a fixture row
func (r *Repository) UpsertFixture(ctx context.Context, fixture *league.FixtureNode) error {
	fixture.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fixtures (id, home_club_id, away_club_id, group_id, kickoff_at, status, home_goals, away_goals, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   home_club_id=excluded.home_club_id, away_club_id=excluded.away_club_id,
		   group_id=excluded.group_id, kickoff_at=excluded.kickoff_at, status=excluded.status,
		   home_goals=excluded.home_goals, away_goals=excluded.away_goals, updated_at=excluded.updated_at`,
		fixture.ID, fixture.HomeClubID, fixture.AwayClubID, fixture.GroupID,
		fixture.KickoffAt, fixture.Status, fixture.HomeGoals, fixture.AwayGoals, fixture.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert fixture %s: %w", fixture.ID, err)
	}
	return nil
}

// ComputeStandings aggregates played fixtures into the league table for a
// group. This is the expensive read the standings cache fronts.
func (r *Repository) ComputeStandings(ctx context.Context, groupID string) (*league.Standings, error) {
	fixtures, err := r.FixturesByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	clubs, err := r.ListClubs(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(clubs))
	rowsByClub := make(map[string]*league.StandingsRow)
	for _, club := range clubs {
		if club.GroupID != groupID {
			continue
		}
		names[club.ID] = club.Name
		rowsByClub[club.ID] = &league.StandingsRow{ClubID: club.ID, ClubName: club.Name}
	}

	apply := func(clubID string, goalsFor, goalsAgainst int) {
		row, ok := rowsByClub[clubID]
		if !ok {
			return
		}
		row.Played++
		row.GoalsFor += goalsFor
		row.GoalsAgainst += goalsAgainst
		row.GoalDiff = row.GoalsFor - row.GoalsAgainst
		switch {
		case goalsFor > goalsAgainst:
			row.Won++
			row.Points += 3
		case goalsFor == goalsAgainst:
			row.Drawn++
			row.Points++
		default:
			row.Lost++
		}
	}

	for _, fixture := range fixtures {
		if fixture.Status != league.FixturePlayed {
			continue
		}
		apply(fixture.HomeClubID, fixture.HomeGoals, fixture.AwayGoals)
		apply(fixture.AwayClubID, fixture.AwayGoals, fixture.HomeGoals)
	}

	table := make([]league.StandingsRow, 0, len(rowsByClub))
	for _, row := range rowsByClub {
		table = append(table, *row)
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Points != table[j].Points {
			return table[i].Points > table[j].Points
		}
		if table[i].GoalDiff != table[j].GoalDiff {
			return table[i].GoalDiff > table[j].GoalDiff
		}
		return table[i].ClubName < table[j].ClubName
	})
	for i := range table {
		table[i].Position = i + 1
	}

	return &league.Standings{
		GroupID:    groupID,
		Rows:       table,
		ComputedAt: time.Now().UTC(),
	}, nil
}
