// Package league implements the league domain: leagues, teams,
// players, games, referees and per-game stats, all scoped to an
// organization.
package league

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openleague/openleague-go/internal/store"
)

// ErrNotFound is returned when an entity does not exist or belongs to
// a different organization.
var ErrNotFound = errors.New("not found")

// Service provides organization-scoped league operations. Every lookup
// verifies the entity chain up to the organization so callers cannot
// reach across tenants.
type Service struct {
	store  store.LeagueStore
	logger *slog.Logger
}

// NewService creates the league service.
func NewService(s store.LeagueStore, logger *slog.Logger) (*Service, error) {
	if s == nil {
		return nil, errors.New("league: store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, logger: logger}, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// league returns the league only if it belongs to orgID.
func (s *Service) league(ctx context.Context, orgID string, id uint) (*store.League, error) {
	l, err := s.store.GetLeague(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load league")
	}
	if l.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	return l, nil
}

// team resolves a team and checks its league belongs to orgID.
func (s *Service) team(ctx context.Context, orgID string, id uint) (*store.Team, error) {
	t, err := s.store.GetTeam(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load team")
	}
	if _, err := s.league(ctx, orgID, t.LeagueID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) game(ctx context.Context, orgID string, id uint) (*store.Game, error) {
	g, err := s.store.GetGame(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load game")
	}
	if _, err := s.league(ctx, orgID, g.LeagueID); err != nil {
		return nil, err
	}
	return g, nil
}

// CreateLeague creates a league in the organization.
func (s *Service) CreateLeague(ctx context.Context, orgID, name, description string, start, end time.Time) (*store.League, error) {
	if name == "" {
		return nil, errors.New("league name is required")
	}
	l := &store.League{
		OrganizationID: orgID,
		Name:           name,
		Description:    description,
		StartDate:      start,
		EndDate:        end,
	}
	if err := s.store.CreateLeague(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create league: %w", err)
	}
	s.logger.Info("league created", "org", orgID, "league", l.ID)
	return l, nil
}

// GetLeague loads an organization's league.
func (s *Service) GetLeague(ctx context.Context, orgID string, id uint) (*store.League, error) {
	return s.league(ctx, orgID, id)
}

// UpdateLeague updates name, description and dates.
func (s *Service) UpdateLeague(ctx context.Context, orgID string, l *store.League) error {
	existing, err := s.league(ctx, orgID, l.ID)
	if err != nil {
		return err
	}
	l.OrganizationID = existing.OrganizationID
	if err := s.store.UpdateLeague(ctx, l); err != nil {
		return fmt.Errorf("failed to update league: %w", err)
	}
	return nil
}

// DeleteLeague removes a league.
func (s *Service) DeleteLeague(ctx context.Context, orgID string, id uint) error {
	if _, err := s.league(ctx, orgID, id); err != nil {
		return err
	}
	if err := s.store.DeleteLeague(ctx, id); err != nil {
		return notFoundOr(err, "delete league")
	}
	s.logger.Info("league deleted", "org", orgID, "league", id)
	return nil
}

// ListLeagues lists the organization's leagues.
func (s *Service) ListLeagues(ctx context.Context, orgID string) ([]*store.League, error) {
	leagues, err := s.store.ListLeagues(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	return leagues, nil
}

// CreateTeam creates a team in one of the organization's leagues.
func (s *Service) CreateTeam(ctx context.Context, orgID string, leagueID uint, name string) (*store.Team, error) {
	if name == "" {
		return nil, errors.New("team name is required")
	}
	if _, err := s.league(ctx, orgID, leagueID); err != nil {
		return nil, err
	}
	t := &store.Team{LeagueID: leagueID, Name: name}
	if err := s.store.CreateTeam(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return t, nil
}

// GetTeam loads a team.
func (s *Service) GetTeam(ctx context.Context, orgID string, id uint) (*store.Team, error) {
	return s.team(ctx, orgID, id)
}

// UpdateTeam updates a team's name and captain.
func (s *Service) UpdateTeam(ctx context.Context, orgID string, t *store.Team) error {
	existing, err := s.team(ctx, orgID, t.ID)
	if err != nil {
		return err
	}
	t.LeagueID = existing.LeagueID
	if err := s.store.UpdateTeam(ctx, t); err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	return nil
}

// DeleteTeam removes a team.
func (s *Service) DeleteTeam(ctx context.Context, orgID string, id uint) error {
	if _, err := s.team(ctx, orgID, id); err != nil {
		return err
	}
	if err := s.store.DeleteTeam(ctx, id); err != nil {
		return notFoundOr(err, "delete team")
	}
	return nil
}

// ListTeams lists the teams of a league.
func (s *Service) ListTeams(ctx context.Context, orgID string, leagueID uint) ([]*store.Team, error) {
	if _, err := s.league(ctx, orgID, leagueID); err != nil {
		return nil, err
	}
	teams, err := s.store.ListTeams(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// CreatePlayer adds a player to a team.
func (s *Service) CreatePlayer(ctx context.Context, orgID string, p *store.Player) error {
	if p.FirstName == "" || p.LastName == "" {
		return errors.New("player name is required")
	}
	if _, err := s.team(ctx, orgID, p.TeamID); err != nil {
		return err
	}
	if err := s.store.CreatePlayer(ctx, p); err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// GetPlayer loads a player.
func (s *Service) GetPlayer(ctx context.Context, orgID string, id uint) (*store.Player, error) {
	p, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load player")
	}
	if _, err := s.team(ctx, orgID, p.TeamID); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePlayer updates a player's details.
func (s *Service) UpdatePlayer(ctx context.Context, orgID string, p *store.Player) error {
	existing, err := s.GetPlayer(ctx, orgID, p.ID)
	if err != nil {
		return err
	}
	p.TeamID = existing.TeamID
	if err := s.store.UpdatePlayer(ctx, p); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	return nil
}

// DeletePlayer removes a player.
func (s *Service) DeletePlayer(ctx context.Context, orgID string, id uint) error {
	if _, err := s.GetPlayer(ctx, orgID, id); err != nil {
		return err
	}
	if err := s.store.DeletePlayer(ctx, id); err != nil {
		return notFoundOr(err, "delete player")
	}
	return nil
}

// ListPlayers lists a team's players.
func (s *Service) ListPlayers(ctx context.Context, orgID string, teamID uint) ([]*store.Player, error) {
	if _, err := s.team(ctx, orgID, teamID); err != nil {
		return nil, err
	}
	players, err := s.store.ListPlayers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

// CreateGame schedules a game between two teams of the same league.
func (s *Service) CreateGame(ctx context.Context, orgID string, g *store.Game) error {
	if _, err := s.league(ctx, orgID, g.LeagueID); err != nil {
		return err
	}
	if g.HomeTeamID == g.AwayTeamID {
		return errors.New("a team cannot play itself")
	}
	for _, teamID := range []uint{g.HomeTeamID, g.AwayTeamID} {
		team, err := s.team(ctx, orgID, teamID)
		if err != nil {
			return err
		}
		if team.LeagueID != g.LeagueID {
			return errors.New("both teams must belong to the game's league")
		}
	}
	if err := s.store.CreateGame(ctx, g); err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// GetGame loads a game.
func (s *Service) GetGame(ctx context.Context, orgID string, id uint) (*store.Game, error) {
	return s.game(ctx, orgID, id)
}

// UpdateGame reschedules or relocates a game.
func (s *Service) UpdateGame(ctx context.Context, orgID string, g *store.Game) error {
	existing, err := s.game(ctx, orgID, g.ID)
	if err != nil {
		return err
	}
	g.LeagueID = existing.LeagueID
	if err := s.store.UpdateGame(ctx, g); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

// DeleteGame removes a game.
func (s *Service) DeleteGame(ctx context.Context, orgID string, id uint) error {
	if _, err := s.game(ctx, orgID, id); err != nil {
		return err
	}
	if err := s.store.DeleteGame(ctx, id); err != nil {
		return notFoundOr(err, "delete game")
	}
	return nil
}

// ListGames lists a league's games.
func (s *Service) ListGames(ctx context.Context, orgID string, leagueID uint) ([]*store.Game, error) {
	if _, err := s.league(ctx, orgID, leagueID); err != nil {
		return nil, err
	}
	games, err := s.store.ListGames(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// CreateReferee registers a referee for the organization.
func (s *Service) CreateReferee(ctx context.Context, orgID string, ref *store.Referee) error {
	if ref.FirstName == "" || ref.LastName == "" {
		return errors.New("referee name is required")
	}
	ref.OrganizationID = orgID
	if err := s.store.CreateReferee(ctx, ref); err != nil {
		return fmt.Errorf("failed to create referee: %w", err)
	}
	return nil
}

// DeleteReferee removes a referee.
func (s *Service) DeleteReferee(ctx context.Context, orgID string, id uint) error {
	refs, err := s.store.ListReferees(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to list referees: %w", err)
	}
	for _, ref := range refs {
		if ref.ID == id {
			if err := s.store.DeleteReferee(ctx, id); err != nil {
				return notFoundOr(err, "delete referee")
			}
			return nil
		}
	}
	return ErrNotFound
}

// ListReferees lists the organization's referees.
func (s *Service) ListReferees(ctx context.Context, orgID string) ([]*store.Referee, error) {
	refs, err := s.store.ListReferees(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referees: %w", err)
	}
	return refs, nil
}

// RecordPlayerStat records a player's line for a game.
func (s *Service) RecordPlayerStat(ctx context.Context, orgID string, stat *store.PlayerStat) error {
	if _, err := s.game(ctx, orgID, stat.GameID); err != nil {
		return err
	}
	if err := s.store.CreatePlayerStat(ctx, stat); err != nil {
		return fmt.Errorf("failed to record player stat: %w", err)
	}
	return nil
}

// RecordTeamStat records a team's score line for a game.
func (s *Service) RecordTeamStat(ctx context.Context, orgID string, stat *store.TeamStat) error {
	if _, err := s.game(ctx, orgID, stat.GameID); err != nil {
		return err
	}
	if err := s.store.CreateTeamStat(ctx, stat); err != nil {
		return fmt.Errorf("failed to record team stat: %w", err)
	}
	return nil
}

// GameStats bundles the recorded stats for one game.
type GameStats struct {
	PlayerStats []*store.PlayerStat `json:"player_stats"`
	TeamStats   []*store.TeamStat   `json:"team_stats"`
}

// GetGameStats returns all stats recorded for a game.
func (s *Service) GetGameStats(ctx context.Context, orgID string, gameID uint) (*GameStats, error) {
	if _, err := s.game(ctx, orgID, gameID); err != nil {
		return nil, err
	}
	playerStats, err := s.store.ListPlayerStatsByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list player stats: %w", err)
	}
	teamStats, err := s.store.ListTeamStatsByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team stats: %w", err)
	}
	return &GameStats{PlayerStats: playerStats, TeamStats: teamStats}, nil
}
