package memory

import (
	"context"

	"github.com/openleague/openleague-go/internal/store"
)

// LeagueStore implementation

func (d *Driver) CreateLeague(ctx context.Context, l *store.League) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if l.ID == 0 {
		l.ID = d.allocID()
	}
	cp := *l
	d.leagues[l.ID] = &cp
	return nil
}

func (d *Driver) GetLeague(ctx context.Context, id uint) (*store.League, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	l, ok := d.leagues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (d *Driver) UpdateLeague(ctx context.Context, l *store.League) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.leagues[l.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *l
	d.leagues[l.ID] = &cp
	return nil
}

func (d *Driver) DeleteLeague(ctx context.Context, id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.leagues[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.leagues, id)
	return nil
}

func (d *Driver) ListLeagues(ctx context.Context, orgID string) ([]*store.League, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*store.League
	for _, l := range d.leagues {
		if l.OrganizationID == orgID {
			cp := *l
			result = append(result, &cp)
		}
	}
	sortByID(result, func(l *store.League) uint { return l.ID })
	return result, nil
}

func (d *Driver) CreateTeam(ctx context.Context, t *store.Team) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t.ID == 0 {
		t.ID = d.allocID()
	}
	cp := *t
	d.teams[t.ID] = &cp
	return nil
}

func (d *Driver) GetTeam(ctx context.Context, id uint) (*store.Team, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.teams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (d *Driver) UpdateTeam(ctx context.Context, t *store.Team) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.teams[t.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *t
	d.teams[t.ID] = &cp
	return nil
}

func (d *Driver) DeleteTeam(ctx context.Context, id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.teams[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.teams, id)
	return nil
}

func (d *Driver) ListTeams(ctx context.Context, leagueID uint) ([]*store.Team, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*store.Team
	for _, t := range d.teams {
		if t.LeagueID == leagueID {
			cp := *t
			result = append(result, &cp)
		}
	}
	sortByID(result, func(t *store.Team) uint { return t.ID })
	return result, nil
}

func (d *Driver) CreatePlayer(ctx context.Context, p *store.Player) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p.ID == 0 {
		p.ID = d.allocID()
	}
	cp := *p
	d.players[p.ID] = &cp
	return nil
}

func (d *Driver) GetPlayer(ctx context.Context, id uint) (*store.Player, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *Driver) UpdatePlayer(ctx context.Context, p *store.Player) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.players[p.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *p
	d.players[p.ID] = &cp
	return nil
}

func (d *Driver) DeletePlayer(ctx context.Context, id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.players[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.players, id)
	return nil
}

func (d *Driver) ListPlayers(ctx context.Context, teamID uint) ([]*store.Player, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*store.Player
	for _, p := range d.players {
		if p.TeamID == teamID {
			cp := *p
			result = append(result, &cp)
		}
	}
	sortByID(result, func(p *store.Player) uint { return p.ID })
	return result, nil
}

func (d *Driver) CreateGame(ctx context.Context, g *store.Game) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if g.ID == 0 {
		g.ID = d.allocID()
	}
	cp := *g
	d.games[g.ID] = &cp
	return nil
}

func (d *Driver) GetGame(ctx context.Context, id uint) (*store.Game, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	g, ok := d.games[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (d *Driver) UpdateGame(ctx context.Context, g *store.Game) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.games[g.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *g
	d.games[g.ID] = &cp
	return nil
}

func (d *Driver) DeleteGame(ctx context.Context, id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.games[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.games, id)
	return nil
}

func (d *Driver) ListGames(ctx context.Context, leagueID uint) ([]*store.Game, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*store.Game
	for _, g := range d.games {
		if g.LeagueID == leagueID {
			cp := *g
			result = append(result, &cp)
		}
	}
	sortByID(result, func(g *store.Game) uint { return g.ID })
	return result, nil
}

func (d *Driver) CreateReferee(ctx context.Context, ref *store.Referee) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ref.ID == 0 {
		ref.ID = d.allocID()
	}
	cp := *ref
	d.referees[ref.ID] = &cp
	return nil
}

func (d *Driver) DeleteReferee(ctx context.Context, id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.referees[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.referees, id)
	return nil
}

func (d *Driver) ListReferees(ctx context.Context, orgID string) ([]*store.Referee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*store.Referee
	for _, ref := range d.referees {
		if ref.OrganizationID == orgID {
			cp := *ref
			result = append(result, &cp)
		}
	}
	sortByID(result, func(r *store.Referee) uint { return r.ID })
	return result, nil
}

func (d *Driver) CreatePlayerStat(ctx context.Context, s *store.PlayerStat) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.ID == 0 {
		s.ID = d.allocID()
	}
	cp := *s
	d.playerStats[s.ID] = &cp
	return nil
}

func (d *Driver) ListPlayerStatsByGame(ctx context.Context, gameID uint) ([]*store.PlayerStat, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*store.PlayerStat
	for _, s := range d.playerStats {
		if s.GameID == gameID {
			cp := *s
			result = append(result, &cp)
		}
	}
	sortByID(result, func(s *store.PlayerStat) uint { return s.ID })
	return result, nil
}

func (d *Driver) CreateTeamStat(ctx context.Context, s *store.TeamStat) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.ID == 0 {
		s.ID = d.allocID()
	}
	cp := *s
	d.teamStats[s.ID] = &cp
	return nil
}

func (d *Driver) ListTeamStatsByGame(ctx context.Context, gameID uint) ([]*store.TeamStat, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*store.TeamStat
	for _, s := range d.teamStats {
		if s.GameID == gameID {
			cp := *s
			result = append(result, &cp)
		}
	}
	sortByID(result, func(s *store.TeamStat) uint { return s.ID })
	return result, nil
}

func sortByID[T any](items []T, id func(T) uint) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && id(items[j]) < id(items[j-1]); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}
