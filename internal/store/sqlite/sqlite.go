// Package sqlite implements a SQLite-based persistence driver using GORM.
package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openleague/openleague-go/internal/store"
)

func init() {
	store.Register("sqlite", NewDriver)
}

// options holds driver-specific settings from [store.drivers.sqlite].
type options struct {
	FileName string `mapstructure:"file_name"`
}

// Driver implements the store interfaces using SQLite via GORM.
type Driver struct {
	dataDir  string
	fileName string
	db       *gorm.DB
}

// NewDriver creates a new SQLite driver instance.
func NewDriver(cfg *store.DriverConfig) (store.Store, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir is required for sqlite driver")
	}

	opts := options{FileName: "openleague.db"}
	if cfg.Options != nil {
		if err := mapstructure.Decode(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("invalid sqlite driver options: %w", err)
		}
	}

	return &Driver{
		dataDir:  cfg.DataDir,
		fileName: opts.FileName,
	}, nil
}

// Name returns the driver name.
func (d *Driver) Name() string {
	return "sqlite"
}

// Init initializes the SQLite database and runs AutoMigrate.
func (d *Driver) Init(ctx context.Context) error {
	dbPath := filepath.Join(d.dataDir, d.fileName)

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	d.db = db

	// AutoMigrate creates/updates tables based on model structs
	if err := db.AutoMigrate(
		&store.User{},
		&store.Account{},
		&store.Session{},
		&store.Verification{},
		&store.Organization{},
		&store.Member{},
		&store.Invitation{},
		&store.League{},
		&store.Team{},
		&store.Player{},
		&store.Game{},
		&store.Referee{},
		&store.PlayerStat{},
		&store.TeamStat{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UserStore implementation

func (d *Driver) CreateUser(ctx context.Context, user *store.User) error {
	var count int64
	if err := d.db.WithContext(ctx).Model(&store.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return store.ErrAlreadyExists
	}
	return d.db.WithContext(ctx).Create(user).Error
}

func (d *Driver) GetUser(ctx context.Context, id string) (*store.User, error) {
	var user store.User
	return firstOrNotFound(d.db.WithContext(ctx).First(&user, "id = ?", id), &user)
}

func (d *Driver) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	var user store.User
	return firstOrNotFound(d.db.WithContext(ctx).First(&user, "email = ?", email), &user)
}

func (d *Driver) UpdateUser(ctx context.Context, user *store.User) error {
	return d.db.WithContext(ctx).Save(user).Error
}

func (d *Driver) CreateAccount(ctx context.Context, account *store.Account) error {
	return d.db.WithContext(ctx).Create(account).Error
}

func (d *Driver) GetAccountByUser(ctx context.Context, userID, providerID string) (*store.Account, error) {
	var account store.Account
	return firstOrNotFound(d.db.WithContext(ctx).First(&account, "user_id = ? AND provider_id = ?", userID, providerID), &account)
}

func (d *Driver) UpdateAccount(ctx context.Context, account *store.Account) error {
	return d.db.WithContext(ctx).Save(account).Error
}

// SessionStore implementation

func (d *Driver) CreateSession(ctx context.Context, session *store.Session) error {
	return d.db.WithContext(ctx).Create(session).Error
}

func (d *Driver) GetSessionByToken(ctx context.Context, token string) (*store.Session, error) {
	var session store.Session
	return firstOrNotFound(d.db.WithContext(ctx).First(&session, "token = ?", token), &session)
}

func (d *Driver) UpdateSession(ctx context.Context, session *store.Session) error {
	return d.db.WithContext(ctx).Save(session).Error
}

func (d *Driver) DeleteSessionByToken(ctx context.Context, token string) error {
	return d.db.WithContext(ctx).Delete(&store.Session{}, "token = ?", token).Error
}

func (d *Driver) DeleteSessionsByUser(ctx context.Context, userID string) error {
	return d.db.WithContext(ctx).Delete(&store.Session{}, "user_id = ?", userID).Error
}

func (d *Driver) DeleteExpiredSessions(ctx context.Context) (int, error) {
	result := d.db.WithContext(ctx).Delete(&store.Session{}, "expires_at < ?", time.Now())
	return int(result.RowsAffected), result.Error
}

// VerificationStore implementation

func (d *Driver) CreateVerification(ctx context.Context, v *store.Verification) error {
	return d.db.WithContext(ctx).Create(v).Error
}

func (d *Driver) GetVerificationByValue(ctx context.Context, value string) (*store.Verification, error) {
	var v store.Verification
	return firstOrNotFound(d.db.WithContext(ctx).First(&v, "value = ?", value), &v)
}

func (d *Driver) DeleteVerification(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).Delete(&store.Verification{}, "id = ?", id).Error
}

func (d *Driver) DeleteExpiredVerifications(ctx context.Context) (int, error) {
	result := d.db.WithContext(ctx).Delete(&store.Verification{}, "expires_at < ?", time.Now())
	return int(result.RowsAffected), result.Error
}

// OrgStore implementation

func (d *Driver) CreateOrganization(ctx context.Context, org *store.Organization) error {
	var count int64
	if err := d.db.WithContext(ctx).Model(&store.Organization{}).Where("slug = ?", org.Slug).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return store.ErrAlreadyExists
	}
	return d.db.WithContext(ctx).Create(org).Error
}

func (d *Driver) GetOrganization(ctx context.Context, id string) (*store.Organization, error) {
	var org store.Organization
	return firstOrNotFound(d.db.WithContext(ctx).First(&org, "id = ?", id), &org)
}

func (d *Driver) ListOrganizationsByUser(ctx context.Context, userID string) ([]*store.Organization, error) {
	var orgs []*store.Organization
	err := d.db.WithContext(ctx).
		Joins("JOIN members ON members.organization_id = organizations.id").
		Where("members.user_id = ?", userID).
		Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

func (d *Driver) CreateMember(ctx context.Context, member *store.Member) error {
	return d.db.WithContext(ctx).Create(member).Error
}

func (d *Driver) GetMember(ctx context.Context, id string) (*store.Member, error) {
	var member store.Member
	return firstOrNotFound(d.db.WithContext(ctx).First(&member, "id = ?", id), &member)
}

func (d *Driver) GetMemberByOrgAndUser(ctx context.Context, orgID, userID string) (*store.Member, error) {
	var member store.Member
	return firstOrNotFound(d.db.WithContext(ctx).First(&member, "organization_id = ? AND user_id = ?", orgID, userID), &member)
}

func (d *Driver) DeleteMember(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Delete(&store.Member{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (d *Driver) ListMembers(ctx context.Context, orgID string) ([]*store.Member, error) {
	var members []*store.Member
	if err := d.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("created_at").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (d *Driver) CreateInvitation(ctx context.Context, inv *store.Invitation) error {
	return d.db.WithContext(ctx).Create(inv).Error
}

func (d *Driver) GetInvitation(ctx context.Context, id string) (*store.Invitation, error) {
	var inv store.Invitation
	return firstOrNotFound(d.db.WithContext(ctx).First(&inv, "id = ?", id), &inv)
}

func (d *Driver) UpdateInvitation(ctx context.Context, inv *store.Invitation) error {
	return d.db.WithContext(ctx).Save(inv).Error
}

func (d *Driver) ListInvitations(ctx context.Context, orgID string) ([]*store.Invitation, error) {
	var invs []*store.Invitation
	if err := d.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("created_at").Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

// LeagueStore implementation

func (d *Driver) CreateLeague(ctx context.Context, l *store.League) error {
	return d.db.WithContext(ctx).Create(l).Error
}

func (d *Driver) GetLeague(ctx context.Context, id uint) (*store.League, error) {
	var l store.League
	return firstOrNotFound(d.db.WithContext(ctx).First(&l, "id = ?", id), &l)
}

func (d *Driver) UpdateLeague(ctx context.Context, l *store.League) error {
	return d.db.WithContext(ctx).Save(l).Error
}

func (d *Driver) DeleteLeague(ctx context.Context, id uint) error {
	return deleteByID(d.db.WithContext(ctx), &store.League{}, id)
}

func (d *Driver) ListLeagues(ctx context.Context, orgID string) ([]*store.League, error) {
	var leagues []*store.League
	if err := d.db.WithContext(ctx).Where("organization_id = ?", orgID).Find(&leagues).Error; err != nil {
		return nil, err
	}
	return leagues, nil
}

func (d *Driver) CreateTeam(ctx context.Context, t *store.Team) error {
	return d.db.WithContext(ctx).Create(t).Error
}

func (d *Driver) GetTeam(ctx context.Context, id uint) (*store.Team, error) {
	var t store.Team
	return firstOrNotFound(d.db.WithContext(ctx).First(&t, "id = ?", id), &t)
}

func (d *Driver) UpdateTeam(ctx context.Context, t *store.Team) error {
	return d.db.WithContext(ctx).Save(t).Error
}

func (d *Driver) DeleteTeam(ctx context.Context, id uint) error {
	return deleteByID(d.db.WithContext(ctx), &store.Team{}, id)
}

func (d *Driver) ListTeams(ctx context.Context, leagueID uint) ([]*store.Team, error) {
	var teams []*store.Team
	if err := d.db.WithContext(ctx).Where("league_id = ?", leagueID).Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (d *Driver) CreatePlayer(ctx context.Context, p *store.Player) error {
	return d.db.WithContext(ctx).Create(p).Error
}

func (d *Driver) GetPlayer(ctx context.Context, id uint) (*store.Player, error) {
	var p store.Player
	return firstOrNotFound(d.db.WithContext(ctx).First(&p, "id = ?", id), &p)
}

func (d *Driver) UpdatePlayer(ctx context.Context, p *store.Player) error {
	return d.db.WithContext(ctx).Save(p).Error
}

func (d *Driver) DeletePlayer(ctx context.Context, id uint) error {
	return deleteByID(d.db.WithContext(ctx), &store.Player{}, id)
}

func (d *Driver) ListPlayers(ctx context.Context, teamID uint) ([]*store.Player, error) {
	var players []*store.Player
	if err := d.db.WithContext(ctx).Where("team_id = ?", teamID).Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (d *Driver) CreateGame(ctx context.Context, g *store.Game) error {
	return d.db.WithContext(ctx).Create(g).Error
}

func (d *Driver) GetGame(ctx context.Context, id uint) (*store.Game, error) {
	var g store.Game
	return firstOrNotFound(d.db.WithContext(ctx).First(&g, "id = ?", id), &g)
}

func (d *Driver) UpdateGame(ctx context.Context, g *store.Game) error {
	return d.db.WithContext(ctx).Save(g).Error
}

func (d *Driver) DeleteGame(ctx context.Context, id uint) error {
	return deleteByID(d.db.WithContext(ctx), &store.Game{}, id)
}

func (d *Driver) ListGames(ctx context.Context, leagueID uint) ([]*store.Game, error) {
	var games []*store.Game
	if err := d.db.WithContext(ctx).Where("league_id = ?", leagueID).Order("start_time").Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (d *Driver) CreateReferee(ctx context.Context, ref *store.Referee) error {
	return d.db.WithContext(ctx).Create(ref).Error
}

func (d *Driver) DeleteReferee(ctx context.Context, id uint) error {
	return deleteByID(d.db.WithContext(ctx), &store.Referee{}, id)
}

func (d *Driver) ListReferees(ctx context.Context, orgID string) ([]*store.Referee, error) {
	var refs []*store.Referee
	if err := d.db.WithContext(ctx).Where("organization_id = ?", orgID).Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

func (d *Driver) CreatePlayerStat(ctx context.Context, s *store.PlayerStat) error {
	return d.db.WithContext(ctx).Create(s).Error
}

func (d *Driver) ListPlayerStatsByGame(ctx context.Context, gameID uint) ([]*store.PlayerStat, error) {
	var stats []*store.PlayerStat
	if err := d.db.WithContext(ctx).Where("game_id = ?", gameID).Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (d *Driver) CreateTeamStat(ctx context.Context, s *store.TeamStat) error {
	return d.db.WithContext(ctx).Create(s).Error
}

func (d *Driver) ListTeamStatsByGame(ctx context.Context, gameID uint) ([]*store.TeamStat, error) {
	var stats []*store.TeamStat
	if err := d.db.WithContext(ctx).Where("game_id = ?", gameID).Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// firstOrNotFound maps gorm.ErrRecordNotFound to store.ErrNotFound.
func firstOrNotFound[T any](result *gorm.DB, out *T) (*T, error) {
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrNotFound
		}
		return nil, result.Error
	}
	return out, nil
}

func deleteByID(db *gorm.DB, model any, id uint) error {
	result := db.Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
