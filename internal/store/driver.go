// Package store provides persistence primitives and driver abstractions.
package store

import (
	"context"
	"errors"
	"time"
)

// Common errors for store operations.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrClosed        = errors.New("store closed")
)

// Driver defines the interface for a persistence backend.
// Implementations must be safe for concurrent use.
type Driver interface {
	// Init initializes the driver (create tables, open files, etc).
	Init(ctx context.Context) error

	// Close releases resources held by the driver.
	Close() error

	// Name returns the driver name (memory, sqlite).
	Name() string
}

// UserStore defines operations for user and credential persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error

	CreateAccount(ctx context.Context, account *Account) error
	GetAccountByUser(ctx context.Context, userID, providerID string) (*Account, error)
	UpdateAccount(ctx context.Context, account *Account) error
}

// SessionStore defines operations for session persistence.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByToken(ctx context.Context, token string) (*Session, error)
	UpdateSession(ctx context.Context, session *Session) error
	DeleteSessionByToken(ctx context.Context, token string) error
	DeleteSessionsByUser(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

// VerificationStore defines operations for one-time verification tokens
// (email verification, password reset).
type VerificationStore interface {
	CreateVerification(ctx context.Context, v *Verification) error
	GetVerificationByValue(ctx context.Context, value string) (*Verification, error)
	DeleteVerification(ctx context.Context, id string) error
	DeleteExpiredVerifications(ctx context.Context) (int, error)
}

// OrgStore defines operations for organizations, members and invitations.
type OrgStore interface {
	CreateOrganization(ctx context.Context, org *Organization) error
	GetOrganization(ctx context.Context, id string) (*Organization, error)
	ListOrganizationsByUser(ctx context.Context, userID string) ([]*Organization, error)

	CreateMember(ctx context.Context, member *Member) error
	GetMember(ctx context.Context, id string) (*Member, error)
	GetMemberByOrgAndUser(ctx context.Context, orgID, userID string) (*Member, error)
	DeleteMember(ctx context.Context, id string) error
	ListMembers(ctx context.Context, orgID string) ([]*Member, error)

	CreateInvitation(ctx context.Context, inv *Invitation) error
	GetInvitation(ctx context.Context, id string) (*Invitation, error)
	UpdateInvitation(ctx context.Context, inv *Invitation) error
	ListInvitations(ctx context.Context, orgID string) ([]*Invitation, error)
}

// LeagueStore defines operations for the league domain.
type LeagueStore interface {
	CreateLeague(ctx context.Context, l *League) error
	GetLeague(ctx context.Context, id uint) (*League, error)
	UpdateLeague(ctx context.Context, l *League) error
	DeleteLeague(ctx context.Context, id uint) error
	ListLeagues(ctx context.Context, orgID string) ([]*League, error)

	CreateTeam(ctx context.Context, t *Team) error
	GetTeam(ctx context.Context, id uint) (*Team, error)
	UpdateTeam(ctx context.Context, t *Team) error
	DeleteTeam(ctx context.Context, id uint) error
	ListTeams(ctx context.Context, leagueID uint) ([]*Team, error)

	CreatePlayer(ctx context.Context, p *Player) error
	GetPlayer(ctx context.Context, id uint) (*Player, error)
	UpdatePlayer(ctx context.Context, p *Player) error
	DeletePlayer(ctx context.Context, id uint) error
	ListPlayers(ctx context.Context, teamID uint) ([]*Player, error)

	CreateGame(ctx context.Context, g *Game) error
	GetGame(ctx context.Context, id uint) (*Game, error)
	UpdateGame(ctx context.Context, g *Game) error
	DeleteGame(ctx context.Context, id uint) error
	ListGames(ctx context.Context, leagueID uint) ([]*Game, error)

	CreateReferee(ctx context.Context, ref *Referee) error
	DeleteReferee(ctx context.Context, id uint) error
	ListReferees(ctx context.Context, orgID string) ([]*Referee, error)

	CreatePlayerStat(ctx context.Context, s *PlayerStat) error
	ListPlayerStatsByGame(ctx context.Context, gameID uint) ([]*PlayerStat, error)
	CreateTeamStat(ctx context.Context, s *TeamStat) error
	ListTeamStatsByGame(ctx context.Context, gameID uint) ([]*TeamStat, error)
}

// User represents an account holder.
type User struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name"`
	Email         string    `json:"email" gorm:"uniqueIndex"`
	EmailVerified bool      `json:"email_verified"`
	Image         string    `json:"image,omitempty"`
	Role          string    `json:"role"` // instance-level role: user, admin
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Account holds provider credentials for a user. For the credential
// provider the Password field carries the bcrypt hash.
type Account struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	ProviderID string    `json:"provider_id" gorm:"index:idx_account_user_provider"`
	UserID     string    `json:"user_id" gorm:"index:idx_account_user_provider"`
	Password   string    `json:"-"` // bcrypt hash, never serialized
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProviderCredential is the provider id for email+password accounts.
const ProviderCredential = "credential"

// Session represents an authenticated session. The token is the opaque
// credential delivered via cookie.
type Session struct {
	ID                   string    `json:"id" gorm:"primaryKey"`
	Token                string    `json:"token" gorm:"uniqueIndex"`
	UserID               string    `json:"user_id" gorm:"index"`
	ActiveOrganizationID string    `json:"active_organization_id,omitempty"`
	IPAddress            string    `json:"ip_address,omitempty"`
	UserAgent            string    `json:"user_agent,omitempty"`
	ExpiresAt            time.Time `json:"expires_at"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Verification identifier kinds.
const (
	VerifyEmail   = "email-verification"
	VerifyPwReset = "password-reset"
)

// Verification is a one-time token (email verification, password reset).
type Verification struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Identifier string    `json:"identifier"` // "<kind>:<userID>"
	Value      string    `json:"value" gorm:"uniqueIndex"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsExpired returns true if the verification token has expired.
func (v *Verification) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

// Organization is a tenant grouping of users sharing roster and permissions.
type Organization struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug" gorm:"uniqueIndex"`
	Logo      string    `json:"logo,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a confirmed, role-bearing participant in an organization.
type Member struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	OrganizationID string    `json:"organization_id" gorm:"index"`
	UserID         string    `json:"user_id" gorm:"index"`
	Role           string    `json:"role"` // owner, admin, member
	CreatedAt      time.Time `json:"created_at"`
}

// Invitation statuses. A new invitation to the same email supersedes a
// terminal one; terminal rows are never mutated afterwards.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusCanceled = "canceled"
	InviteStatusExpired  = "expired"
)

// Invitation is an outstanding or resolved offer of membership sent to
// an email address, not necessarily tied to a user account yet.
type Invitation struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	OrganizationID string    `json:"organization_id" gorm:"index"`
	Email          string    `json:"email" gorm:"index"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expires_at"`
	InviterID      string    `json:"inviter_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// League domain models, scoped to an organization.

type League struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	OrganizationID string    `json:"organization_id" gorm:"index"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
}

type Team struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	LeagueID  uint   `json:"league_id" gorm:"index"`
	Name      string `json:"name"`
	CaptainID uint   `json:"captain_id,omitempty"`
}

type Player struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	TeamID      uint   `json:"team_id" gorm:"index"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type Game struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	LeagueID   uint      `json:"league_id" gorm:"index"`
	HomeTeamID uint      `json:"home_team_id"`
	AwayTeamID uint      `json:"away_team_id"`
	StartTime  time.Time `json:"start_time"`
	Location   string    `json:"location,omitempty"`
}

type Referee struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	OrganizationID string `json:"organization_id" gorm:"index"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number,omitempty"`
}

type PlayerStat struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	PlayerID  uint `json:"player_id" gorm:"index"`
	GameID    uint `json:"game_id" gorm:"index"`
	Goals     int  `json:"goals"`
	Assists   int  `json:"assists"`
	Blocks    int  `json:"blocks"`
	Turnovers int  `json:"turnovers"`
}

type TeamStat struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	TeamID      uint     `json:"team_id" gorm:"index"`
	GameID      uint     `json:"game_id" gorm:"index"`
	Score       int      `json:"score"`
	SpiritScore *float64 `json:"spirit_score,omitempty"`
}
