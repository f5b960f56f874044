// Package memory implements an in-memory persistence driver.
// Data does not survive restarts; intended for tests and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/openleague/openleague-go/internal/store"
)

func init() {
	store.Register("memory", NewDriver)
}

// Driver implements the store interfaces with in-process maps.
type Driver struct {
	mu sync.RWMutex

	users         map[string]*store.User
	usersByEmail  map[string]string
	accounts      map[string]*store.Account
	sessions      map[string]*store.Session // by token
	verifications map[string]*store.Verification
	orgs          map[string]*store.Organization
	members       map[string]*store.Member
	invitations   map[string]*store.Invitation

	leagues     map[uint]*store.League
	teams       map[uint]*store.Team
	players     map[uint]*store.Player
	games       map[uint]*store.Game
	referees    map[uint]*store.Referee
	playerStats map[uint]*store.PlayerStat
	teamStats   map[uint]*store.TeamStat
	nextID      uint
}

// NewDriver creates a new in-memory driver instance.
func NewDriver(cfg *store.DriverConfig) (store.Store, error) {
	return New(), nil
}

// New creates an empty in-memory driver, ready for use without Init.
func New() *Driver {
	return &Driver{
		users:         make(map[string]*store.User),
		usersByEmail:  make(map[string]string),
		accounts:      make(map[string]*store.Account),
		sessions:      make(map[string]*store.Session),
		verifications: make(map[string]*store.Verification),
		orgs:          make(map[string]*store.Organization),
		members:       make(map[string]*store.Member),
		invitations:   make(map[string]*store.Invitation),
		leagues:       make(map[uint]*store.League),
		teams:         make(map[uint]*store.Team),
		players:       make(map[uint]*store.Player),
		games:         make(map[uint]*store.Game),
		referees:      make(map[uint]*store.Referee),
		playerStats:   make(map[uint]*store.PlayerStat),
		teamStats:     make(map[uint]*store.TeamStat),
	}
}

func (d *Driver) Name() string                  { return "memory" }
func (d *Driver) Init(ctx context.Context) error { return nil }
func (d *Driver) Close() error                  { return nil }

func (d *Driver) allocID() uint {
	d.nextID++
	return d.nextID
}

// UserStore implementation

func (d *Driver) CreateUser(ctx context.Context, user *store.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.usersByEmail[user.Email]; exists {
		return store.ErrAlreadyExists
	}
	u := *user
	d.users[user.ID] = &u
	d.usersByEmail[user.Email] = user.ID
	return nil
}

func (d *Driver) GetUser(ctx context.Context, id string) (*store.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (d *Driver) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.usersByEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := *d.users[id]
	return &u, nil
}

func (d *Driver) UpdateUser(ctx context.Context, user *store.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, ok := d.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	if existing.Email != user.Email {
		delete(d.usersByEmail, existing.Email)
		d.usersByEmail[user.Email] = user.ID
	}
	u := *user
	d.users[user.ID] = &u
	return nil
}

func (d *Driver) CreateAccount(ctx context.Context, account *store.Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	a := *account
	d.accounts[account.ID] = &a
	return nil
}

func (d *Driver) GetAccountByUser(ctx context.Context, userID, providerID string) (*store.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, a := range d.accounts {
		if a.UserID == userID && a.ProviderID == providerID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *Driver) UpdateAccount(ctx context.Context, account *store.Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.accounts[account.ID]; !ok {
		return store.ErrNotFound
	}
	a := *account
	d.accounts[account.ID] = &a
	return nil
}

// SessionStore implementation

func (d *Driver) CreateSession(ctx context.Context, session *store.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := *session
	d.sessions[session.Token] = &s
	return nil
}

func (d *Driver) GetSessionByToken(ctx context.Context, token string) (*store.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	session, ok := d.sessions[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	s := *session
	return &s, nil
}

func (d *Driver) UpdateSession(ctx context.Context, session *store.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sessions[session.Token]; !ok {
		return store.ErrNotFound
	}
	s := *session
	d.sessions[session.Token] = &s
	return nil
}

func (d *Driver) DeleteSessionByToken(ctx context.Context, token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.sessions, token)
	return nil
}

func (d *Driver) DeleteSessionsByUser(ctx context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for token, s := range d.sessions {
		if s.UserID == userID {
			delete(d.sessions, token)
		}
	}
	return nil
}

func (d *Driver) DeleteExpiredSessions(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var count int
	now := time.Now()
	for token, s := range d.sessions {
		if now.After(s.ExpiresAt) {
			delete(d.sessions, token)
			count++
		}
	}
	return count, nil
}

// VerificationStore implementation

func (d *Driver) CreateVerification(ctx context.Context, v *store.Verification) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cp := *v
	d.verifications[v.ID] = &cp
	return nil
}

func (d *Driver) GetVerificationByValue(ctx context.Context, value string) (*store.Verification, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, v := range d.verifications {
		if v.Value == value {
			cp := *v
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *Driver) DeleteVerification(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.verifications, id)
	return nil
}

func (d *Driver) DeleteExpiredVerifications(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var count int
	now := time.Now()
	for id, v := range d.verifications {
		if now.After(v.ExpiresAt) {
			delete(d.verifications, id)
			count++
		}
	}
	return count, nil
}

// OrgStore implementation

func (d *Driver) CreateOrganization(ctx context.Context, org *store.Organization) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, o := range d.orgs {
		if o.Slug != "" && o.Slug == org.Slug {
			return store.ErrAlreadyExists
		}
	}
	o := *org
	d.orgs[org.ID] = &o
	return nil
}

func (d *Driver) GetOrganization(ctx context.Context, id string) (*store.Organization, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	org, ok := d.orgs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o := *org
	return &o, nil
}

func (d *Driver) ListOrganizationsByUser(ctx context.Context, userID string) ([]*store.Organization, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*store.Organization
	for _, m := range d.members {
		if m.UserID != userID {
			continue
		}
		if org, ok := d.orgs[m.OrganizationID]; ok {
			o := *org
			result = append(result, &o)
		}
	}
	return result, nil
}

func (d *Driver) CreateMember(ctx context.Context, member *store.Member) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	m := *member
	d.members[member.ID] = &m
	return nil
}

func (d *Driver) GetMember(ctx context.Context, id string) (*store.Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	member, ok := d.members[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m := *member
	return &m, nil
}

func (d *Driver) GetMemberByOrgAndUser(ctx context.Context, orgID, userID string) (*store.Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, m := range d.members {
		if m.OrganizationID == orgID && m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *Driver) DeleteMember(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.members[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.members, id)
	return nil
}

func (d *Driver) ListMembers(ctx context.Context, orgID string) ([]*store.Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*store.Member
	for _, m := range d.members {
		if m.OrganizationID == orgID {
			cp := *m
			result = append(result, &cp)
		}
	}
	sortByCreatedAt(result, func(m *store.Member) time.Time { return m.CreatedAt })
	return result, nil
}

func (d *Driver) CreateInvitation(ctx context.Context, inv *store.Invitation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cp := *inv
	d.invitations[inv.ID] = &cp
	return nil
}

func (d *Driver) GetInvitation(ctx context.Context, id string) (*store.Invitation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	inv, ok := d.invitations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (d *Driver) UpdateInvitation(ctx context.Context, inv *store.Invitation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.invitations[inv.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *inv
	d.invitations[inv.ID] = &cp
	return nil
}

func (d *Driver) ListInvitations(ctx context.Context, orgID string) ([]*store.Invitation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*store.Invitation
	for _, inv := range d.invitations {
		if inv.OrganizationID == orgID {
			cp := *inv
			result = append(result, &cp)
		}
	}
	sortByCreatedAt(result, func(i *store.Invitation) time.Time { return i.CreatedAt })
	return result, nil
}

// sortByCreatedAt orders rows oldest-first to match the sqlite driver.
func sortByCreatedAt[T any](items []T, at func(T) time.Time) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && at(items[j]).Before(at(items[j-1])); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}
