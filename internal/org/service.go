package org

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openleague/openleague-go/internal/cache"
	"github.com/openleague/openleague-go/internal/email"
	"github.com/openleague/openleague-go/internal/identity"
	"github.com/openleague/openleague-go/internal/store"
)

// Service errors surfaced to handlers.
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrNotMember            = errors.New("user is not a member of the organization")
	ErrInvitationInvalid    = errors.New("invitation invalid or expired")
	ErrSlugTaken            = errors.New("organization slug already in use")
)

// DefaultInvitationTTL bounds how long an invitation can be accepted.
const DefaultInvitationTTL = 48 * time.Hour

// Store is the persistence surface the service needs. User lookups are
// required to attach profiles to roster entries.
type Store interface {
	store.OrgStore
	store.UserStore
}

// Service implements organization membership, invitations and the
// roster projection.
type Service struct {
	store         Store
	cache         cache.Cache
	sender        email.Sender
	logger        *slog.Logger
	baseURL       string
	invitationTTL time.Duration
}

// ServiceOpts configures a Service.
type ServiceOpts struct {
	Store   Store
	Cache   cache.Cache
	Sender  email.Sender
	Logger  *slog.Logger
	BaseURL string

	// Zero falls back to DefaultInvitationTTL.
	InvitationTTL time.Duration
}

// NewService creates the organization service. Cache and Sender are
// optional; a nil cache disables roster caching.
func NewService(opts ServiceOpts) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("org: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.InvitationTTL <= 0 {
		opts.InvitationTTL = DefaultInvitationTTL
	}
	return &Service{
		store:         opts.Store,
		cache:         opts.Cache,
		sender:        opts.Sender,
		logger:        opts.Logger,
		baseURL:       opts.BaseURL,
		invitationTTL: opts.InvitationTTL,
	}, nil
}

// FullOrganization is an organization with its members and pending
// invitations attached.
type FullOrganization struct {
	*store.Organization
	Members     []*store.Member     `json:"members"`
	Invitations []*store.Invitation `json:"invitations"`
}

// ListOrganizations returns the organizations the user belongs to.
func (s *Service) ListOrganizations(ctx context.Context, userID string) ([]*store.Organization, error) {
	orgs, err := s.store.ListOrganizationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// GetFullOrganization loads an organization with members and
// invitations. Returns (nil, nil) when the id is empty or unknown:
// having no active organization is a legitimate state on read paths.
func (s *Service) GetFullOrganization(ctx context.Context, orgID string) (*FullOrganization, error) {
	if orgID == "" {
		return nil, nil
	}
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	members, err := s.store.ListMembers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	invitations, err := s.store.ListInvitations(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	return &FullOrganization{
		Organization: org,
		Members:      members,
		Invitations:  invitations,
	}, nil
}

// CreateOrganization creates an organization with the creator as its
// owner.
func (s *Service) CreateOrganization(ctx context.Context, userID, name, slug string) (*store.Organization, error) {
	if name == "" {
		return nil, errors.New("organization name is required")
	}

	now := time.Now().UTC()
	org := &store.Organization{
		ID:        identity.NewID(identity.KindOrganization),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
	}
	if err := s.store.CreateOrganization(ctx, org); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	owner := &store.Member{
		ID:             identity.NewID(identity.KindMember),
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           "owner",
		CreatedAt:      now,
	}
	if err := s.store.CreateMember(ctx, owner); err != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	s.logger.Info("organization created", "org", org.ID, "owner", userID)
	return org, nil
}

// SetActiveOrganization validates membership and records orgID on the
// session. An empty orgID clears the active organization.
func (s *Service) SetActiveOrganization(ctx context.Context, sessions store.SessionStore, session *store.Session, orgID string) (*FullOrganization, error) {
	if orgID == "" {
		session.ActiveOrganizationID = ""
		session.UpdatedAt = time.Now().UTC()
		if err := sessions.UpdateSession(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to update session: %w", err)
		}
		return nil, nil
	}

	if _, err := s.store.GetOrganization(ctx, orgID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if _, err := s.store.GetMemberByOrgAndUser(ctx, orgID, session.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	session.ActiveOrganizationID = orgID
	session.UpdatedAt = time.Now().UTC()
	if err := sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return s.GetFullOrganization(ctx, orgID)
}

// InviteMember creates a pending invitation and notifies the invitee.
func (s *Service) InviteMember(ctx context.Context, orgID, inviterID, emailAddr, role string) (*store.Invitation, error) {
	emailAddr = identity.NormalizeEmail(emailAddr)
	if emailAddr == "" {
		return nil, errors.New("invitee email is required")
	}
	if role == "" {
		role = "member"
	}

	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	now := time.Now().UTC()
	inv := &store.Invitation{
		ID:             identity.NewID(identity.KindInvitation),
		OrganizationID: orgID,
		Email:          emailAddr,
		Role:           role,
		Status:         store.InviteStatusPending,
		ExpiresAt:      now.Add(s.invitationTTL),
		InviterID:      inviterID,
		CreatedAt:      now,
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	s.invalidateRoster(ctx, orgID)

	if s.sender != nil {
		msg := email.Message{
			To:      emailAddr,
			Subject: fmt.Sprintf("You're invited to join %s", org.Name),
			Body:    fmt.Sprintf("You have been invited to join %s.\n\nAccept the invitation:\n%s/accept-invitation/%s\n", org.Name, s.baseURL, inv.ID),
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.Error("failed to send invitation email", "invitation", inv.ID, "error", err)
		}
	}

	s.logger.Info("member invited", "org", orgID, "invitation", inv.ID)
	return inv, nil
}

// AcceptInvitation turns a pending invitation into a membership. The
// accepting user's email must match the invitation.
func (s *Service) AcceptInvitation(ctx context.Context, invitationID string, user *store.User) (*store.Member, error) {
	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvitationInvalid
		}
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}
	if inv.Status != store.InviteStatusPending {
		return nil, ErrInvitationInvalid
	}
	if !inv.ExpiresAt.IsZero() && time.Now().After(inv.ExpiresAt) {
		inv.Status = store.InviteStatusExpired
		_ = s.store.UpdateInvitation(ctx, inv)
		return nil, ErrInvitationInvalid
	}
	if identity.NormalizeEmail(user.Email) != inv.Email {
		return nil, ErrInvitationInvalid
	}

	member := &store.Member{
		ID:             identity.NewID(identity.KindMember),
		OrganizationID: inv.OrganizationID,
		UserID:         user.ID,
		Role:           inv.Role,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	inv.Status = store.InviteStatusAccepted
	if err := s.store.UpdateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}
	s.invalidateRoster(ctx, inv.OrganizationID)

	s.logger.Info("invitation accepted", "org", inv.OrganizationID, "member", member.ID)
	return member, nil
}

// CancelInvitation marks a pending invitation canceled.
func (s *Service) CancelInvitation(ctx context.Context, invitationID string) error {
	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationInvalid
		}
		return fmt.Errorf("failed to load invitation: %w", err)
	}
	if inv.Status != store.InviteStatusPending {
		return ErrInvitationInvalid
	}

	inv.Status = store.InviteStatusCanceled
	if err := s.store.UpdateInvitation(ctx, inv); err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}
	s.invalidateRoster(ctx, inv.OrganizationID)

	s.logger.Info("invitation canceled", "org", inv.OrganizationID, "invitation", inv.ID)
	return nil
}

// RemoveMember deletes a membership.
func (s *Service) RemoveMember(ctx context.Context, orgID, memberID string) error {
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("failed to load member: %w", err)
	}
	if member.OrganizationID != orgID {
		return ErrNotMember
	}

	if err := s.store.DeleteMember(ctx, memberID); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	s.invalidateRoster(ctx, orgID)

	s.logger.Info("member removed", "org", orgID, "member", memberID)
	return nil
}

// Roster computes the deduplicated roster for an organization. Unlike
// other read paths, a missing organization is an error here: a roster
// without an organization is meaningless.
func (s *Service) Roster(ctx context.Context, orgID string) ([]*RosterEntry, error) {
	if orgID == "" {
		return nil, ErrOrganizationNotFound
	}

	if roster, ok := s.cachedRoster(ctx, orgID); ok {
		return roster, nil
	}

	if _, err := s.store.GetOrganization(ctx, orgID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	members, err := s.store.ListMembers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	invitations, err := s.store.ListInvitations(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	users := make(map[string]*store.User, len(members))
	for _, m := range members {
		if _, ok := users[m.UserID]; ok {
			continue
		}
		user, err := s.store.GetUser(ctx, m.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: member %s (user %s)", ErrMissingUserProfile, m.ID, m.UserID)
			}
			return nil, fmt.Errorf("failed to load member profile: %w", err)
		}
		users[m.UserID] = user
	}

	roster, err := Reconcile(members, users, invitations)
	if err != nil {
		return nil, err
	}

	s.storeRoster(ctx, orgID, roster)
	return roster, nil
}

// Role returns the user's role in the organization, or "" when the
// organization does not exist or the user is not a member.
func (s *Service) Role(ctx context.Context, orgID, userID string) (string, error) {
	if orgID == "" {
		return "", nil
	}
	members, err := s.store.ListMembers(ctx, orgID)
	if err != nil {
		return "", fmt.Errorf("failed to list members: %w", err)
	}
	return RoleOf(members, userID), nil
}

func rosterKey(orgID string) string {
	return "roster:" + orgID
}

func (s *Service) cachedRoster(ctx context.Context, orgID string) ([]*RosterEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, rosterKey(orgID))
	if err != nil {
		return nil, false
	}
	var roster []*RosterEntry
	if err := json.Unmarshal(raw, &roster); err != nil {
		s.logger.Warn("discarding malformed roster cache entry", "org", orgID, "error", err)
		_ = s.cache.Delete(ctx, rosterKey(orgID))
		return nil, false
	}
	return roster, true
}

func (s *Service) storeRoster(ctx context.Context, orgID string, roster []*RosterEntry) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(roster)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, rosterKey(orgID), raw, cache.TTLRoster); err != nil {
		s.logger.Warn("failed to cache roster", "org", orgID, "error", err)
	}
}

func (s *Service) invalidateRoster(ctx context.Context, orgID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, rosterKey(orgID)); err != nil {
		s.logger.Warn("failed to invalidate roster cache", "org", orgID, "error", err)
	}
}
