package org_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachememory "github.com/openleague/openleague-go/internal/cache/memory"
	"github.com/openleague/openleague-go/internal/identity"
	"github.com/openleague/openleague-go/internal/org"
	"github.com/openleague/openleague-go/internal/store"
	"github.com/openleague/openleague-go/internal/store/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*org.Service, *memory.Driver) {
	t.Helper()

	d := memory.New()
	c := cachememory.New(time.Minute, 0)
	t.Cleanup(func() { c.Close() })

	s, err := org.NewService(org.ServiceOpts{
		Store:   d,
		Cache:   c,
		Logger:  discardLogger(),
		BaseURL: "https://league.test",
	})
	require.NoError(t, err)
	return s, d
}

func seedUser(t *testing.T, d *memory.Driver, emailAddr string) *store.User {
	t.Helper()
	user := &store.User{
		ID:            identity.NewID(identity.KindUser),
		Name:          emailAddr,
		Email:         emailAddr,
		EmailVerified: true,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, d.CreateUser(context.Background(), user))
	return user
}

func TestCreateAndListOrganizations(t *testing.T) {
	s, d := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, d, "owner@x.com")
	created, err := s.CreateOrganization(ctx, owner.ID, "Summer League", "summer")
	require.NoError(t, err)
	assert.Regexp(t, `^o-`, created.ID)

	orgs, err := s.ListOrganizations(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, created.ID, orgs[0].ID)

	// Creator is the owner.
	role, err := s.Role(ctx, created.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", role)

	_, err = s.CreateOrganization(ctx, owner.ID, "Other", "summer")
	assert.ErrorIs(t, err, org.ErrSlugTaken)
}

func TestGetFullOrganization(t *testing.T) {
	s, d := newTestService(t)
	ctx := context.Background()

	// Absent organization reads as nil, not an error.
	full, err := s.GetFullOrganization(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, full)
	full, err = s.GetFullOrganization(ctx, "o-missing")
	require.NoError(t, err)
	assert.Nil(t, full)

	owner := seedUser(t, d, "owner@x.com")
	created, err := s.CreateOrganization(ctx, owner.ID, "Summer League", "summer")
	require.NoError(t, err)

	_, err = s.InviteMember(ctx, created.ID, owner.ID, "new@x.com", "member")
	require.NoError(t, err)

	full, err = s.GetFullOrganization(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, full)
	assert.Len(t, full.Members, 1)
	assert.Len(t, full.Invitations, 1)
}

func TestSetActiveOrganization(t *testing.T) {
	s, d := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, d, "owner@x.com")
	stranger := seedUser(t, d, "stranger@x.com")
	created, err := s.CreateOrganization(ctx, owner.ID, "Summer League", "summer")
	require.NoError(t, err)

	session := &store.Session{
		ID:        identity.NewID(identity.KindSession),
		Token:     "tok-1",
		UserID:    owner.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, d.CreateSession(ctx, session))

	full, err := s.SetActiveOrganization(ctx, d, session, created.ID)
	require.NoError(t, err)
	require.NotNil(t, full)
	assert.Equal(t, created.ID, session.ActiveOrganizationID)

	got, err := d.GetSessionByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ActiveOrganizationID)

	// Clearing the active organization.
	full, err = s.SetActiveOrganization(ctx, d, session, "")
	require.NoError(t, err)
	assert.Nil(t, full)
	got, _ = d.GetSessionByToken(ctx, "tok-1")
	assert.Empty(t, got.ActiveOrganizationID)

	// Non-members cannot activate the organization.
	strangerSession := &store.Session{
		ID:        identity.NewID(identity.KindSession),
		Token:     "tok-2",
		UserID:    stranger.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, d.CreateSession(ctx, strangerSession))
	_, err = s.SetActiveOrganization(ctx, d, strangerSession, created.ID)
	assert.ErrorIs(t, err, org.ErrNotMember)

	_, err = s.SetActiveOrganization(ctx, d, session, "o-missing")
	assert.ErrorIs(t, err, org.ErrOrganizationNotFound)
}

func TestInvitationLifecycle(t *testing.T) {
	s, d := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, d, "owner@x.com")
	invitee := seedUser(t, d, "invitee@x.com")
	created, err := s.CreateOrganization(ctx, owner.ID, "Summer League", "summer")
	require.NoError(t, err)

	inv, err := s.InviteMember(ctx, created.ID, owner.ID, "Invitee@X.COM", "member")
	require.NoError(t, err)
	assert.Equal(t, "invitee@x.com", inv.Email, "invitee email is normalized")
	assert.Equal(t, store.InviteStatusPending, inv.Status)
	assert.True(t, inv.ExpiresAt.After(time.Now()))

	member, err := s.AcceptInvitation(ctx, inv.ID, invitee)
	require.NoError(t, err)
	assert.Equal(t, "member", member.Role)
	assert.Equal(t, created.ID, member.OrganizationID)

	// Accepted invitations cannot be accepted again.
	_, err = s.AcceptInvitation(ctx, inv.ID, invitee)
	assert.ErrorIs(t, err, org.ErrInvitationInvalid)

	role, err := s.Role(ctx, created.ID, invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, "member", role)
}

func TestAcceptInvitationWrongEmail(t *testing.T) {
	s, d := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, d, "owner@x.com")
	imposter := seedUser(t, d, "imposter@x.com")
	created, err := s.CreateOrganization(ctx, owner.ID, "Summer League", "summer")
	require.NoError(t, err)

	inv, err := s.InviteMember(ctx, created.ID, owner.ID, "invitee@x.com", "member")
	require.NoError(t, err)

	_, err = s.AcceptInvitation(ctx, inv.ID, imposter)
	assert.ErrorIs(t, err, org.ErrInvitationInvalid)
}

func TestAcceptExpiredInvitation(t *testing.T) {
	s, d := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, d, "owner@x.com")
	invitee := seedUser(t, d, "invitee@x.com")
	created, err := s.CreateOrganization(ctx, owner.ID, "Summer League", "summer")
	require.NoError(t, err)

	inv := &store.Invitation{
		ID:             identity.NewID(identity.KindInvitation),
		OrganizationID: created.ID,
		Email:          "invitee@x.com",
		Role:           "member",
		Status:         store.InviteStatusPending,
		ExpiresAt:      time.Now().Add(-time.Hour),
		InviterID:      owner.ID,
		CreatedAt:      time.Now().Add(-49 * time.Hour),
	}
	require.NoError(t, d.CreateInvitation(ctx, inv))

	_, err = s.AcceptInvitation(ctx, inv.ID, invitee)
	assert.ErrorIs(t, err, org.ErrInvitationInvalid)

	// The stale invitation was marked expired.
	got, err := d.GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, store.InviteStatusExpired, got.Status)
}

func TestCancelInvitation(t *testing.T) {
	s, d := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, d, "owner@x.com")
	created, err := s.CreateOrganization(ctx, owner.ID, "Summer League", "summer")
	require.NoError(t, err)

	inv, err := s.InviteMember(ctx, created.ID, owner.ID, "invitee@x.com", "member")
	require.NoError(t, err)

	require.NoError(t, s.CancelInvitation(ctx, inv.ID))
	got, err := d.GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, store.InviteStatusCanceled, got.Status)

	// Canceled invitations cannot be canceled again or accepted.
	assert.ErrorIs(t, s.CancelInvitation(ctx, inv.ID), org.ErrInvitationInvalid)
	assert.ErrorIs(t, s.CancelInvitation(ctx, "i-missing"), org.ErrInvitationInvalid)
}

func TestRemoveMember(t *testing.T) {
	s, d := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, d, "owner@x.com")
	invitee := seedUser(t, d, "invitee@x.com")
	created, err := s.CreateOrganization(ctx, owner.ID, "Summer League", "summer")
	require.NoError(t, err)

	inv, err := s.InviteMember(ctx, created.ID, owner.ID, "invitee@x.com", "member")
	require.NoError(t, err)
	member, err := s.AcceptInvitation(ctx, inv.ID, invitee)
	require.NoError(t, err)

	require.NoError(t, s.RemoveMember(ctx, created.ID, member.ID))
	role, err := s.Role(ctx, created.ID, invitee.ID)
	require.NoError(t, err)
	assert.Empty(t, role)

	assert.ErrorIs(t, s.RemoveMember(ctx, created.ID, member.ID), org.ErrNotMember)
	// A member of another organization cannot be removed through this one.
	other, err := s.CreateOrganization(ctx, owner.ID, "Other", "other")
	require.NoError(t, err)
	otherMember, err := d.GetMemberByOrgAndUser(ctx, other.ID, owner.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, s.RemoveMember(ctx, created.ID, otherMember.ID), org.ErrNotMember)
}

func TestRosterMergesMembersAndInvitations(t *testing.T) {
	s, d := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, d, "owner@x.com")
	created, err := s.CreateOrganization(ctx, owner.ID, "Summer League", "summer")
	require.NoError(t, err)

	// Invite the owner's own email too: membership must win.
	_, err = s.InviteMember(ctx, created.ID, owner.ID, "owner@x.com", "member")
	require.NoError(t, err)
	_, err = s.InviteMember(ctx, created.ID, owner.ID, "new@x.com", "member")
	require.NoError(t, err)

	roster, err := s.Roster(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	byEmail := make(map[string]string)
	for _, e := range roster {
		byEmail[e.Email] = e.Status
	}
	assert.Equal(t, org.StatusActive, byEmail["owner@x.com"])
	assert.Equal(t, store.InviteStatusPending, byEmail["new@x.com"])
}

func TestRosterRequiresOrganization(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Roster(ctx, "")
	assert.ErrorIs(t, err, org.ErrOrganizationNotFound)
	_, err = s.Roster(ctx, "o-missing")
	assert.ErrorIs(t, err, org.ErrOrganizationNotFound)
}

func TestRosterCacheInvalidation(t *testing.T) {
	s, d := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, d, "owner@x.com")
	created, err := s.CreateOrganization(ctx, owner.ID, "Summer League", "summer")
	require.NoError(t, err)

	roster, err := s.Roster(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)

	// A mutation must show up in the next roster read despite caching.
	_, err = s.InviteMember(ctx, created.ID, owner.ID, "new@x.com", "member")
	require.NoError(t, err)

	roster, err = s.Roster(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 2)
}

func TestRoleLookupAbsence(t *testing.T) {
	s, d := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, d, "owner@x.com")
	created, err := s.CreateOrganization(ctx, owner.ID, "Summer League", "summer")
	require.NoError(t, err)

	// Unknown user, empty org id: absence reads as empty, never an error.
	role, err := s.Role(ctx, created.ID, "u-stranger")
	require.NoError(t, err)
	assert.Empty(t, role)
	role, err = s.Role(ctx, "", owner.ID)
	require.NoError(t, err)
	assert.Empty(t, role)
}
