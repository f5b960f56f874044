// Package org implements organization membership, invitations and the
// roster projection that merges the two.
package org

import (
	"errors"
	"fmt"
	"time"

	"github.com/openleague/openleague-go/internal/store"
)

// StatusActive marks roster entries backed by an actual membership, as
// opposed to an invitation status.
const StatusActive = "active"

// ErrMissingUserProfile means a member row has no matching user. That
// is a data-integrity problem, never silently skipped.
var ErrMissingUserProfile = errors.New("member has no user profile")

// RosterEntry is one person associated with an organization: either an
// active member or the winning invitation for an email. It is a
// request-scoped projection, never persisted.
type RosterEntry struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organization_id"`
	Email          string      `json:"email"`
	Role           string      `json:"role"`
	Status         string      `json:"status"`
	CreatedAt      *time.Time  `json:"created_at,omitempty"`
	ExpiresAt      *time.Time  `json:"expires_at,omitempty"`
	InviterID      string      `json:"inviter_id,omitempty"`
	User           *store.User `json:"user,omitempty"`
}

// Reconcile merges an organization's members and invitations into a
// deduplicated roster keyed by email. Members always win; among
// invitations for the same email the one with the strictly later
// defined expiry wins. Pure function of its inputs.
//
// users maps user id to profile and must cover every member; a member
// without a profile fails with ErrMissingUserProfile.
func Reconcile(members []*store.Member, users map[string]*store.User, invitations []*store.Invitation) ([]*RosterEntry, error) {
	entries := make(map[string]*RosterEntry, len(members)+len(invitations))
	var order []string

	for _, m := range members {
		user, ok := users[m.UserID]
		if !ok || user == nil {
			return nil, fmt.Errorf("%w: member %s (user %s)", ErrMissingUserProfile, m.ID, m.UserID)
		}
		createdAt := m.CreatedAt
		if _, seen := entries[user.Email]; !seen {
			order = append(order, user.Email)
		}
		entries[user.Email] = &RosterEntry{
			ID:             m.ID,
			OrganizationID: m.OrganizationID,
			Email:          user.Email,
			Role:           m.Role,
			Status:         StatusActive,
			CreatedAt:      &createdAt,
			User:           user,
		}
	}

	for _, inv := range invitations {
		existing, seen := entries[inv.Email]
		if seen && !invitationWins(inv, existing) {
			continue
		}
		if !seen {
			order = append(order, inv.Email)
		}
		entry := &RosterEntry{
			ID:             inv.ID,
			OrganizationID: inv.OrganizationID,
			Email:          inv.Email,
			Role:           inv.Role,
			Status:         inv.Status,
			InviterID:      inv.InviterID,
		}
		if !inv.CreatedAt.IsZero() {
			createdAt := inv.CreatedAt
			entry.CreatedAt = &createdAt
		}
		if !inv.ExpiresAt.IsZero() {
			expiresAt := inv.ExpiresAt
			entry.ExpiresAt = &expiresAt
		}
		entries[inv.Email] = entry
	}

	roster := make([]*RosterEntry, 0, len(order))
	for _, email := range order {
		roster = append(roster, entries[email])
	}
	return roster, nil
}

// invitationWins reports whether inv replaces the existing entry for
// the same email. It never replaces an active membership; otherwise it
// needs a defined expiry that is strictly later than the existing one
// (or the existing entry has none).
func invitationWins(inv *store.Invitation, existing *RosterEntry) bool {
	if existing.Status == StatusActive {
		return false
	}
	if inv.ExpiresAt.IsZero() {
		return false
	}
	if existing.ExpiresAt == nil {
		return true
	}
	return inv.ExpiresAt.After(*existing.ExpiresAt)
}
