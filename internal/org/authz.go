package org

import "github.com/openleague/openleague-go/internal/store"

// RoleOf returns the role userID holds among members, or "" when the
// user is not a member. Absence is a legitimate state, not an error.
func RoleOf(members []*store.Member, userID string) string {
	for _, m := range members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}
