package org

import (
	"testing"

	"github.com/openleague/openleague-go/internal/store"
)

func TestRoleOf(t *testing.T) {
	members := []*store.Member{
		{ID: "m-1", UserID: "u-1", Role: "owner"},
		{ID: "m-2", UserID: "u-2", Role: "member"},
	}

	if got := RoleOf(members, "u-1"); got != "owner" {
		t.Errorf("RoleOf(u-1) = %q, want owner", got)
	}
	if got := RoleOf(members, "u-2"); got != "member" {
		t.Errorf("RoleOf(u-2) = %q, want member", got)
	}
	if got := RoleOf(members, "u-stranger"); got != "" {
		t.Errorf("RoleOf(stranger) = %q, want empty", got)
	}
	if got := RoleOf(nil, "u-1"); got != "" {
		t.Errorf("RoleOf(nil members) = %q, want empty", got)
	}
}
