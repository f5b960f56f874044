package identity

import (
	"strings"
	"testing"
)

func TestNewIDPrefixes(t *testing.T) {
	tests := []struct {
		kind   Kind
		prefix string
	}{
		{KindUser, "u-"},
		{KindOrganization, "o-"},
		{KindMember, "m-"},
		{KindInvitation, "i-"},
		{KindVerification, "v-"},
		{KindAccount, ""},
		{KindSession, ""},
	}
	for _, tt := range tests {
		id := NewID(tt.kind)
		if tt.prefix != "" && !strings.HasPrefix(id, tt.prefix) {
			t.Errorf("NewID(%d) = %q, want prefix %q", tt.kind, id, tt.prefix)
		}
		// uuid string is 36 chars
		if got := len(id) - len(tt.prefix); got != 36 {
			t.Errorf("NewID(%d) uuid part length = %d", tt.kind, got)
		}
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID(KindUser)
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestUnknownKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown kind")
		}
	}()
	NewID(Kind(99))
}
