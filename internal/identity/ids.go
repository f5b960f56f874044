package identity

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind enumerates the entity kinds that receive generated identifiers.
type Kind int

const (
	KindUser Kind = iota
	KindOrganization
	KindMember
	KindInvitation
	KindVerification
	KindAccount
	KindSession
)

// prefix returns the short identifier prefix for a kind. Kinds without
// a prefix (accounts, sessions) return the empty string.
func (k Kind) prefix() string {
	switch k {
	case KindUser:
		return "u-"
	case KindOrganization:
		return "o-"
	case KindMember:
		return "m-"
	case KindInvitation:
		return "i-"
	case KindVerification:
		return "v-"
	case KindAccount, KindSession:
		return ""
	default:
		panic(fmt.Sprintf("identity: unknown kind %d", k))
	}
}

// NewID generates a unique identifier for the given kind. UUIDv7 ids
// sort by creation time.
func NewID(kind Kind) string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4.
		id = uuid.New()
	}
	return kind.prefix() + id.String()
}
