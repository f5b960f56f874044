// Package testutil provides a conformance suite shared by store drivers.
package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openleague/openleague-go/internal/store"
)

// FullStore is the union of interfaces a complete driver implements.
type FullStore interface {
	store.Driver
	store.UserStore
	store.SessionStore
	store.VerificationStore
	store.OrgStore
	store.LeagueStore
}

// RunStoreTests exercises every store interface against the given driver.
// Each driver package invokes it from its own test file.
func RunStoreTests(t *testing.T, s FullStore) {
	t.Run("Users", func(t *testing.T) { testUsers(t, s) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, s) })
	t.Run("Verifications", func(t *testing.T) { testVerifications(t, s) })
	t.Run("Organizations", func(t *testing.T) { testOrganizations(t, s) })
	t.Run("Invitations", func(t *testing.T) { testInvitations(t, s) })
	t.Run("Leagues", func(t *testing.T) { testLeagues(t, s) })
}

func testUsers(t *testing.T, s FullStore) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	user := &store.User{
		ID:        "u-conf-1",
		Name:      "Alice",
		Email:     "alice@example.com",
		Role:      "user",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateUser(ctx, &store.User{ID: "u-conf-dup", Email: "alice@example.com"}); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("duplicate email: got %v, want ErrAlreadyExists", err)
	}

	got, err := s.GetUser(ctx, "u-conf-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("GetUser email = %q", got.Email)
	}

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != "u-conf-1" {
		t.Errorf("GetUserByEmail id = %q", byEmail.ID)
	}

	if _, err := s.GetUser(ctx, "u-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing user: got %v, want ErrNotFound", err)
	}

	got.EmailVerified = true
	if err := s.UpdateUser(ctx, got); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	got, _ = s.GetUser(ctx, "u-conf-1")
	if !got.EmailVerified {
		t.Error("UpdateUser did not persist EmailVerified")
	}

	acct := &store.Account{
		ID:         "acct-conf-1",
		ProviderID: store.ProviderCredential,
		UserID:     "u-conf-1",
		Password:   "$2a$10$fakehash",
		CreatedAt:  now,
	}
	if err := s.CreateAccount(ctx, acct); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	gotAcct, err := s.GetAccountByUser(ctx, "u-conf-1", store.ProviderCredential)
	if err != nil {
		t.Fatalf("GetAccountByUser: %v", err)
	}
	if gotAcct.Password != "$2a$10$fakehash" {
		t.Errorf("account password hash mismatch")
	}
	gotAcct.Password = "$2a$10$newhash"
	if err := s.UpdateAccount(ctx, gotAcct); err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
}

func testSessions(t *testing.T, s FullStore) {
	ctx := context.Background()
	now := time.Now().UTC()

	sess := &store.Session{
		ID:        "sess-conf-1",
		Token:     "tok-conf-1",
		UserID:    "u-conf-1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSessionByToken(ctx, "tok-conf-1")
	if err != nil {
		t.Fatalf("GetSessionByToken: %v", err)
	}
	if got.UserID != "u-conf-1" {
		t.Errorf("session user = %q", got.UserID)
	}

	got.ActiveOrganizationID = "o-conf-1"
	if err := s.UpdateSession(ctx, got); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	got, _ = s.GetSessionByToken(ctx, "tok-conf-1")
	if got.ActiveOrganizationID != "o-conf-1" {
		t.Error("UpdateSession did not persist active organization")
	}

	expired := &store.Session{
		ID:        "sess-conf-2",
		Token:     "tok-conf-2",
		UserID:    "u-conf-1",
		ExpiresAt: now.Add(-time.Hour),
	}
	if err := s.CreateSession(ctx, expired); err != nil {
		t.Fatalf("CreateSession expired: %v", err)
	}
	n, err := s.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpiredSessions = %d, want 1", n)
	}
	if _, err := s.GetSessionByToken(ctx, "tok-conf-2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expired session still present: %v", err)
	}

	if err := s.DeleteSessionByToken(ctx, "tok-conf-1"); err != nil {
		t.Fatalf("DeleteSessionByToken: %v", err)
	}
	if _, err := s.GetSessionByToken(ctx, "tok-conf-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted session still present: %v", err)
	}

	for i, tok := range []string{"tok-multi-a", "tok-multi-b"} {
		err := s.CreateSession(ctx, &store.Session{
			ID:        "sess-multi-" + tok,
			Token:     tok,
			UserID:    "u-conf-1",
			ExpiresAt: now.Add(time.Duration(i+1) * time.Hour),
		})
		if err != nil {
			t.Fatalf("CreateSession %s: %v", tok, err)
		}
	}
	if err := s.DeleteSessionsByUser(ctx, "u-conf-1"); err != nil {
		t.Fatalf("DeleteSessionsByUser: %v", err)
	}
	if _, err := s.GetSessionByToken(ctx, "tok-multi-a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("session survived DeleteSessionsByUser: %v", err)
	}
}

func testVerifications(t *testing.T, s FullStore) {
	ctx := context.Background()
	now := time.Now().UTC()

	v := &store.Verification{
		ID:         "v-conf-1",
		Identifier: store.VerifyEmail + ":u-conf-1",
		Value:      "token-value-1",
		ExpiresAt:  now.Add(time.Hour),
		CreatedAt:  now,
	}
	if err := s.CreateVerification(ctx, v); err != nil {
		t.Fatalf("CreateVerification: %v", err)
	}
	got, err := s.GetVerificationByValue(ctx, "token-value-1")
	if err != nil {
		t.Fatalf("GetVerificationByValue: %v", err)
	}
	if got.Identifier != store.VerifyEmail+":u-conf-1" {
		t.Errorf("identifier = %q", got.Identifier)
	}
	if err := s.DeleteVerification(ctx, "v-conf-1"); err != nil {
		t.Fatalf("DeleteVerification: %v", err)
	}
	if _, err := s.GetVerificationByValue(ctx, "token-value-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted verification still present: %v", err)
	}

	stale := &store.Verification{
		ID:        "v-conf-2",
		Value:     "token-value-2",
		ExpiresAt: now.Add(-time.Minute),
	}
	if err := s.CreateVerification(ctx, stale); err != nil {
		t.Fatalf("CreateVerification stale: %v", err)
	}
	n, err := s.DeleteExpiredVerifications(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredVerifications: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpiredVerifications = %d, want 1", n)
	}
}

func testOrganizations(t *testing.T, s FullStore) {
	ctx := context.Background()
	now := time.Now().UTC()

	org := &store.Organization{
		ID:        "o-conf-1",
		Name:      "Summer League",
		Slug:      "summer-league",
		CreatedAt: now,
	}
	if err := s.CreateOrganization(ctx, org); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if err := s.CreateOrganization(ctx, &store.Organization{ID: "o-conf-dup", Slug: "summer-league"}); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("duplicate slug: got %v, want ErrAlreadyExists", err)
	}

	got, err := s.GetOrganization(ctx, "o-conf-1")
	if err != nil {
		t.Fatalf("GetOrganization: %v", err)
	}
	if got.Name != "Summer League" {
		t.Errorf("org name = %q", got.Name)
	}

	member := &store.Member{
		ID:             "m-conf-1",
		OrganizationID: "o-conf-1",
		UserID:         "u-conf-1",
		Role:           "owner",
		CreatedAt:      now,
	}
	if err := s.CreateMember(ctx, member); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	orgs, err := s.ListOrganizationsByUser(ctx, "u-conf-1")
	if err != nil {
		t.Fatalf("ListOrganizationsByUser: %v", err)
	}
	if len(orgs) != 1 || orgs[0].ID != "o-conf-1" {
		t.Errorf("ListOrganizationsByUser = %+v", orgs)
	}
	orgs, err = s.ListOrganizationsByUser(ctx, "u-nobody")
	if err != nil {
		t.Fatalf("ListOrganizationsByUser none: %v", err)
	}
	if len(orgs) != 0 {
		t.Errorf("expected no orgs, got %d", len(orgs))
	}

	m, err := s.GetMemberByOrgAndUser(ctx, "o-conf-1", "u-conf-1")
	if err != nil {
		t.Fatalf("GetMemberByOrgAndUser: %v", err)
	}
	if m.Role != "owner" {
		t.Errorf("member role = %q", m.Role)
	}

	members, err := s.ListMembers(ctx, "o-conf-1")
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("ListMembers = %d members", len(members))
	}

	if err := s.DeleteMember(ctx, "m-conf-1"); err != nil {
		t.Fatalf("DeleteMember: %v", err)
	}
	if err := s.DeleteMember(ctx, "m-conf-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}
}

func testInvitations(t *testing.T, s FullStore) {
	ctx := context.Background()
	now := time.Now().UTC()

	inv := &store.Invitation{
		ID:             "i-conf-1",
		OrganizationID: "o-conf-1",
		Email:          "bob@example.com",
		Role:           "member",
		Status:         store.InviteStatusPending,
		ExpiresAt:      now.Add(48 * time.Hour),
		InviterID:      "u-conf-1",
		CreatedAt:      now,
	}
	if err := s.CreateInvitation(ctx, inv); err != nil {
		t.Fatalf("CreateInvitation: %v", err)
	}
	got, err := s.GetInvitation(ctx, "i-conf-1")
	if err != nil {
		t.Fatalf("GetInvitation: %v", err)
	}
	if got.Status != store.InviteStatusPending {
		t.Errorf("invitation status = %q", got.Status)
	}

	got.Status = store.InviteStatusAccepted
	if err := s.UpdateInvitation(ctx, got); err != nil {
		t.Fatalf("UpdateInvitation: %v", err)
	}
	got, _ = s.GetInvitation(ctx, "i-conf-1")
	if got.Status != store.InviteStatusAccepted {
		t.Error("UpdateInvitation did not persist status")
	}

	list, err := s.ListInvitations(ctx, "o-conf-1")
	if err != nil {
		t.Fatalf("ListInvitations: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListInvitations = %d invitations", len(list))
	}
}

func testLeagues(t *testing.T, s FullStore) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	league := &store.League{
		OrganizationID: "o-conf-1",
		Name:           "Division A",
		StartDate:      now,
		EndDate:        now.AddDate(0, 3, 0),
	}
	if err := s.CreateLeague(ctx, league); err != nil {
		t.Fatalf("CreateLeague: %v", err)
	}
	if league.ID == 0 {
		t.Fatal("CreateLeague did not assign an id")
	}

	league.Name = "Division A (Fall)"
	if err := s.UpdateLeague(ctx, league); err != nil {
		t.Fatalf("UpdateLeague: %v", err)
	}
	got, err := s.GetLeague(ctx, league.ID)
	if err != nil {
		t.Fatalf("GetLeague: %v", err)
	}
	if got.Name != "Division A (Fall)" {
		t.Errorf("league name = %q", got.Name)
	}

	team := &store.Team{LeagueID: league.ID, Name: "Hucksters"}
	if err := s.CreateTeam(ctx, team); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	teams, err := s.ListTeams(ctx, league.ID)
	if err != nil {
		t.Fatalf("ListTeams: %v", err)
	}
	if len(teams) != 1 || teams[0].Name != "Hucksters" {
		t.Errorf("ListTeams = %+v", teams)
	}

	player := &store.Player{TeamID: team.ID, FirstName: "Dana", LastName: "Reed", Email: "dana@example.com"}
	if err := s.CreatePlayer(ctx, player); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	players, err := s.ListPlayers(ctx, team.ID)
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if len(players) != 1 {
		t.Errorf("ListPlayers = %d players", len(players))
	}

	opponent := &store.Team{LeagueID: league.ID, Name: "Discheads"}
	if err := s.CreateTeam(ctx, opponent); err != nil {
		t.Fatalf("CreateTeam opponent: %v", err)
	}
	game := &store.Game{
		LeagueID:   league.ID,
		HomeTeamID: team.ID,
		AwayTeamID: opponent.ID,
		StartTime:  now.AddDate(0, 0, 7),
		Location:   "Field 3",
	}
	if err := s.CreateGame(ctx, game); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	games, err := s.ListGames(ctx, league.ID)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 1 {
		t.Errorf("ListGames = %d games", len(games))
	}

	ref := &store.Referee{OrganizationID: "o-conf-1", FirstName: "Sam", LastName: "Ortiz", Email: "sam@example.com"}
	if err := s.CreateReferee(ctx, ref); err != nil {
		t.Fatalf("CreateReferee: %v", err)
	}
	refs, err := s.ListReferees(ctx, "o-conf-1")
	if err != nil {
		t.Fatalf("ListReferees: %v", err)
	}
	if len(refs) != 1 {
		t.Errorf("ListReferees = %d referees", len(refs))
	}
	if err := s.DeleteReferee(ctx, ref.ID); err != nil {
		t.Fatalf("DeleteReferee: %v", err)
	}

	stat := &store.PlayerStat{PlayerID: player.ID, GameID: game.ID, Goals: 2, Assists: 3}
	if err := s.CreatePlayerStat(ctx, stat); err != nil {
		t.Fatalf("CreatePlayerStat: %v", err)
	}
	pstats, err := s.ListPlayerStatsByGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("ListPlayerStatsByGame: %v", err)
	}
	if len(pstats) != 1 || pstats[0].Goals != 2 {
		t.Errorf("ListPlayerStatsByGame = %+v", pstats)
	}

	spirit := 9.5
	ts := &store.TeamStat{TeamID: team.ID, GameID: game.ID, Score: 15, SpiritScore: &spirit}
	if err := s.CreateTeamStat(ctx, ts); err != nil {
		t.Fatalf("CreateTeamStat: %v", err)
	}
	tstats, err := s.ListTeamStatsByGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("ListTeamStatsByGame: %v", err)
	}
	if len(tstats) != 1 || tstats[0].Score != 15 {
		t.Errorf("ListTeamStatsByGame = %+v", tstats)
	}

	if err := s.DeleteGame(ctx, game.ID); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if err := s.DeletePlayer(ctx, player.ID); err != nil {
		t.Fatalf("DeletePlayer: %v", err)
	}
	if err := s.DeleteTeam(ctx, team.ID); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}
	if err := s.DeleteLeague(ctx, league.ID); err != nil {
		t.Fatalf("DeleteLeague: %v", err)
	}
	if _, err := s.GetLeague(ctx, league.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted league still present: %v", err)
	}
}
