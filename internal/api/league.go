package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openleague/openleague-go/internal/league"
	"github.com/openleague/openleague-go/internal/store"
)

// LeagueHandler serves the league-domain endpoints. Every operation is
// scoped to the session's active organization.
type LeagueHandler struct {
	leagues *league.Service
	logger  *slog.Logger
}

func NewLeagueHandler(leagues *league.Service, logger *slog.Logger) *LeagueHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeagueHandler{leagues: leagues, logger: logger}
}

// Mount registers the league endpoint groups on the given router.
func (h *LeagueHandler) Mount(r chi.Router) {
	r.Route("/leagues", func(r chi.Router) {
		r.Get("/", h.handleListLeagues)
		r.Post("/", h.handleCreateLeague)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetLeague)
			r.Patch("/", h.handleUpdateLeague)
			r.Delete("/", h.handleDeleteLeague)
			r.Get("/teams", h.handleListTeams)
			r.Post("/teams", h.handleCreateTeam)
			r.Get("/games", h.handleListGames)
			r.Post("/games", h.handleCreateGame)
		})
	})

	r.Route("/teams/{id}", func(r chi.Router) {
		r.Get("/", h.handleGetTeam)
		r.Patch("/", h.handleUpdateTeam)
		r.Delete("/", h.handleDeleteTeam)
		r.Get("/players", h.handleListPlayers)
		r.Post("/players", h.handleCreatePlayer)
	})

	r.Route("/players/{id}", func(r chi.Router) {
		r.Get("/", h.handleGetPlayer)
		r.Patch("/", h.handleUpdatePlayer)
		r.Delete("/", h.handleDeletePlayer)
	})

	r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", h.handleGetGame)
		r.Patch("/", h.handleUpdateGame)
		r.Delete("/", h.handleDeleteGame)
		r.Get("/stats", h.handleGetGameStats)
		r.Post("/stats/players", h.handleRecordPlayerStat)
		r.Post("/stats/teams", h.handleRecordTeamStat)
	})

	r.Route("/referees", func(r chi.Router) {
		r.Get("/", h.handleListReferees)
		r.Post("/", h.handleCreateReferee)
		r.Delete("/{id}", h.handleDeleteReferee)
	})
}

// activeOrg resolves the active organization for the request, writing
// an error response when none is selected.
func activeOrg(w http.ResponseWriter, r *http.Request) (string, bool) {
	session := SessionFromContext(r.Context())
	if session == nil || session.ActiveOrganizationID == "" {
		WriteBadRequest(w, ReasonMissingField, "no active organization selected")
		return "", false
	}
	return session.ActiveOrganizationID, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		WriteBadRequest(w, ReasonInvalidField, "invalid id")
		return 0, false
	}
	return uint(id), true
}

type leagueRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

func (h *LeagueHandler) handleListLeagues(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}

	leagues, err := h.leagues.ListLeagues(r.Context(), orgID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, leagues)
}

func (h *LeagueHandler) handleCreateLeague(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}

	var req leagueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		WriteBadRequest(w, ReasonMissingField, "name is required")
		return
	}

	created, err := h.leagues.CreateLeague(r.Context(), orgID, req.Name, req.Description, req.StartDate, req.EndDate)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

func (h *LeagueHandler) handleGetLeague(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	l, err := h.leagues.GetLeague(r.Context(), orgID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

func (h *LeagueHandler) handleUpdateLeague(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	existing, err := h.leagues.GetLeague(r.Context(), orgID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req leagueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Description != "" {
		existing.Description = req.Description
	}
	if !req.StartDate.IsZero() {
		existing.StartDate = req.StartDate
	}
	if !req.EndDate.IsZero() {
		existing.EndDate = req.EndDate
	}

	if err := h.leagues.UpdateLeague(r.Context(), orgID, existing); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, existing)
}

func (h *LeagueHandler) handleDeleteLeague(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.leagues.DeleteLeague(r.Context(), orgID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type teamRequest struct {
	Name      string `json:"name"`
	CaptainID uint   `json:"captain_id"`
}

func (h *LeagueHandler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	leagueID, ok := pathID(w, r)
	if !ok {
		return
	}

	teams, err := h.leagues.ListTeams(r.Context(), orgID, leagueID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, teams)
}

func (h *LeagueHandler) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	leagueID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		WriteBadRequest(w, ReasonMissingField, "name is required")
		return
	}

	team, err := h.leagues.CreateTeam(r.Context(), orgID, leagueID, req.Name)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, team)
}

func (h *LeagueHandler) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	team, err := h.leagues.GetTeam(r.Context(), orgID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, team)
}

func (h *LeagueHandler) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	team, err := h.leagues.GetTeam(r.Context(), orgID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.Name != "" {
		team.Name = req.Name
	}
	if req.CaptainID != 0 {
		team.CaptainID = req.CaptainID
	}

	if err := h.leagues.UpdateTeam(r.Context(), orgID, team); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, team)
}

func (h *LeagueHandler) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.leagues.DeleteTeam(r.Context(), orgID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type playerRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

func (h *LeagueHandler) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	teamID, ok := pathID(w, r)
	if !ok {
		return
	}

	players, err := h.leagues.ListPlayers(r.Context(), orgID, teamID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, players)
}

func (h *LeagueHandler) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	teamID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		WriteBadRequest(w, ReasonMissingField, "first_name and last_name are required")
		return
	}

	player := &store.Player{
		TeamID:      teamID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}
	if err := h.leagues.CreatePlayer(r.Context(), orgID, player); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, player)
}

func (h *LeagueHandler) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	player, err := h.leagues.GetPlayer(r.Context(), orgID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, player)
}

func (h *LeagueHandler) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	player, err := h.leagues.GetPlayer(r.Context(), orgID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.FirstName != "" {
		player.FirstName = req.FirstName
	}
	if req.LastName != "" {
		player.LastName = req.LastName
	}
	if req.Email != "" {
		player.Email = req.Email
	}
	if req.PhoneNumber != "" {
		player.PhoneNumber = req.PhoneNumber
	}

	if err := h.leagues.UpdatePlayer(r.Context(), orgID, player); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, player)
}

func (h *LeagueHandler) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.leagues.DeletePlayer(r.Context(), orgID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type gameRequest struct {
	HomeTeamID uint      `json:"home_team_id"`
	AwayTeamID uint      `json:"away_team_id"`
	StartTime  time.Time `json:"start_time"`
	Location   string    `json:"location"`
}

func (h *LeagueHandler) handleListGames(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	leagueID, ok := pathID(w, r)
	if !ok {
		return
	}

	games, err := h.leagues.ListGames(r.Context(), orgID, leagueID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, games)
}

func (h *LeagueHandler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	leagueID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req gameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.HomeTeamID == 0 || req.AwayTeamID == 0 {
		WriteBadRequest(w, ReasonMissingField, "home_team_id and away_team_id are required")
		return
	}

	game := &store.Game{
		LeagueID:   leagueID,
		HomeTeamID: req.HomeTeamID,
		AwayTeamID: req.AwayTeamID,
		StartTime:  req.StartTime,
		Location:   req.Location,
	}
	if err := h.leagues.CreateGame(r.Context(), orgID, game); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, game)
}

func (h *LeagueHandler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	game, err := h.leagues.GetGame(r.Context(), orgID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, game)
}

func (h *LeagueHandler) handleUpdateGame(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	game, err := h.leagues.GetGame(r.Context(), orgID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req gameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if !req.StartTime.IsZero() {
		game.StartTime = req.StartTime
	}
	if req.Location != "" {
		game.Location = req.Location
	}
	if req.HomeTeamID != 0 {
		game.HomeTeamID = req.HomeTeamID
	}
	if req.AwayTeamID != 0 {
		game.AwayTeamID = req.AwayTeamID
	}

	if err := h.leagues.UpdateGame(r.Context(), orgID, game); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, game)
}

func (h *LeagueHandler) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.leagues.DeleteGame(r.Context(), orgID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *LeagueHandler) handleGetGameStats(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	stats, err := h.leagues.GetGameStats(r.Context(), orgID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

type playerStatRequest struct {
	PlayerID  uint `json:"player_id"`
	Goals     int  `json:"goals"`
	Assists   int  `json:"assists"`
	Blocks    int  `json:"blocks"`
	Turnovers int  `json:"turnovers"`
}

func (h *LeagueHandler) handleRecordPlayerStat(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	gameID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req playerStatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.PlayerID == 0 {
		WriteBadRequest(w, ReasonMissingField, "player_id is required")
		return
	}

	stat := &store.PlayerStat{
		PlayerID:  req.PlayerID,
		GameID:    gameID,
		Goals:     req.Goals,
		Assists:   req.Assists,
		Blocks:    req.Blocks,
		Turnovers: req.Turnovers,
	}
	if err := h.leagues.RecordPlayerStat(r.Context(), orgID, stat); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, stat)
}

type teamStatRequest struct {
	TeamID      uint     `json:"team_id"`
	Score       int      `json:"score"`
	SpiritScore *float64 `json:"spirit_score"`
}

func (h *LeagueHandler) handleRecordTeamStat(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	gameID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req teamStatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.TeamID == 0 {
		WriteBadRequest(w, ReasonMissingField, "team_id is required")
		return
	}

	stat := &store.TeamStat{
		TeamID:      req.TeamID,
		GameID:      gameID,
		Score:       req.Score,
		SpiritScore: req.SpiritScore,
	}
	if err := h.leagues.RecordTeamStat(r.Context(), orgID, stat); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, stat)
}

type refereeRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

func (h *LeagueHandler) handleListReferees(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}

	refs, err := h.leagues.ListReferees(r.Context(), orgID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, refs)
}

func (h *LeagueHandler) handleCreateReferee(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}

	var req refereeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		WriteBadRequest(w, ReasonMissingField, "first_name and last_name are required")
		return
	}

	ref := &store.Referee{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}
	if err := h.leagues.CreateReferee(r.Context(), orgID, ref); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ref)
}

func (h *LeagueHandler) handleDeleteReferee(w http.ResponseWriter, r *http.Request) {
	orgID, ok := activeOrg(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.leagues.DeleteReferee(r.Context(), orgID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
